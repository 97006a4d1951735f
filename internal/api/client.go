package api

import "context"

// IssueService covers the project issue endpoints.
type IssueService interface {
	ListIssues(ctx context.Context, workspace, projectID string, q IssueQuery) (IssuePage, error)
	CreateIssue(ctx context.Context, workspace, projectID string, body IssueCreate) (IssuePayload, error)
	UpdateIssue(ctx context.Context, workspace, projectID, issueID string, body IssueUpdate) (IssuePayload, error)
	DeleteIssue(ctx context.Context, workspace, projectID, issueID string) error
	ArchiveIssue(ctx context.Context, workspace, projectID, issueID string) (string, error)
	RestoreIssue(ctx context.Context, workspace, projectID, issueID string) error
	AddIssuesToView(ctx context.Context, workspace, projectID string, scope ViewScope, issueIDs []string) error
	RemoveIssueFromView(ctx context.Context, workspace, projectID string, scope ViewScope, issueID string) error
}

// ProjectService covers the workspace project endpoints.
type ProjectService interface {
	ListProjects(ctx context.Context, workspace string) ([]ProjectPayload, error)
	UpdateProjectView(ctx context.Context, workspace, projectID string, body ProjectViewUpdate) error
	ListStates(ctx context.Context, workspace, projectID string) ([]StatePayload, error)
}

// PublishService covers the public anchor endpoints.
type PublishService interface {
	FetchPublishSettings(ctx context.Context, anchor string) (PublishSettingsPayload, error)
	FetchAnchorFromProject(ctx context.Context, workspace, projectID string) (PublishSettingsPayload, error)
}

// AccountService lists identities linked to the current user.
type AccountService interface {
	ListAccounts(ctx context.Context) ([]AccountPayload, error)
}

// Client defines every call planar makes against the server.
type Client interface {
	IssueService
	ProjectService
	PublishService
	AccountService
}
