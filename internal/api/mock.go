package api

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrMockNotImplemented is returned when a MockClient read lacks an override.
var ErrMockNotImplemented = errors.New("api.MockClient: method not implemented")

// MockClient is a test double for Client. Reads fail unless stubbed; writes
// succeed by default.
type MockClient struct {
	ListIssuesFn             func(context.Context, string, string, IssueQuery) (IssuePage, error)
	CreateIssueFn            func(context.Context, string, string, IssueCreate) (IssuePayload, error)
	UpdateIssueFn            func(context.Context, string, string, string, IssueUpdate) (IssuePayload, error)
	DeleteIssueFn            func(context.Context, string, string, string) error
	ArchiveIssueFn           func(context.Context, string, string, string) (string, error)
	RestoreIssueFn           func(context.Context, string, string, string) error
	AddIssuesToViewFn        func(context.Context, string, string, ViewScope, []string) error
	RemoveIssueFromViewFn    func(context.Context, string, string, ViewScope, string) error
	ListProjectsFn           func(context.Context, string) ([]ProjectPayload, error)
	UpdateProjectViewFn      func(context.Context, string, string, ProjectViewUpdate) error
	ListStatesFn             func(context.Context, string, string) ([]StatePayload, error)
	FetchPublishSettingsFn   func(context.Context, string) (PublishSettingsPayload, error)
	FetchAnchorFromProjectFn func(context.Context, string, string) (PublishSettingsPayload, error)
	ListAccountsFn           func(context.Context) ([]AccountPayload, error)

	mu                        sync.Mutex
	ListIssuesCallCount       int
	ListIssuesCallArgs        []IssueQuery
	CreateIssueCallCount      int
	CreateIssueCallArgs       []IssueCreate
	UpdateIssueCallCount      int
	UpdateIssueCallArgs       []UpdateIssueCallArg
	DeleteIssueCallArgs       []string
	ArchiveIssueCallArgs      []string
	RestoreIssueCallArgs      []string
	AddIssuesToViewCallArgs   []ViewLinkCallArg
	RemoveFromViewCallArgs    []ViewLinkCallArg
	ListProjectsCallCount     int
	UpdateProjectViewCallArgs []ProjectViewCallArg
	ListStatesCallCount       int
	FetchPublishCallArgs      []string
	ListAccountsCallCount     int
}

// UpdateIssueCallArg captures arguments passed to UpdateIssue.
type UpdateIssueCallArg struct {
	ProjectID string
	IssueID   string
	Body      IssueUpdate
}

// ViewLinkCallArg captures arguments passed to the cycle/module link calls.
type ViewLinkCallArg struct {
	Scope    ViewScope
	IssueIDs []string
}

// ProjectViewCallArg captures arguments passed to UpdateProjectView.
type ProjectViewCallArg struct {
	ProjectID string
	Body      ProjectViewUpdate
}

// NewMockClient returns a MockClient with zeroed handlers.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

// ListIssues invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) ListIssues(ctx context.Context, workspace, projectID string, q IssueQuery) (IssuePage, error) {
	m.mu.Lock()
	m.ListIssuesCallCount++
	q.StateIDs = slices.Clone(q.StateIDs)
	m.ListIssuesCallArgs = append(m.ListIssuesCallArgs, q)
	m.mu.Unlock()

	if m.ListIssuesFn == nil {
		return IssuePage{}, ErrMockNotImplemented
	}
	return m.ListIssuesFn(ctx, workspace, projectID, q)
}

// CreateIssue invokes the configured stub or echoes the body back under a
// mock id.
func (m *MockClient) CreateIssue(ctx context.Context, workspace, projectID string, body IssueCreate) (IssuePayload, error) {
	m.mu.Lock()
	m.CreateIssueCallCount++
	m.CreateIssueCallArgs = append(m.CreateIssueCallArgs, body)
	m.mu.Unlock()

	if m.CreateIssueFn == nil {
		order := body.SortOrder
		return IssuePayload{
			ID:          "issue-mock",
			ProjectID:   projectID,
			Name:        body.Name,
			StateID:     body.StateID,
			Priority:    body.Priority,
			AssigneeIDs: body.AssigneeIDs,
			LabelIDs:    body.LabelIDs,
			SortOrder:   &order,
		}, nil
	}
	return m.CreateIssueFn(ctx, workspace, projectID, body)
}

// UpdateIssue invokes the configured stub or returns an empty payload.
func (m *MockClient) UpdateIssue(ctx context.Context, workspace, projectID, issueID string, body IssueUpdate) (IssuePayload, error) {
	m.mu.Lock()
	m.UpdateIssueCallCount++
	m.UpdateIssueCallArgs = append(m.UpdateIssueCallArgs, UpdateIssueCallArg{
		ProjectID: projectID,
		IssueID:   issueID,
		Body:      maps.Clone(body),
	})
	m.mu.Unlock()

	if m.UpdateIssueFn == nil {
		return IssuePayload{}, nil
	}
	return m.UpdateIssueFn(ctx, workspace, projectID, issueID, body)
}

// DeleteIssue invokes the configured stub or returns nil.
func (m *MockClient) DeleteIssue(ctx context.Context, workspace, projectID, issueID string) error {
	m.mu.Lock()
	m.DeleteIssueCallArgs = append(m.DeleteIssueCallArgs, issueID)
	m.mu.Unlock()

	if m.DeleteIssueFn == nil {
		return nil
	}
	return m.DeleteIssueFn(ctx, workspace, projectID, issueID)
}

// ArchiveIssue invokes the configured stub or returns a fixed timestamp.
func (m *MockClient) ArchiveIssue(ctx context.Context, workspace, projectID, issueID string) (string, error) {
	m.mu.Lock()
	m.ArchiveIssueCallArgs = append(m.ArchiveIssueCallArgs, issueID)
	m.mu.Unlock()

	if m.ArchiveIssueFn == nil {
		return "2024-01-01T00:00:00Z", nil
	}
	return m.ArchiveIssueFn(ctx, workspace, projectID, issueID)
}

// RestoreIssue invokes the configured stub or returns nil.
func (m *MockClient) RestoreIssue(ctx context.Context, workspace, projectID, issueID string) error {
	m.mu.Lock()
	m.RestoreIssueCallArgs = append(m.RestoreIssueCallArgs, issueID)
	m.mu.Unlock()

	if m.RestoreIssueFn == nil {
		return nil
	}
	return m.RestoreIssueFn(ctx, workspace, projectID, issueID)
}

// AddIssuesToView invokes the configured stub or returns nil.
func (m *MockClient) AddIssuesToView(ctx context.Context, workspace, projectID string, scope ViewScope, issueIDs []string) error {
	m.mu.Lock()
	m.AddIssuesToViewCallArgs = append(m.AddIssuesToViewCallArgs, ViewLinkCallArg{Scope: scope, IssueIDs: slices.Clone(issueIDs)})
	m.mu.Unlock()

	if m.AddIssuesToViewFn == nil {
		return nil
	}
	return m.AddIssuesToViewFn(ctx, workspace, projectID, scope, issueIDs)
}

// RemoveIssueFromView invokes the configured stub or returns nil.
func (m *MockClient) RemoveIssueFromView(ctx context.Context, workspace, projectID string, scope ViewScope, issueID string) error {
	m.mu.Lock()
	m.RemoveFromViewCallArgs = append(m.RemoveFromViewCallArgs, ViewLinkCallArg{Scope: scope, IssueIDs: []string{issueID}})
	m.mu.Unlock()

	if m.RemoveIssueFromViewFn == nil {
		return nil
	}
	return m.RemoveIssueFromViewFn(ctx, workspace, projectID, scope, issueID)
}

// ListProjects invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) ListProjects(ctx context.Context, workspace string) ([]ProjectPayload, error) {
	m.mu.Lock()
	m.ListProjectsCallCount++
	m.mu.Unlock()

	if m.ListProjectsFn == nil {
		return nil, ErrMockNotImplemented
	}
	return m.ListProjectsFn(ctx, workspace)
}

// UpdateProjectView invokes the configured stub or returns nil.
func (m *MockClient) UpdateProjectView(ctx context.Context, workspace, projectID string, body ProjectViewUpdate) error {
	m.mu.Lock()
	m.UpdateProjectViewCallArgs = append(m.UpdateProjectViewCallArgs, ProjectViewCallArg{ProjectID: projectID, Body: body})
	m.mu.Unlock()

	if m.UpdateProjectViewFn == nil {
		return nil
	}
	return m.UpdateProjectViewFn(ctx, workspace, projectID, body)
}

// ListStates invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) ListStates(ctx context.Context, workspace, projectID string) ([]StatePayload, error) {
	m.mu.Lock()
	m.ListStatesCallCount++
	m.mu.Unlock()

	if m.ListStatesFn == nil {
		return nil, ErrMockNotImplemented
	}
	return m.ListStatesFn(ctx, workspace, projectID)
}

// FetchPublishSettings invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) FetchPublishSettings(ctx context.Context, anchor string) (PublishSettingsPayload, error) {
	m.mu.Lock()
	m.FetchPublishCallArgs = append(m.FetchPublishCallArgs, anchor)
	m.mu.Unlock()

	if m.FetchPublishSettingsFn == nil {
		return PublishSettingsPayload{}, ErrMockNotImplemented
	}
	return m.FetchPublishSettingsFn(ctx, anchor)
}

// FetchAnchorFromProject invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) FetchAnchorFromProject(ctx context.Context, workspace, projectID string) (PublishSettingsPayload, error) {
	m.mu.Lock()
	m.FetchPublishCallArgs = append(m.FetchPublishCallArgs, workspace+"/"+projectID)
	m.mu.Unlock()

	if m.FetchAnchorFromProjectFn == nil {
		return PublishSettingsPayload{}, ErrMockNotImplemented
	}
	return m.FetchAnchorFromProjectFn(ctx, workspace, projectID)
}

// ListAccounts invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) ListAccounts(ctx context.Context) ([]AccountPayload, error) {
	m.mu.Lock()
	m.ListAccountsCallCount++
	m.mu.Unlock()

	if m.ListAccountsFn == nil {
		return nil, ErrMockNotImplemented
	}
	return m.ListAccountsFn(ctx)
}

// Calls returns a snapshot of the recorded call counters.
func (m *MockClient) Calls() MockCalls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MockCalls{
		ListIssues:  m.ListIssuesCallCount,
		CreateIssue: m.CreateIssueCallCount,
		UpdateIssue: m.UpdateIssueCallCount,
		Delete:      len(m.DeleteIssueCallArgs),
		Archive:     len(m.ArchiveIssueCallArgs),
		Restore:     len(m.RestoreIssueCallArgs),
		ProjectView: len(m.UpdateProjectViewCallArgs),
	}
}

// MockCalls is a point-in-time copy of MockClient counters, safe to read
// while requests are still running.
type MockCalls struct {
	ListIssues  int
	CreateIssue int
	UpdateIssue int
	Delete      int
	Archive     int
	Restore     int
	ProjectView int
}
