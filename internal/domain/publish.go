package domain

import (
	"strings"

	"planar/internal/api"
)

// PublishSettings anchors a project's public view. Values are read-only on
// the client; changes go through explicit server updates.
type PublishSettings struct {
	id               string
	anchor           string
	projectID        string
	workspaceID      string
	workspaceSlug    string
	commentsEnabled  bool
	reactionsEnabled bool
	votesEnabled     bool
	layouts          api.ViewProps
	createdAt        string
	updatedAt        string
}

// NewPublishSettings validates a wire payload.
func NewPublishSettings(p api.PublishSettingsPayload) (PublishSettings, error) {
	if strings.TrimSpace(p.Anchor) == "" {
		return PublishSettings{}, invalidIssueError("publish settings have no anchor")
	}
	s := PublishSettings{
		id:               p.ID,
		anchor:           p.Anchor,
		projectID:        p.Project,
		workspaceID:      p.Workspace,
		commentsEnabled:  p.IsCommentsEnabled,
		reactionsEnabled: p.IsReactionsEnabled,
		votesEnabled:     p.IsVotesEnabled,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
	}
	if p.WorkspaceDetail != nil {
		s.workspaceSlug = p.WorkspaceDetail.Slug
	}
	if p.ViewProps != nil {
		s.layouts = *p.ViewProps
	}
	return s, nil
}

// ID returns the publish record id.
func (s PublishSettings) ID() string { return s.id }

// Anchor returns the public identifier of the view.
func (s PublishSettings) Anchor() string { return s.anchor }

func (s PublishSettings) ProjectID() string     { return s.projectID }
func (s PublishSettings) WorkspaceID() string   { return s.workspaceID }
func (s PublishSettings) WorkspaceSlug() string { return s.workspaceSlug }

func (s PublishSettings) CommentsEnabled() bool  { return s.commentsEnabled }
func (s PublishSettings) ReactionsEnabled() bool { return s.reactionsEnabled }
func (s PublishSettings) VotesEnabled() bool     { return s.votesEnabled }

func (s PublishSettings) CreatedAt() string { return s.createdAt }
func (s PublishSettings) UpdatedAt() string { return s.updatedAt }

// Layouts returns the layout names the published view exposes, in a fixed order.
func (s PublishSettings) Layouts() []string {
	var out []string
	if s.layouts.List {
		out = append(out, "list")
	}
	if s.layouts.Kanban {
		out = append(out, "kanban")
	}
	if s.layouts.Calendar {
		out = append(out, "calendar")
	}
	if s.layouts.Gantt {
		out = append(out, "gantt")
	}
	if s.layouts.Spreadsheet {
		out = append(out, "spreadsheet")
	}
	return out
}
