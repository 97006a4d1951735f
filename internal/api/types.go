package api

// IssuePayload is the issue record returned by the issue endpoints.
type IssuePayload struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project_id"`
	WorkspaceSlug   string   `json:"workspace_slug,omitempty"`
	Name            string   `json:"name"`
	SequenceID      int      `json:"sequence_id"`
	StateID         string   `json:"state_id"`
	Priority        string   `json:"priority"`
	AssigneeIDs     []string `json:"assignee_ids"`
	LabelIDs        []string `json:"label_ids"`
	StartDate       *string  `json:"start_date"`
	TargetDate      *string  `json:"target_date"`
	SortOrder       *float64 `json:"sort_order"`
	DescriptionHTML string   `json:"description_html"`
	Description     string   `json:"description_stripped"`
	ArchivedAt      *string  `json:"archived_at"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// GroupPage is one group's slice of an issue page.
type GroupPage struct {
	Issues       []IssuePayload
	TotalResults int
}

// IssuePage is a decoded paginated issue response. Groups keeps the server's
// group ordering in Order since JSON objects are unordered once in a map.
type IssuePage struct {
	GroupedBy       string
	NextCursor      string
	PrevCursor      string
	NextPageResults bool
	TotalCount      int
	TotalResults    int
	Groups          map[string]GroupPage
	Order           []string
}

// IssueQuery carries list parameters. Zero values are omitted from the request.
type IssueQuery struct {
	Cursor    string
	PerPage   int
	GroupBy   string
	GroupID   string
	After     string
	Before    string
	StateIDs  []string
	OrderBy   string
	Archived  bool
	ViewScope ViewScope
}

// ViewKind selects which collection endpoint serves a view.
type ViewKind string

const (
	ViewProject ViewKind = "project"
	ViewCycle   ViewKind = "cycle"
	ViewModule  ViewKind = "module"
)

// ViewScope addresses the collection a view is built from.
type ViewScope struct {
	Kind ViewKind
	ID   string
}

// IssueCreate is the body for creating an issue.
type IssueCreate struct {
	Name        string   `json:"name"`
	StateID     string   `json:"state_id,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
	LabelIDs    []string `json:"label_ids,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	TargetDate  string   `json:"target_date,omitempty"`
	SortOrder   float64  `json:"sort_order,omitempty"`
}

// IssueUpdate is a partial issue body. A nil value is sent as JSON null and
// clears the field server-side.
type IssueUpdate map[string]any

// ProjectPayload is a project row from the workspace project list.
type ProjectPayload struct {
	ID         string   `json:"id"`
	Identifier string   `json:"identifier"`
	Name       string   `json:"name"`
	SortOrder  *float64 `json:"sort_order"`
	IsFavorite bool     `json:"is_favorite"`
	IsMember   bool     `json:"is_member"`
	MemberRole int      `json:"member_role"`
}

// ProjectViewUpdate is the member-scoped project view body.
type ProjectViewUpdate struct {
	SortOrder float64 `json:"sort_order"`
}

// StatePayload is a project workflow state.
type StatePayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
	Color string `json:"color"`
}

// WorkspaceDetail is the nested workspace summary on publish settings.
type WorkspaceDetail struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ViewProps lists the layouts a published view exposes.
type ViewProps struct {
	List        bool `json:"list"`
	Kanban      bool `json:"kanban"`
	Calendar    bool `json:"calendar"`
	Gantt       bool `json:"gantt"`
	Spreadsheet bool `json:"spreadsheet"`
}

// PublishSettingsPayload is returned by the public anchor endpoints.
type PublishSettingsPayload struct {
	ID                 string           `json:"id"`
	Anchor             string           `json:"anchor"`
	Project            string           `json:"project"`
	Workspace          string           `json:"workspace"`
	WorkspaceDetail    *WorkspaceDetail `json:"workspace_detail"`
	IsCommentsEnabled  bool             `json:"is_comments_enabled"`
	IsReactionsEnabled bool             `json:"is_reactions_enabled"`
	IsVotesEnabled     bool             `json:"is_votes_enabled"`
	ViewProps          *ViewProps       `json:"view_props"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

// AccountPayload is a third-party identity linked to the current user.
type AccountPayload struct {
	Provider          string         `json:"provider"`
	ProviderAccountID string         `json:"provider_account_id"`
	User              string         `json:"user"`
	CreatedAt         string         `json:"created_at"`
	LastConnectedAt   string         `json:"last_connected_at"`
	Metadata          map[string]any `json:"metadata"`
}
