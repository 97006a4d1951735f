package domain

// Role is a workspace or project membership level.
type Role int

const (
	RoleGuest  Role = 5
	RoleViewer Role = 10
	RoleMember Role = 15
	RoleAdmin  Role = 20
)

// CanEdit reports whether the role may mutate issues and projects.
func (r Role) CanEdit() bool {
	return r >= RoleMember
}

// Membership is the current user's roles. A missing project entry means the
// user is not a member of that project.
type Membership struct {
	WorkspaceRole Role
	ProjectRoles  map[string]Role
}

// ProjectRole returns the role for projectID and whether one is known.
func (m Membership) ProjectRole(projectID string) (Role, bool) {
	r, ok := m.ProjectRoles[projectID]
	return r, ok
}

// CanEditProject reports whether issues in projectID are editable.
func (m Membership) CanEditProject(projectID string) bool {
	r, ok := m.ProjectRole(projectID)
	return ok && r.CanEdit()
}

// IsAuthorizedUser reports whether the user may create or reorder projects.
func (m Membership) IsAuthorizedUser() bool {
	return m.WorkspaceRole.CanEdit()
}
