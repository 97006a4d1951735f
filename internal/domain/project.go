package domain

import (
	"strings"

	"planar/internal/api"
)

// Project is a sidebar entry.
type Project struct {
	ID         string
	Identifier string
	Name       string
	SortOrder  float64
	IsFavorite bool
	IsMember   bool
	Role       Role
}

// NewProjectFromPayload validates and converts a wire project.
func NewProjectFromPayload(p api.ProjectPayload) (Project, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Project{}, invalidIssueError("project id is required")
	}
	order := float64(DefaultSortOrder)
	if p.SortOrder != nil {
		order = *p.SortOrder
	}
	return Project{
		ID:         p.ID,
		Identifier: p.Identifier,
		Name:       p.Name,
		SortOrder:  order,
		IsFavorite: p.IsFavorite,
		IsMember:   p.IsMember,
		Role:       Role(p.MemberRole),
	}, nil
}

// IssuesPath is the project's issue list path relative to the app origin.
func (p Project) IssuesPath(workspaceSlug string) string {
	return workspaceSlug + "/projects/" + p.ID + "/issues"
}
