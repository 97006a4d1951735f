package domain

import (
	"slices"
	"strings"
	"time"

	"planar/internal/api"
)

// DateLayout is the wire format for start and target dates.
const DateLayout = "2006-01-02"

// DefaultSortOrder is assigned to issues the server returns without one.
const DefaultSortOrder = 65535

// Issue is the client-side issue record held by the view store. Description
// holds markdown.
type Issue struct {
	ID            string
	ProjectID     string
	WorkspaceSlug string
	Name          string
	SequenceID    int
	StateID       string
	Priority      Priority
	AssigneeIDs   []string
	LabelIDs      []string
	StartDate     string
	TargetDate    string
	SortOrder     float64
	Description   string
	ArchivedAt    string
	CreatedAt     string
	UpdatedAt     string
}

// NewIssueFromPayload validates a wire issue and converts it.
func NewIssueFromPayload(p api.IssuePayload) (Issue, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Issue{}, invalidIssueError("issue id is required")
	}
	if strings.TrimSpace(p.ProjectID) == "" {
		return Issue{}, invalidIssueError("issue " + p.ID + " has no project_id")
	}
	priority, err := ParsePriority(p.Priority)
	if err != nil {
		return Issue{}, err
	}
	start, err := normaliseDate("start_date", deref(p.StartDate))
	if err != nil {
		return Issue{}, err
	}
	target, err := normaliseDate("target_date", deref(p.TargetDate))
	if err != nil {
		return Issue{}, err
	}
	order := float64(DefaultSortOrder)
	if p.SortOrder != nil {
		order = *p.SortOrder
	}
	return Issue{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		WorkspaceSlug: p.WorkspaceSlug,
		Name:          p.Name,
		SequenceID:    p.SequenceID,
		StateID:       p.StateID,
		Priority:      priority,
		AssigneeIDs:   slices.Clone(p.AssigneeIDs),
		LabelIDs:      slices.Clone(p.LabelIDs),
		StartDate:     start,
		TargetDate:    target,
		SortOrder:     order,
		Description:   DescriptionMarkdown(p.DescriptionHTML, p.Description),
		ArchivedAt:    deref(p.ArchivedAt),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

// Clone returns a deep copy so callers can mutate without aliasing slices.
func (i Issue) Clone() Issue {
	c := i
	c.AssigneeIDs = slices.Clone(i.AssigneeIDs)
	c.LabelIDs = slices.Clone(i.LabelIDs)
	return c
}

// IsArchived reports whether the server has archived the issue.
func (i Issue) IsArchived() bool {
	return i.ArchivedAt != ""
}

// GroupKeys returns the groups the issue belongs to under g. Multi-valued
// dimensions place the issue in one group per value; empty values fall into
// the None group.
func (i Issue) GroupKeys(g GroupBy) []string {
	switch g {
	case GroupByState:
		return keyOrNone(i.StateID)
	case GroupByPriority:
		return []string{string(i.Priority)}
	case GroupByTargetDate:
		return keyOrNone(i.TargetDate)
	case GroupByStartDate:
		return keyOrNone(i.StartDate)
	case GroupByProject:
		return keyOrNone(i.ProjectID)
	case GroupByAssignees:
		if len(i.AssigneeIDs) == 0 {
			return []string{NoneGroup}
		}
		return slices.Clone(i.AssigneeIDs)
	case GroupByLabels:
		if len(i.LabelIDs) == 0 {
			return []string{NoneGroup}
		}
		return slices.Clone(i.LabelIDs)
	default:
		return []string{AllIssuesGroup}
	}
}

func keyOrNone(v string) []string {
	if v == "" {
		return []string{NoneGroup}
	}
	return []string{v}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// normaliseDate accepts both bare dates and RFC 3339 timestamps, keeping
// only the calendar date.
func normaliseDate(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.Format(DateLayout), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", invalidDateError(field, raw, err)
	}
	return t.Format(DateLayout), nil
}
