package domain

import (
	"slices"

	"planar/internal/api"
)

// IssuePatch is a partial issue update. Nil fields are left untouched; an
// empty date string clears the date.
type IssuePatch struct {
	Name        *string
	StateID     *string
	Priority    *Priority
	AssigneeIDs *[]string
	LabelIDs    *[]string
	StartDate   *string
	TargetDate  *string
	SortOrder   *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p IssuePatch) IsEmpty() bool {
	return p.Name == nil && p.StateID == nil && p.Priority == nil &&
		p.AssigneeIDs == nil && p.LabelIDs == nil && p.StartDate == nil &&
		p.TargetDate == nil && p.SortOrder == nil
}

// Validate checks field formats without touching any issue.
func (p IssuePatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return invalidIssueError("issue name cannot be empty")
	}
	if p.Priority != nil {
		if err := p.Priority.Validate(); err != nil {
			return err
		}
	}
	if p.StartDate != nil {
		if _, err := normaliseDate("start_date", *p.StartDate); err != nil {
			return err
		}
	}
	if p.TargetDate != nil {
		if _, err := normaliseDate("target_date", *p.TargetDate); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of issue with the patch applied.
func (p IssuePatch) Apply(issue Issue) Issue {
	out := issue.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.StateID != nil {
		out.StateID = *p.StateID
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.AssigneeIDs != nil {
		out.AssigneeIDs = slices.Clone(*p.AssigneeIDs)
	}
	if p.LabelIDs != nil {
		out.LabelIDs = slices.Clone(*p.LabelIDs)
	}
	if p.StartDate != nil {
		out.StartDate, _ = normaliseDate("start_date", *p.StartDate)
	}
	if p.TargetDate != nil {
		out.TargetDate, _ = normaliseDate("target_date", *p.TargetDate)
	}
	if p.SortOrder != nil {
		out.SortOrder = *p.SortOrder
	}
	return out
}

// Merge layers other on top of p; fields set in other win.
func (p IssuePatch) Merge(other IssuePatch) IssuePatch {
	if other.Name != nil {
		p.Name = other.Name
	}
	if other.StateID != nil {
		p.StateID = other.StateID
	}
	if other.Priority != nil {
		p.Priority = other.Priority
	}
	if other.AssigneeIDs != nil {
		p.AssigneeIDs = other.AssigneeIDs
	}
	if other.LabelIDs != nil {
		p.LabelIDs = other.LabelIDs
	}
	if other.StartDate != nil {
		p.StartDate = other.StartDate
	}
	if other.TargetDate != nil {
		p.TargetDate = other.TargetDate
	}
	if other.SortOrder != nil {
		p.SortOrder = other.SortOrder
	}
	return p
}

// Payload renders the patch as a request body.
func (p IssuePatch) Payload() api.IssueUpdate {
	body := api.IssueUpdate{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.StateID != nil {
		body["state_id"] = *p.StateID
	}
	if p.Priority != nil {
		body["priority"] = string(*p.Priority)
	}
	if p.AssigneeIDs != nil {
		body["assignee_ids"] = nonNil(*p.AssigneeIDs)
	}
	if p.LabelIDs != nil {
		body["label_ids"] = nonNil(*p.LabelIDs)
	}
	if p.StartDate != nil {
		body["start_date"] = dateOrNull(*p.StartDate)
	}
	if p.TargetDate != nil {
		body["target_date"] = dateOrNull(*p.TargetDate)
	}
	if p.SortOrder != nil {
		body["sort_order"] = *p.SortOrder
	}
	return body
}

func dateOrNull(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// String returns a pointer to v for patch literals.
func String(v string) *string { return &v }

func Float(v float64) *float64 { return &v }

func IDs(v ...string) *[]string {
	out := append([]string{}, v...)
	return &out
}

// PriorityPtr returns a pointer to p for patch literals.
func PriorityPtr(p Priority) *Priority { return &p }
