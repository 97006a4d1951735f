package domain

import (
	"slices"

	"planar/internal/api"
)

// GroupBy is a board grouping dimension.
type GroupBy string

const (
	GroupByState      GroupBy = "state"
	GroupByStateGroup GroupBy = "state_detail.group"
	GroupByPriority   GroupBy = "priority"
	GroupByLabels     GroupBy = "labels"
	GroupByAssignees  GroupBy = "assignees"
	GroupByCreatedBy  GroupBy = "created_by"
	GroupByTargetDate GroupBy = "target_date"
	GroupByStartDate  GroupBy = "start_date"
	GroupByProject    GroupBy = "project"
	GroupByCycle      GroupBy = "cycle"
	GroupByModule     GroupBy = "module"
	GroupByNone       GroupBy = ""
)

const (
	// NoneGroup holds issues with no value for the grouping dimension.
	NoneGroup = "None"
	// AllIssuesGroup is the single group of an ungrouped view.
	AllIssuesGroup = api.UngroupedKey
)

var groupByToServer = map[GroupBy]string{
	GroupByState:      "state_id",
	GroupByStateGroup: "state__group",
	GroupByPriority:   "priority",
	GroupByLabels:     "labels__id",
	GroupByAssignees:  "assignees__id",
	GroupByCreatedBy:  "created_by",
	GroupByTargetDate: "target_date",
	GroupByStartDate:  "start_date",
	GroupByProject:    "project_id",
	GroupByCycle:      "cycle_id",
	GroupByModule:     "issue_module__module_id",
}

// ServerOption maps a grouping to the server's group_by query value.
// Unmapped groupings (including GroupByNone) report false.
func ServerOption(g GroupBy) (string, bool) {
	v, ok := groupByToServer[g]
	return v, ok
}

// ParseGroupBy accepts either the client or the server spelling.
func ParseGroupBy(raw string) (GroupBy, bool) {
	if _, ok := groupByToServer[GroupBy(raw)]; ok {
		return GroupBy(raw), true
	}
	for g, server := range groupByToServer {
		if server == raw {
			return g, true
		}
	}
	return GroupByNone, false
}

// AttributeFor builds the patch that moves issue out of group source and
// into group destination under g.
func AttributeFor(g GroupBy, issue Issue, source, destination string) (IssuePatch, error) {
	if source == destination {
		return IssuePatch{}, nil
	}
	switch g {
	case GroupByState:
		if destination == NoneGroup {
			return IssuePatch{}, invalidIssueError("an issue must have a state")
		}
		return IssuePatch{StateID: String(destination)}, nil
	case GroupByPriority:
		p, err := ParsePriority(destination)
		if err != nil {
			return IssuePatch{}, err
		}
		return IssuePatch{Priority: &p}, nil
	case GroupByTargetDate:
		return IssuePatch{TargetDate: String(valueOrEmpty(destination))}, nil
	case GroupByStartDate:
		return IssuePatch{StartDate: String(valueOrEmpty(destination))}, nil
	case GroupByAssignees:
		ids := swapMember(issue.AssigneeIDs, source, destination)
		return IssuePatch{AssigneeIDs: &ids}, nil
	case GroupByLabels:
		ids := swapMember(issue.LabelIDs, source, destination)
		return IssuePatch{LabelIDs: &ids}, nil
	default:
		return IssuePatch{}, unsupportedMoveError(g)
	}
}

func valueOrEmpty(key string) string {
	if key == NoneGroup {
		return ""
	}
	return key
}

// swapMember replaces source with destination in ids. None on either side
// means "no member": dropping into None removes source, dragging out of None
// adds destination.
func swapMember(ids []string, source, destination string) []string {
	out := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		if id == source {
			continue
		}
		out = append(out, id)
	}
	if destination != NoneGroup && !slices.Contains(out, destination) {
		out = append(out, destination)
	}
	return out
}
