package domain

import (
	"testing"

	appErrors "planar/internal/errors"

	"github.com/google/go-cmp/cmp"
)

func TestServerOption(t *testing.T) {
	cases := map[GroupBy]string{
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
	for g, want := range cases {
		got, ok := ServerOption(g)
		if !ok || got != want {
			t.Errorf("ServerOption(%q) = %q, %v; want %q, true", g, got, ok, want)
		}
	}

	for _, g := range []GroupBy{GroupByNone, GroupBy("estimate"), GroupBy("TARGET_DATE")} {
		if got, ok := ServerOption(g); ok || got != "" {
			t.Errorf("ServerOption(%q) = %q, %v; want unmapped", g, got, ok)
		}
	}
}

func TestParseGroupByAcceptsBothSpellings(t *testing.T) {
	if g, ok := ParseGroupBy("target_date"); !ok || g != GroupByTargetDate {
		t.Fatalf("ParseGroupBy(target_date) = %q, %v", g, ok)
	}
	if g, ok := ParseGroupBy("state_id"); !ok || g != GroupByState {
		t.Fatalf("ParseGroupBy(state_id) = %q, %v", g, ok)
	}
	if _, ok := ParseGroupBy("weird"); ok {
		t.Fatal("expected unknown grouping to be rejected")
	}
}

func TestAttributeForScalarDimensions(t *testing.T) {
	issue := Issue{ID: "i-1", StateID: "todo", Priority: PriorityLow, TargetDate: "2024-05-01"}

	patch, err := AttributeFor(GroupByState, issue, "todo", "doing")
	if err != nil {
		t.Fatalf("state move: %v", err)
	}
	if got := patch.Apply(issue).StateID; got != "doing" {
		t.Errorf("state = %q, want doing", got)
	}

	patch, err = AttributeFor(GroupByTargetDate, issue, "2024-05-01", "2024-05-03")
	if err != nil {
		t.Fatalf("date move: %v", err)
	}
	if got := patch.Apply(issue).TargetDate; got != "2024-05-03" {
		t.Errorf("target date = %q, want 2024-05-03", got)
	}

	patch, err = AttributeFor(GroupByTargetDate, issue, "2024-05-01", NoneGroup)
	if err != nil {
		t.Fatalf("date clear: %v", err)
	}
	if got := patch.Apply(issue).TargetDate; got != "" {
		t.Errorf("target date = %q, want cleared", got)
	}
	if body := patch.Payload(); body["target_date"] != nil {
		t.Errorf("cleared date should serialise as null, got %#v", body["target_date"])
	}

	patch, err = AttributeFor(GroupByPriority, issue, "low", "urgent")
	if err != nil {
		t.Fatalf("priority move: %v", err)
	}
	if got := patch.Apply(issue).Priority; got != PriorityUrgent {
		t.Errorf("priority = %q, want urgent", got)
	}
}

func TestAttributeForMultiValuedDimensions(t *testing.T) {
	issue := Issue{ID: "i-1", AssigneeIDs: []string{"ana", "bo"}}

	patch, err := AttributeFor(GroupByAssignees, issue, "ana", "cy")
	if err != nil {
		t.Fatalf("assignee move: %v", err)
	}
	if diff := cmp.Diff([]string{"bo", "cy"}, patch.Apply(issue).AssigneeIDs); diff != "" {
		t.Errorf("assignees mismatch (-want +got):\n%s", diff)
	}

	patch, _ = AttributeFor(GroupByAssignees, issue, "ana", NoneGroup)
	if diff := cmp.Diff([]string{"bo"}, patch.Apply(issue).AssigneeIDs); diff != "" {
		t.Errorf("assignees after None drop (-want +got):\n%s", diff)
	}

	unlabelled := Issue{ID: "i-2"}
	patch, _ = AttributeFor(GroupByLabels, unlabelled, NoneGroup, "bug")
	if diff := cmp.Diff([]string{"bug"}, patch.Apply(unlabelled).LabelIDs); diff != "" {
		t.Errorf("labels after drag out of None (-want +got):\n%s", diff)
	}
}

func TestAttributeForRejectsUnsupportedMoves(t *testing.T) {
	issue := Issue{ID: "i-1", StateID: "todo"}
	if _, err := AttributeFor(GroupByCycle, issue, "c1", "c2"); !appErrors.IsCode(err, appErrors.CodeValidation) {
		t.Fatalf("expected validation error for cycle move, got %v", err)
	}
	if _, err := AttributeFor(GroupByState, issue, "todo", NoneGroup); err == nil {
		t.Fatal("expected error moving into a None state group")
	}
	if _, err := AttributeFor(GroupByPriority, issue, "low", "sky-high"); err == nil {
		t.Fatal("expected error for unknown priority group")
	}
}
