package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"planar/internal/api"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/ordering"

	"github.com/google/uuid"
)

// pendingEdit is an optimistic patch whose request has not completed.
type pendingEdit struct {
	rev   uint64
	patch domain.IssuePatch
}

func replay(issue domain.Issue, edits []pendingEdit) domain.Issue {
	for _, e := range edits {
		issue = e.patch.Apply(issue)
	}
	return issue
}

// UpdateIssue applies patch to the local record at once, then sends it.
//
// If the request fails the patch is withdrawn: the issue is rebuilt from its
// last confirmed state plus any edits still in flight, so a failed edit
// never leaves unconfirmed values behind and never clobbers a later edit.
// Exactly one error notification is raised per failure; the error is also
// returned.
func (s *Store) UpdateIssue(ctx context.Context, projectID, issueID string, patch domain.IssuePatch) error {
	if projectID == "" || issueID == "" {
		err := appErrors.New(appErrors.CodeValidation, "update needs a project and an issue id", nil)
		s.notifyError("Error updating issue", err)
		return err
	}
	if err := patch.Validate(); err != nil {
		s.notifyError("Error updating issue", err)
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	if err := s.canEdit(projectID); err != nil {
		s.notifyError("Error updating issue", err)
		return err
	}

	s.mu.Lock()
	current, ok := s.issues[issueID]
	if !ok {
		s.mu.Unlock()
		err := appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("issue %s is not loaded", issueID), nil)
		s.notifyError("Error updating issue", err)
		return err
	}
	if len(s.pending[issueID]) == 0 {
		s.base[issueID] = current.Clone()
	}
	s.revision++
	rev := s.revision
	s.pending[issueID] = append(s.pending[issueID], pendingEdit{rev: rev, patch: patch})
	s.placeLocked(patch.Apply(current), s.groupsOfLocked(issueID))
	s.mu.Unlock()
	s.events.publish(Event{Kind: EventIssueChanged, IssueID: issueID})

	payload, err := s.client.UpdateIssue(ctx, s.workspace, projectID, issueID, patch.Payload())
	if err != nil {
		logf("update %s failed, rolling back: %v", issueID, err)
		if s.settle(issueID, rev, false, payload) {
			s.events.publish(Event{Kind: EventRolledBack, IssueID: issueID})
		}
		s.notifyError("Error updating issue", err)
		return err
	}
	s.settle(issueID, rev, true, payload)
	return nil
}

// settle retires the pending edit rev. A confirmed edit folds into the
// issue's base; a failed one is dropped and the issue rebuilt. It reports
// whether the visible record changed.
func (s *Store) settle(issueID string, rev uint64, confirmed bool, payload api.IssuePayload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	edits := s.pending[issueID]
	idx := slices.IndexFunc(edits, func(e pendingEdit) bool { return e.rev == rev })
	if idx < 0 {
		// Cleared or refetched since the edit was made.
		return false
	}
	edit := edits[idx]
	edits = slices.Delete(edits, idx, idx+1)
	base := s.base[issueID]

	if confirmed {
		base = edit.patch.Apply(base)
		if payload.UpdatedAt != "" {
			base.UpdatedAt = payload.UpdatedAt
		}
	}
	if len(edits) == 0 {
		delete(s.pending, issueID)
		delete(s.base, issueID)
	} else {
		s.pending[issueID] = edits
		s.base[issueID] = base
	}

	current, ok := s.issues[issueID]
	if !ok {
		return false
	}
	if confirmed {
		current.UpdatedAt = base.UpdatedAt
		s.issues[issueID] = current
		return false
	}
	s.placeLocked(replay(base, edits), s.groupsOfLocked(issueID))
	return true
}

// Move describes a drag of one issue onto a board column.
type Move struct {
	IssueID     string
	Source      string
	Destination string
	// TargetID is the card the drop landed on; empty with AtEnd or for an
	// empty column.
	TargetID string
	Edge     ordering.Edge
	AtEnd    bool
}

// MoveIssue reorders an issue within a column or moves it to another,
// updating its sort order and, across columns, the grouped attribute.
// Moves touching the same columns run one at a time.
func (s *Store) MoveIssue(ctx context.Context, m Move) error {
	keys := []string{m.Source, m.Destination}
	slices.Sort(keys)
	keys = slices.Compact(keys)
	for _, key := range keys {
		lock := s.containerLock(key)
		lock.Lock()
		defer lock.Unlock()
	}

	s.mu.Lock()
	issue, ok := s.issues[m.IssueID]
	g := s.params.groupBy()
	var destination []ordering.Item
	for _, id := range s.groups[m.Destination] {
		destination = append(destination, ordering.Item{ID: id, SortOrder: s.issues[id].SortOrder})
	}
	s.mu.Unlock()

	if m.IssueID != "" && !ok {
		err := appErrors.New(appErrors.CodeValidation, fmt.Sprintf("issue %s is not on the board", m.IssueID), nil)
		s.notifyError("Error moving issue", err)
		return err
	}

	res, err := ordering.Compute(ordering.Placement{
		ItemID:      m.IssueID,
		Source:      m.Source,
		Destination: m.Destination,
		TargetID:    m.TargetID,
		Edge:        m.Edge,
		AtEnd:       m.AtEnd,
		Current:     issue.SortOrder,
	}, destination)
	if err != nil {
		s.notifyError("Error moving issue", err)
		return err
	}
	if res.Noop {
		return nil
	}

	patch := domain.IssuePatch{SortOrder: domain.Float(res.SortOrder)}
	if res.CrossGroup {
		attr, err := domain.AttributeFor(g, issue, m.Source, m.Destination)
		if err != nil {
			s.notifyError("Error moving issue", err)
			return err
		}
		patch = attr.Merge(patch)
	}
	return s.UpdateIssue(ctx, issue.ProjectID, issue.ID, patch)
}

// QuickAddIssue creates an issue named name at the end of group key. A
// placeholder appears immediately and is swapped for the server's record on
// success or removed on failure.
func (s *Store) QuickAddIssue(ctx context.Context, projectID, key, name string) (domain.Issue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := appErrors.New(appErrors.CodeValidation, "issue name cannot be empty", nil)
		s.notifyError("Error creating issue", err)
		return domain.Issue{}, err
	}
	if err := s.canEdit(projectID); err != nil {
		s.notifyError("Error creating issue", err)
		return domain.Issue{}, err
	}

	s.mu.Lock()
	g := s.params.groupBy()
	var column []ordering.Item
	for _, id := range s.groups[key] {
		column = append(column, ordering.Item{ID: id, SortOrder: s.issues[id].SortOrder})
	}
	draft := domain.Issue{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		WorkspaceSlug: s.workspace,
		Name:          name,
		Priority:      domain.PriorityNone,
		SortOrder:     ordering.End(column),
	}
	if key != "" && key != domain.AllIssuesGroup && key != domain.NoneGroup {
		if attr, err := domain.AttributeFor(g, draft, domain.NoneGroup, key); err == nil {
			draft = attr.Apply(draft)
		}
	}
	previous := []string{key}
	if key == "" {
		previous = nil
	}
	s.placeLocked(draft, previous)
	s.mu.Unlock()
	s.events.publish(Event{Kind: EventIssueChanged, IssueID: draft.ID})

	payload, err := s.client.CreateIssue(ctx, s.workspace, projectID, api.IssueCreate{
		Name:        draft.Name,
		StateID:     draft.StateID,
		Priority:    string(draft.Priority),
		AssigneeIDs: draft.AssigneeIDs,
		LabelIDs:    draft.LabelIDs,
		StartDate:   draft.StartDate,
		TargetDate:  draft.TargetDate,
		SortOrder:   draft.SortOrder,
	})
	var created domain.Issue
	if err == nil {
		created, err = domain.NewIssueFromPayload(payload)
		if err != nil {
			err = appErrors.New(appErrors.CodeDecode, "create issue: "+err.Error(), err)
		}
	}

	s.mu.Lock()
	placed := s.dropLocked(draft.ID)
	if err == nil {
		s.placeLocked(created, placed)
	}
	s.mu.Unlock()

	if err != nil {
		s.events.publish(Event{Kind: EventIssueRemoved, IssueID: draft.ID})
		s.notifyError("Error creating issue", err)
		return domain.Issue{}, err
	}
	s.events.publish(Event{Kind: EventIssueChanged, IssueID: created.ID})
	return created.Clone(), nil
}

// RemoveIssue deletes an issue.
func (s *Store) RemoveIssue(ctx context.Context, projectID, issueID string) error {
	return s.removeOptimistically(ctx, "Error deleting issue", projectID, issueID, func(ctx context.Context) error {
		return s.client.DeleteIssue(ctx, s.workspace, projectID, issueID)
	})
}

// ArchiveIssue archives an issue, taking it off the board.
func (s *Store) ArchiveIssue(ctx context.Context, projectID, issueID string) error {
	return s.removeOptimistically(ctx, "Error archiving issue", projectID, issueID, func(ctx context.Context) error {
		_, err := s.client.ArchiveIssue(ctx, s.workspace, projectID, issueID)
		return err
	})
}

// RestoreIssue un-archives an issue, taking it off the archive view.
func (s *Store) RestoreIssue(ctx context.Context, projectID, issueID string) error {
	return s.removeOptimistically(ctx, "Error restoring issue", projectID, issueID, func(ctx context.Context) error {
		return s.client.RestoreIssue(ctx, s.workspace, projectID, issueID)
	})
}

// RemoveIssueFromView unlinks an issue from the cycle or module the view
// lists.
func (s *Store) RemoveIssueFromView(ctx context.Context, projectID, issueID string) error {
	scope := s.Params().Scope
	if err := linkable(scope); err != nil {
		s.notifyError("Error removing issue", err)
		return err
	}
	return s.removeOptimistically(ctx, "Error removing issue", projectID, issueID, func(ctx context.Context) error {
		return s.client.RemoveIssueFromView(ctx, s.workspace, projectID, scope, issueID)
	})
}

// AddIssuesToView links issues to the view's cycle or module and merges
// the refreshed list.
func (s *Store) AddIssuesToView(ctx context.Context, projectID string, issueIDs []string) error {
	params := s.Params()
	err := linkable(params.Scope)
	if err == nil && len(issueIDs) == 0 {
		err = appErrors.New(appErrors.CodeValidation, "no issues selected", nil)
	}
	if err == nil {
		err = s.canEdit(projectID)
	}
	if err != nil {
		s.notifyError("Error adding issues", err)
		return err
	}
	if err := s.client.AddIssuesToView(ctx, s.workspace, projectID, params.Scope, issueIDs); err != nil {
		s.notifyError("Error adding issues", err)
		return err
	}
	err = s.FetchIssues(ctx, LoaderMutation, params, s.ViewID())
	if errors.Is(err, ErrStaleResponse) {
		return nil
	}
	return err
}

func linkable(scope api.ViewScope) error {
	if (scope.Kind == api.ViewCycle || scope.Kind == api.ViewModule) && scope.ID != "" {
		return nil
	}
	return appErrors.New(appErrors.CodeValidation, "this view is not a cycle or module", nil)
}

// removeOptimistically drops an issue from the view, runs call, and puts
// the issue back where it was if call fails.
func (s *Store) removeOptimistically(ctx context.Context, title, projectID, issueID string, call func(context.Context) error) error {
	if projectID == "" || issueID == "" {
		err := appErrors.New(appErrors.CodeValidation, "missing project or issue id", nil)
		s.notifyError(title, err)
		return err
	}
	if err := s.canEdit(projectID); err != nil {
		s.notifyError(title, err)
		return err
	}

	s.mu.Lock()
	issue, ok := s.issues[issueID]
	var groups []string
	if ok {
		groups = s.dropLocked(issueID)
	}
	gen := s.generation
	s.mu.Unlock()
	if ok {
		s.events.publish(Event{Kind: EventIssueRemoved, IssueID: issueID})
	}

	if err := call(ctx); err != nil {
		restored := false
		s.mu.Lock()
		if _, back := s.issues[issueID]; ok && !back && gen == s.generation {
			s.issues[issueID] = issue
			for _, key := range groups {
				s.addToGroupLocked(key, issueID)
				s.sortGroupLocked(key)
			}
			restored = true
		}
		s.mu.Unlock()
		if restored {
			s.events.publish(Event{Kind: EventRolledBack, IssueID: issueID})
		}
		s.notifyError(title, err)
		return err
	}
	s.mu.Lock()
	delete(s.pending, issueID)
	delete(s.base, issueID)
	s.mu.Unlock()
	return nil
}
