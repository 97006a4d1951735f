package store

import (
	"context"
	"fmt"
	"slices"

	"planar/internal/api"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
)

// ViewCursor is the PaginationData key of the view-level cursor.
const ViewCursor = ""

// DefaultPerPage is used when Params.PerPageCount is unset.
const DefaultPerPage = 50

// Cursor is the pagination state of one group, or of the whole view.
type Cursor struct {
	NextCursor   string
	PrevCursor   string
	TotalResults int
	HasMore      bool
	Fetched      bool
}

// ErrStaleResponse is returned when a response arrives after a newer fetch
// or a Clear and is dropped.
var ErrStaleResponse = appErrors.New(appErrors.CodeStaleResponse, "response superseded by a newer request", nil)

// PaginationData returns the stored cursor for groupID. The zero Cursor
// means the group has not been fetched.
func (s *Store) PaginationData(groupID string) Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[groupID]
}

// GroupIssueCount returns the server's total for groupID adjusted by local
// inserts and removals, or only the loaded ids when loadedOnly is set. It
// reports false for a group the store does not know.
func (s *Store) GroupIssueCount(groupID string, loadedOnly bool) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if groupID == ViewCursor {
		if loadedOnly {
			return len(s.issues), s.loaded
		}
		c, ok := s.cursors[ViewCursor]
		if !ok {
			return 0, false
		}
		total := c.TotalResults
		for _, delta := range s.adjust {
			total += delta
		}
		return max(total, 0), true
	}
	ids, ok := s.groups[groupID]
	if !ok {
		return 0, false
	}
	if loadedOnly {
		return len(ids), true
	}
	total := s.cursors[groupID].TotalResults + s.adjust[groupID]
	return max(total, len(ids)), true
}

// FetchIssues requests the first page of a view. LoaderInit replaces the
// store's state; other loaders merge into it. On failure prior state is
// kept, a notification is raised and the error is returned.
func (s *Store) FetchIssues(ctx context.Context, loader Loader, params Params, viewID string) error {
	if params.PerPageCount <= 0 {
		params.PerPageCount = DefaultPerPage
	}
	params.StateIDs = slices.Clone(params.StateIDs)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.params = params
	s.viewID = viewID
	s.mu.Unlock()

	q := buildQuery(params, "", "")
	logf("fetch %s view=%s group_by=%q per_page=%d", loader, viewID, q.GroupBy, q.PerPage)
	page, err := s.client.ListIssues(ctx, s.workspace, s.projectID, q)
	if err != nil {
		if s.stale(gen) {
			return ErrStaleResponse
		}
		s.notifyError("Error loading issues", err)
		return err
	}
	converted, err := convertPage(page)
	if err != nil {
		if s.stale(gen) {
			return ErrStaleResponse
		}
		s.notifyError("Error loading issues", err)
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logf("dropping stale response for view=%s", viewID)
		return ErrStaleResponse
	}
	if loader == LoaderInit {
		s.resetLocked()
	}
	s.mergePageLocked(converted, ViewCursor, params.PerPageCount, loader == LoaderInit)
	s.loaded = true
	var snap Snapshot
	if loader == LoaderInit && s.snapshots != nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if loader == LoaderInit && s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
			logf("snapshot save failed: %v", err)
		}
	}
	s.events.publish(Event{Kind: EventLoaded})
	return nil
}

// FetchNextIssues requests the next page for groupID, or for the whole view
// when groupID is ViewCursor. No request is made when the cursor reports no
// more results or a fetch for the same group is already running.
func (s *Store) FetchNextIssues(ctx context.Context, groupID string) error {
	s.mu.Lock()
	params := s.params
	if groupID == domain.AllIssuesGroup || params.groupBy() == domain.GroupByNone {
		groupID = ViewCursor
	}
	cursor, ok := s.cursors[groupID]
	if !ok || !cursor.Fetched || !cursor.HasMore || s.inFlight[groupID] {
		s.mu.Unlock()
		return nil
	}
	s.inFlight[groupID] = true
	gen := s.generation
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, groupID)
		s.mu.Unlock()
	}()

	q := buildQuery(params, groupID, cursor.NextCursor)
	logf("fetch next group=%q cursor=%s", groupID, cursor.NextCursor)
	page, err := s.client.ListIssues(ctx, s.workspace, s.projectID, q)
	if err != nil {
		if s.stale(gen) {
			return ErrStaleResponse
		}
		s.notifyError("Error loading more issues", err)
		return err
	}
	converted, err := convertPage(page)
	if err != nil {
		if s.stale(gen) {
			return ErrStaleResponse
		}
		s.notifyError("Error loading more issues", err)
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return ErrStaleResponse
	}
	if groupID != ViewCursor && len(converted.order) == 1 && converted.order[0] == domain.AllIssuesGroup {
		converted.rename(domain.AllIssuesGroup, groupID)
	}
	s.mergePageLocked(converted, groupID, params.PerPageCount, false)
	s.mu.Unlock()

	s.events.publish(Event{Kind: EventLoaded})
	return nil
}

func (s *Store) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

type convertedGroup struct {
	issues []domain.Issue
	total  int
}

type convertedPage struct {
	page   api.IssuePage
	order  []string
	groups map[string]convertedGroup
}

func (c *convertedPage) rename(from, to string) {
	c.groups[to] = c.groups[from]
	delete(c.groups, from)
	for i, key := range c.order {
		if key == from {
			c.order[i] = to
		}
	}
}

// convertPage validates every issue of a page before any of it is applied.
func convertPage(page api.IssuePage) (convertedPage, error) {
	out := convertedPage{page: page, groups: make(map[string]convertedGroup, len(page.Groups))}
	for _, key := range page.Order {
		g := page.Groups[key]
		issues := make([]domain.Issue, 0, len(g.Issues))
		for _, payload := range g.Issues {
			issue, err := domain.NewIssueFromPayload(payload)
			if err != nil {
				return convertedPage{}, appErrors.New(appErrors.CodeDecode, fmt.Sprintf("group %s: %v", key, err), err)
			}
			issues = append(issues, issue)
		}
		out.groups[key] = convertedGroup{issues: issues, total: g.TotalResults}
		out.order = append(out.order, key)
	}
	return out, nil
}

// mergePageLocked folds a page into the store. cursorKey is the cursor the
// page advances. Sequences are extended, never replaced, except that an
// issue whose fields now select other groups leaves its old ones.
func (s *Store) mergePageLocked(page convertedPage, cursorKey string, perPage int, initial bool) {
	flat := len(page.order) == 1 && page.order[0] == domain.AllIssuesGroup
	touched := map[string]bool{}
	for _, key := range page.order {
		if _, ok := s.groups[key]; !ok {
			s.groups[key] = []string{}
			s.order = append(s.order, key)
		}
		touched[key] = true
	}
	for _, key := range page.order {
		for _, issue := range page.groups[key].issues {
			if edits := s.pending[issue.ID]; len(edits) > 0 {
				s.base[issue.ID] = issue
				issue = replay(issue, edits)
			}
			for _, k := range s.fileMergedLocked(issue, key, flat) {
				touched[k] = true
			}
		}
	}
	for key := range touched {
		s.sortGroupLocked(key)
	}

	for _, key := range page.order {
		group := page.groups[key]

		switch {
		case cursorKey == ViewCursor && !flat:
			// Each group of a grouped first page pages on its own from page 1.
			if initial || !s.cursors[key].Fetched {
				s.cursors[key] = Cursor{
					NextCursor:   pageCursor(perPage, 1),
					TotalResults: group.total,
					HasMore:      len(s.groups[key]) < group.total,
					Fetched:      true,
				}
			}
		case cursorKey == key:
			s.cursors[key] = Cursor{
				NextCursor:   page.page.NextCursor,
				PrevCursor:   page.page.PrevCursor,
				TotalResults: max(group.total, s.cursors[key].TotalResults),
				HasMore:      page.page.NextPageResults,
				Fetched:      true,
			}
		}
	}

	if cursorKey != ViewCursor {
		return
	}
	view := Cursor{
		NextCursor:   page.page.NextCursor,
		PrevCursor:   page.page.PrevCursor,
		TotalResults: max(page.page.TotalCount, page.page.TotalResults),
		HasMore:      page.page.NextPageResults,
		Fetched:      true,
	}
	if flat {
		view.TotalResults = max(view.TotalResults, page.groups[domain.AllIssuesGroup].total)
		s.cursors[domain.AllIssuesGroup] = view
	}
	s.cursors[ViewCursor] = view
}

// fileMergedLocked stores a merged issue and files it under the groups its
// fields select, leaving groups it no longer belongs to. Groupings that
// cannot be derived locally only add the issue to the server's key. Server
// totals already account for the move, so local adjustments are left alone.
// It returns the groups whose sequences changed.
func (s *Store) fileMergedLocked(issue domain.Issue, serverKey string, flat bool) []string {
	s.issues[issue.ID] = issue
	next := []string{serverKey}
	derived := false
	if g := s.params.groupBy(); !flat && g != domain.GroupByNone && derivable(g) {
		next, derived = issue.GroupKeys(g), true
	}
	var changed []string
	for _, key := range s.groupsOfLocked(issue.ID) {
		if !derived || slices.Contains(next, key) {
			continue
		}
		ids := s.groups[key]
		if idx := slices.Index(ids, issue.ID); idx >= 0 {
			s.groups[key] = slices.Delete(ids, idx, idx+1)
			changed = append(changed, key)
		}
	}
	for _, key := range next {
		if _, ok := s.groups[key]; !ok {
			s.groups[key] = []string{}
			s.order = append(s.order, key)
		}
		if !slices.Contains(s.groups[key], issue.ID) {
			s.groups[key] = append(s.groups[key], issue.ID)
			changed = append(changed, key)
		}
	}
	return changed
}

// pageCursor renders the server's "per_page:page:offset" cursor.
func pageCursor(perPage, page int) string {
	return fmt.Sprintf("%d:%d:0", perPage, page)
}

func buildQuery(p Params, groupID, cursor string) api.IssueQuery {
	q := api.IssueQuery{
		Cursor:    cursor,
		PerPage:   p.PerPageCount,
		GroupID:   groupID,
		After:     p.After,
		Before:    p.Before,
		StateIDs:  p.StateIDs,
		OrderBy:   p.OrderBy,
		Archived:  p.Archived,
		ViewScope: p.Scope,
	}
	if option, ok := domain.ServerOption(p.groupBy()); ok {
		q.GroupBy = option
	}
	if q.Cursor == "" {
		q.Cursor = pageCursor(p.PerPageCount, 0)
	}
	return q
}
