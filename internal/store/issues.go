// Package store holds the client-side view state for issue boards and the
// project sidebar. Stores are explicit objects: construct one per view,
// pass it to whatever renders it, and read snapshots after change events.
//
// All state sits behind a mutex that is never held across a network call.
// Fetches carry a generation number so responses that arrive after a newer
// fetch (or after Clear) are discarded.
package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"planar/internal/api"
	"planar/internal/debug"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
)

var logf = debug.Scope("store").Logf

// Loader distinguishes why a fetch runs.
type Loader string

const (
	// LoaderInit replaces the view's state.
	LoaderInit Loader = "init-loader"
	// LoaderMutation re-fetches after a change and merges.
	LoaderMutation Loader = "mutation"
	// LoaderPagination appends the next page.
	LoaderPagination Loader = "pagination"
)

// Params are the view's list parameters.
type Params struct {
	CanGroup     bool
	GroupedBy    domain.GroupBy
	PerPageCount int
	Before       string
	After        string
	StateIDs     []string
	OrderBy      string
	Scope        api.ViewScope
	Archived     bool
}

// groupBy returns the effective grouping.
func (p Params) groupBy() domain.GroupBy {
	if !p.CanGroup {
		return domain.GroupByNone
	}
	if _, ok := domain.ServerOption(p.GroupedBy); !ok {
		return domain.GroupByNone
	}
	return p.GroupedBy
}

// Config wires an issue store.
type Config struct {
	Client    api.IssueService
	Workspace string
	ProjectID string
	Notifier  Notifier
	// Membership gates mutations; nil allows everything.
	Membership *domain.Membership
	// Snapshots receives the view after each successful initial load.
	Snapshots Snapshotter
}

// Store is the view store for one issue collection.
type Store struct {
	client     api.IssueService
	workspace  string
	projectID  string
	notifier   Notifier
	membership *domain.Membership
	snapshots  Snapshotter
	events     broadcaster

	mu         sync.Mutex
	viewID     string
	params     Params
	issues     map[string]domain.Issue
	groups     map[string][]string
	order      []string
	cursors    map[string]Cursor
	adjust     map[string]int
	inFlight   map[string]bool
	generation uint64
	revision   uint64
	pending    map[string][]pendingEdit
	base       map[string]domain.Issue
	loaded     bool

	lockMu     sync.Mutex
	containers map[string]*sync.Mutex
}

// New creates an empty issue store.
func New(cfg Config) *Store {
	n := cfg.Notifier
	if n == nil {
		n = discardNotifier{}
	}
	s := &Store{
		client:     cfg.Client,
		workspace:  cfg.Workspace,
		projectID:  cfg.ProjectID,
		notifier:   n,
		membership: cfg.Membership,
		snapshots:  cfg.Snapshots,
		containers: map[string]*sync.Mutex{},
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.issues = map[string]domain.Issue{}
	s.groups = map[string][]string{}
	s.order = nil
	s.cursors = map[string]Cursor{}
	s.adjust = map[string]int{}
	s.inFlight = map[string]bool{}
	s.pending = map[string][]pendingEdit{}
	s.base = map[string]domain.Issue{}
	s.loaded = false
}

// Subscribe returns a channel of change events.
func (s *Store) Subscribe() <-chan Event {
	return s.events.subscribe()
}

// Workspace returns the workspace slug the store was built for.
func (s *Store) Workspace() string { return s.workspace }

// ProjectID returns the project the store lists.
func (s *Store) ProjectID() string { return s.projectID }

// GroupBy returns the grouping of the loaded view.
func (s *Store) GroupBy() domain.GroupBy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.groupBy()
}

// Params returns the parameters of the last fetch.
func (s *Store) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.params
	p.StateIDs = slices.Clone(p.StateIDs)
	return p
}

// ViewID returns the id passed to the last FetchIssues.
func (s *Store) ViewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewID
}

// Loaded reports whether an initial fetch has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// GroupedIssueIDs returns a copy of group key -> ordered issue ids.
func (s *Store) GroupedIssueIDs() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.groups))
	for k, ids := range s.groups {
		out[k] = slices.Clone(ids)
	}
	return out
}

// GroupKeys returns group keys in display order.
func (s *Store) GroupKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Issue returns a copy of the issue with id.
func (s *Store) Issue(id string) (domain.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[id]
	if !ok {
		return domain.Issue{}, false
	}
	return issue.Clone(), true
}

// Issues returns the issues of group key in display order.
func (s *Store) Issues(key string) []domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.groups[key]
	out := make([]domain.Issue, 0, len(ids))
	for _, id := range ids {
		if issue, ok := s.issues[id]; ok {
			out = append(out, issue.Clone())
		}
	}
	return out
}

// Clear drops all state. Responses to requests issued before Clear are
// discarded when they arrive.
func (s *Store) Clear() {
	s.mu.Lock()
	s.generation++
	s.resetLocked()
	s.mu.Unlock()
	s.events.publish(Event{Kind: EventCleared})
}

// canEdit reports a read-only error when the user cannot modify projectID.
func (s *Store) canEdit(projectID string) error {
	if s.membership == nil || s.membership.CanEditProject(projectID) {
		return nil
	}
	return appErrors.New(appErrors.CodeReadOnly, fmt.Sprintf("you do not have permission to edit issues in project %s", projectID), nil)
}

func (s *Store) notifyError(title string, err error) {
	s.notifier.Notify(Notification{
		Level:   LevelError,
		Title:   title,
		Message: api.UserMessage(err, err.Error()),
		Err:     err,
	})
}

// derivable reports whether group membership under g can be computed from
// an issue record alone.
func derivable(g domain.GroupBy) bool {
	switch g {
	case domain.GroupByState, domain.GroupByPriority, domain.GroupByTargetDate,
		domain.GroupByStartDate, domain.GroupByProject, domain.GroupByAssignees,
		domain.GroupByLabels, domain.GroupByNone:
		return true
	default:
		return false
	}
}

// groupsOfLocked returns the keys of every group listing id.
func (s *Store) groupsOfLocked(id string) []string {
	var keys []string
	for _, key := range s.order {
		if slices.Contains(s.groups[key], id) {
			keys = append(keys, key)
		}
	}
	return keys
}

// placeLocked stores issue and moves it from the groups in previous to the
// groups its fields now select. Groupings that cannot be derived locally
// keep the previous placement.
func (s *Store) placeLocked(issue domain.Issue, previous []string) {
	s.issues[issue.ID] = issue
	g := s.params.groupBy()
	next := previous
	if derivable(g) {
		next = issue.GroupKeys(g)
	}
	if len(next) == 0 {
		next = []string{domain.AllIssuesGroup}
	}
	for _, key := range previous {
		if !slices.Contains(next, key) {
			s.removeFromGroupLocked(key, issue.ID)
		}
	}
	for _, key := range next {
		if !slices.Contains(s.groups[key], issue.ID) {
			s.addToGroupLocked(key, issue.ID)
		}
	}
	for _, key := range next {
		s.sortGroupLocked(key)
	}
}

func (s *Store) addToGroupLocked(key, id string) {
	if _, ok := s.groups[key]; !ok {
		s.order = append(s.order, key)
	}
	s.groups[key] = append(s.groups[key], id)
	s.adjust[key]++
}

func (s *Store) removeFromGroupLocked(key, id string) {
	ids := s.groups[key]
	idx := slices.Index(ids, id)
	if idx < 0 {
		return
	}
	s.groups[key] = slices.Delete(ids, idx, idx+1)
	s.adjust[key]--
}

// dropLocked removes id from the store and returns the groups it was in.
func (s *Store) dropLocked(id string) []string {
	keys := s.groupsOfLocked(id)
	for _, key := range keys {
		s.removeFromGroupLocked(key, id)
	}
	delete(s.issues, id)
	return keys
}

// sortGroupLocked restores the invariant that a group lists its ids by
// ascending sort order, ties broken by id.
func (s *Store) sortGroupLocked(key string) {
	ids := s.groups[key]
	slices.SortStableFunc(ids, func(a, b string) int {
		if c := cmp.Compare(s.issues[a].SortOrder, s.issues[b].SortOrder); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}

// containerLock serialises drag moves into the same group.
func (s *Store) containerLock(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.containers[key]
	if !ok {
		m = &sync.Mutex{}
		s.containers[key] = m
	}
	return m
}

// Consistent reports whether every group lists its ids in sort order.
func (s *Store) Consistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ids := range s.groups {
		for i := 1; i < len(ids); i++ {
			a, b := s.issues[ids[i-1]], s.issues[ids[i]]
			if a.SortOrder > b.SortOrder || (a.SortOrder == b.SortOrder && a.ID > b.ID) {
				return false
			}
		}
	}
	return true
}
