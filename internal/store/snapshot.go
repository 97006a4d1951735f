package store

import (
	"context"
	"maps"
	"slices"
	"strings"

	"planar/internal/domain"
)

// Snapshot is a copy of a loaded view, enough to render it without the
// network.
type Snapshot struct {
	Key     string
	GroupBy domain.GroupBy
	Order   []string
	Groups  map[string][]string
	Issues  []domain.Issue
	Cursors map[string]Cursor
}

// Snapshotter persists view snapshots.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// ViewKey identifies a view across runs.
func ViewKey(workspace, projectID, viewID string, g domain.GroupBy) string {
	return strings.Join([]string{workspace, projectID, viewID, string(g)}, "/")
}

// Key returns the snapshot key of the loaded view.
func (s *Store) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewKey(s.workspace, s.projectID, s.viewID, s.params.groupBy())
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Key:     ViewKey(s.workspace, s.projectID, s.viewID, s.params.groupBy()),
		GroupBy: s.params.groupBy(),
		Order:   slices.Clone(s.order),
		Groups:  make(map[string][]string, len(s.groups)),
		Issues:  make([]domain.Issue, 0, len(s.issues)),
		Cursors: maps.Clone(s.cursors),
	}
	for k, ids := range s.groups {
		snap.Groups[k] = slices.Clone(ids)
	}
	for _, key := range slices.Sorted(maps.Keys(s.issues)) {
		snap.Issues = append(snap.Issues, s.issues[key].Clone())
	}
	return snap
}

// Restore replaces the store's state with snap. Cursors are kept for
// display counts but marked exhausted so nothing pages against a server.
func (s *Store) Restore(snap Snapshot, params Params, viewID string) {
	s.mu.Lock()
	s.generation++
	s.resetLocked()
	s.params = params
	s.params.GroupedBy = snap.GroupBy
	s.params.CanGroup = snap.GroupBy != domain.GroupByNone
	s.viewID = viewID
	for _, issue := range snap.Issues {
		s.issues[issue.ID] = issue.Clone()
	}
	for _, key := range snap.Order {
		ids := slices.DeleteFunc(slices.Clone(snap.Groups[key]), func(id string) bool {
			_, ok := s.issues[id]
			return !ok
		})
		s.groups[key] = ids
		s.order = append(s.order, key)
		s.sortGroupLocked(key)
	}
	for key, c := range snap.Cursors {
		c.HasMore = false
		s.cursors[key] = c
	}
	s.loaded = true
	s.mu.Unlock()
	s.events.publish(Event{Kind: EventLoaded})
}
