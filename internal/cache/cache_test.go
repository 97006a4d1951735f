package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/store"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", FileName))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleSnapshot(key string) store.Snapshot {
	return store.Snapshot{
		Key:     key,
		GroupBy: domain.GroupByTargetDate,
		Order:   []string{"2024-04-30", "2024-05-01"},
		Groups: map[string][]string{
			"2024-04-30": {"issue_3"},
			"2024-05-01": {"issue_1", "issue_2"},
		},
		Issues: []domain.Issue{
			{ID: "issue_1", ProjectID: "p-1", Name: "First", Priority: domain.PriorityHigh, SortOrder: 1, TargetDate: "2024-05-01", LabelIDs: []string{"bug"}},
			{ID: "issue_2", ProjectID: "p-1", Name: "Second", Priority: domain.PriorityNone, SortOrder: 2, TargetDate: "2024-05-01"},
			{ID: "issue_3", ProjectID: "p-1", Name: "Third", Priority: domain.PriorityNone, SortOrder: 3, TargetDate: "2024-04-30"},
		},
		Cursors: map[string]store.Cursor{
			"2024-05-01": {NextCursor: "4:1:0", TotalResults: 5, HasMore: true, Fetched: true},
		},
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	c.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	snap := sampleSnapshot("acme/p-1/view-1/target_date")
	if err := c.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot error: %v", err)
	}
	entry, err := c.Load(ctx, snap.Key)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if diff := cmp.Diff(snap, entry.Snapshot, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if !entry.SavedAt.Equal(time.UnixMilli(1_700_000_000_000)) {
		t.Errorf("saved at = %v", entry.SavedAt)
	}
}

func TestSaveSnapshotReplaces(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	snap := sampleSnapshot("k")
	if err := c.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}
	snap.Order = []string{"2024-05-01"}
	if err := c.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}
	entry, err := c.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2024-05-01"}, entry.Snapshot.Order); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	keys, err := c.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"k"}, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	c := openTestCache(t)
	_, err := c.Load(context.Background(), "nope")
	if !appErrors.IsCode(err, appErrors.CodeNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestSaveSnapshotNeedsKey(t *testing.T) {
	c := openTestCache(t)
	if err := c.SaveSnapshot(context.Background(), store.Snapshot{}); !appErrors.IsCode(err, appErrors.CodeCacheFailure) {
		t.Fatalf("error = %v, want cache failure", err)
	}
}

func TestPrune(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	c.now = func() time.Time { return base }
	if err := c.SaveSnapshot(ctx, sampleSnapshot("old")); err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return base.Add(48 * time.Hour) }
	if err := c.SaveSnapshot(ctx, sampleSnapshot("new")); err != nil {
		t.Fatal(err)
	}

	n, err := c.Prune(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	keys, _ := c.Keys(ctx)
	if diff := cmp.Diff([]string{"new"}, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestReopenKeepsSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	ctx := context.Background()
	c, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SaveSnapshot(ctx, sampleSnapshot("k")); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if _, err := reopened.Load(ctx, "k"); err != nil {
		t.Fatalf("snapshot lost across reopen: %v", err)
	}
}

func TestStoreSnapshotRestoresFromCache(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	snap := sampleSnapshot("acme/p-1/view-1/target_date")
	if err := c.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}
	entry, err := c.Load(ctx, snap.Key)
	if err != nil {
		t.Fatal(err)
	}

	s := store.New(store.Config{Workspace: "acme", ProjectID: "p-1"})
	s.Restore(entry.Snapshot, store.Params{}, "view-1")
	if diff := cmp.Diff(snap.Groups, s.GroupedIssueIDs()); diff != "" {
		t.Errorf("restored groups (-want +got):\n%s", diff)
	}
	if n, _ := s.GroupIssueCount("2024-05-01", false); n != 5 {
		t.Errorf("restored count = %d, want 5", n)
	}
	if s.Key() != snap.Key {
		t.Errorf("key = %q, want %q", s.Key(), snap.Key)
	}
}
