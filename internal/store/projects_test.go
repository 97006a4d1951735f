package store

import (
	"context"
	"errors"
	"testing"

	"planar/internal/api"
	"planar/internal/domain"
	appErrors "planar/internal/errors"

	"github.com/google/go-cmp/cmp"
)

type memoryPrefs map[string]bool

func (m memoryPrefs) Bool(key string) bool { return m[key] }

func (m memoryPrefs) SetBool(key string, value bool) error {
	m[key] = value
	return nil
}

func projectPayload(id string, order float64, favorite bool) api.ProjectPayload {
	return api.ProjectPayload{ID: id, Name: id, SortOrder: &order, IsFavorite: favorite, IsMember: true, MemberRole: int(domain.RoleMember)}
}

func newProjectStore(t *testing.T, mock *api.MockClient, opts ...func(*ProjectConfig)) (*ProjectStore, *Recorder) {
	t.Helper()
	mock.ListProjectsFn = func(context.Context, string) ([]api.ProjectPayload, error) {
		return []api.ProjectPayload{
			projectPayload("c", 3000, false),
			projectPayload("a", 1000, true),
			projectPayload("b", 2000, true),
			{ID: "outsider", Name: "outsider"},
		}, nil
	}
	rec := &Recorder{}
	cfg := ProjectConfig{
		Client:     mock,
		Workspace:  "acme",
		Notifier:   rec,
		Membership: &domain.Membership{WorkspaceRole: domain.RoleMember},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ps := NewProjectStore(cfg)
	if err := ps.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	return ps, rec
}

func projectIDs(projects []domain.Project) []string {
	var ids []string
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestProjectListsSortedAndFiltered(t *testing.T) {
	ps, _ := newProjectStore(t, api.NewMockClient())
	if diff := cmp.Diff([]string{"a", "b", "c"}, projectIDs(ps.Joined())); diff != "" {
		t.Errorf("joined (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, projectIDs(ps.Favorites())); diff != "" {
		t.Errorf("favorites (-want +got):\n%s", diff)
	}
}

func TestReorderProjects(t *testing.T) {
	mock := api.NewMockClient()
	ps, rec := newProjectStore(t, mock)

	if err := ps.Reorder(context.Background(), "c", "a", false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, projectIDs(ps.Joined())); diff != "" {
		t.Errorf("after reorder (-want +got):\n%s", diff)
	}
	want := []api.ProjectViewCallArg{{ProjectID: "c", Body: api.ProjectViewUpdate{SortOrder: 1000 - 10000}}}
	if diff := cmp.Diff(want, mock.UpdateProjectViewCallArgs); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}

	if err := ps.Reorder(context.Background(), "c", "b", true); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, projectIDs(ps.Joined())); diff != "" {
		t.Errorf("after drop at end (-want +got):\n%s", diff)
	}
	if len(rec.Notifications()) != 0 {
		t.Errorf("unexpected notifications: %+v", rec.Notifications())
	}
}

func TestReorderProjectsNoops(t *testing.T) {
	mock := api.NewMockClient()
	ps, _ := newProjectStore(t, mock)
	ctx := context.Background()
	for _, ids := range [][2]string{{"", "a"}, {"a", ""}, {"a", "a"}, {"ghost", "a"}} {
		if err := ps.Reorder(ctx, ids[0], ids[1], false); err != nil {
			t.Errorf("%v: %v", ids, err)
		}
	}
	if mock.Calls().ProjectView != 0 {
		t.Errorf("no-op reorders sent %d requests", mock.Calls().ProjectView)
	}
}

func TestReorderProjectsFailureRollsBack(t *testing.T) {
	mock := api.NewMockClient()
	mock.UpdateProjectViewFn = func(context.Context, string, string, api.ProjectViewUpdate) error {
		return errors.New("boom")
	}
	ps, rec := newProjectStore(t, mock)

	if err := ps.Reorder(context.Background(), "c", "a", false); err == nil {
		t.Fatal("expected error")
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, projectIDs(ps.Joined())); diff != "" {
		t.Errorf("order not restored (-want +got):\n%s", diff)
	}
	notes := rec.Notifications()
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	if notes[0].Title != "Error!" || notes[0].Message != "Something went wrong. Please try again." {
		t.Errorf("notification = %+v", notes[0])
	}
}

func TestReorderProjectsNeedsMember(t *testing.T) {
	mock := api.NewMockClient()
	ps, rec := newProjectStore(t, mock, func(c *ProjectConfig) {
		c.Membership = &domain.Membership{WorkspaceRole: domain.RoleGuest}
	})
	err := ps.Reorder(context.Background(), "c", "a", false)
	if !appErrors.IsCode(err, appErrors.CodeReadOnly) {
		t.Fatalf("error = %v, want read-only", err)
	}
	if mock.Calls().ProjectView != 0 || rec.Errors() != 1 {
		t.Errorf("requests = %d notifications = %d", mock.Calls().ProjectView, rec.Errors())
	}
}

func TestSidebarSectionPreferences(t *testing.T) {
	prefs := memoryPrefs{PrefFavoritesOpen: true}
	ps, _ := newProjectStore(t, api.NewMockClient(), func(c *ProjectConfig) { c.Prefs = prefs })

	if !ps.FavoritesOpen() {
		t.Error("favorites should start open from stored flag")
	}
	if ps.AllProjectsOpen() {
		t.Error("all projects should default to closed")
	}
	if err := ps.SetAllProjectsOpen(true); err != nil {
		t.Fatal(err)
	}
	if err := ps.SetFavoritesOpen(false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(memoryPrefs{PrefFavoritesOpen: false, PrefAllProjectsOpen: true}, prefs); diff != "" {
		t.Errorf("persisted prefs (-want +got):\n%s", diff)
	}
}

func TestCopyLink(t *testing.T) {
	var copied string
	ps, rec := newProjectStore(t, api.NewMockClient(), func(c *ProjectConfig) {
		c.CopyText = func(s string) error {
			copied = s
			return nil
		}
	})
	if err := ps.CopyLink("b"); err != nil {
		t.Fatal(err)
	}
	if copied != "acme/projects/b/issues" {
		t.Errorf("copied %q", copied)
	}
	notes := rec.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelSuccess || notes[0].Title != "Link Copied!" {
		t.Errorf("notifications = %+v", notes)
	}
}
