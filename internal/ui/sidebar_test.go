package ui

import (
	"context"
	"testing"

	"planar/internal/api"
	"planar/internal/store"
)

type memoryPrefs map[string]bool

func (p memoryPrefs) Bool(key string) bool { return p[key] }

func (p memoryPrefs) SetBool(key string, value bool) error {
	p[key] = value
	return nil
}

func projectPayload(id, identifier, name string, order float64, favorite bool) api.ProjectPayload {
	return api.ProjectPayload{ID: id, Identifier: identifier, Name: name, SortOrder: &order, IsFavorite: favorite, IsMember: true, MemberRole: 15}
}

type sidebarFixture struct {
	projectMock *api.MockClient
	prefs       memoryPrefs
	copied      []string
	opened      []string
}

func newSidebarApp(t *testing.T) (*testApp, *sidebarFixture) {
	t.Helper()
	fx := &sidebarFixture{
		projectMock: api.NewMockClient(),
		prefs:       memoryPrefs{store.PrefFavoritesOpen: true, store.PrefAllProjectsOpen: true},
	}
	fx.projectMock.ListProjectsFn = func(context.Context, string) ([]api.ProjectPayload, error) {
		return []api.ProjectPayload{
			projectPayload("p-1", "CORE", "Core", 1000, true),
			projectPayload("p-2", "WEB", "Web", 2000, false),
			projectPayload("p-3", "OPS", "Ops", 3000, true),
		}, nil
	}
	app := newTestApp(t, func(c *Config) {
		c.Projects = store.NewProjectStore(store.ProjectConfig{
			Client:    fx.projectMock,
			Workspace: "acme",
			Notifier:  c.Notifier,
			Prefs:     fx.prefs,
			CopyText: func(s string) error {
				fx.copied = append(fx.copied, s)
				return nil
			},
		})
		c.OpenProject = func(id string) *store.Store {
			fx.opened = append(fx.opened, id)
			mock := api.NewMockClient()
			mock.ListIssuesFn = func(context.Context, string, string, api.IssueQuery) (api.IssuePage, error) {
				return api.IssuePage{}, nil
			}
			return store.New(store.Config{Client: mock, Workspace: "acme", ProjectID: id, Notifier: c.Notifier})
		}
	})
	app.run(t, app.fetchProjects())
	return app, fx
}

func TestSidebarListsSections(t *testing.T) {
	app, _ := newSidebarApp(t)
	entries := sidebarEntries(app.cfg.Projects)
	if len(entries) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(entries))
	}
	if !entries[0].header || entries[1].project.ID != "p-1" || entries[2].project.ID != "p-3" {
		t.Fatalf("unexpected favorites section %+v", entries[:3])
	}
	if !entries[3].header || entries[5].project.ID != "p-2" {
		t.Fatalf("unexpected projects section %+v", entries[3:])
	}
	if key := app.issueKey(app.issues.Issues("todo")[0]); key != "CORE-1" {
		t.Fatalf("expected identifier-based key, got %q", key)
	}
}

func TestSidebarToggleSectionPersists(t *testing.T) {
	app, fx := newSidebarApp(t)
	app.press("F")
	if fx.prefs[store.PrefFavoritesOpen] {
		t.Fatalf("expected favorites flag saved closed")
	}
	if n := len(sidebarEntries(app.cfg.Projects)); n != 5 {
		t.Fatalf("expected collapsed favorites to leave 5 entries, got %d", n)
	}

	app.press("tab")
	app.press("enter")
	if !fx.prefs[store.PrefFavoritesOpen] {
		t.Fatalf("expected enter on the header to reopen favorites")
	}
}

func TestSidebarReorderFavorite(t *testing.T) {
	app, fx := newSidebarApp(t)
	app.press("tab")
	if app.focus != FocusSidebar {
		t.Fatalf("expected sidebar focus, got %v", app.focus)
	}
	app.press("j")
	app.run(t, app.press("J"))

	calls := fx.projectMock.UpdateProjectViewCallArgs
	if len(calls) != 1 || calls[0].ProjectID != "p-1" || calls[0].Body.SortOrder != 13000 {
		t.Fatalf("unexpected reorder calls %+v", calls)
	}
	favorites := app.cfg.Projects.Favorites()
	if favorites[0].ID != "p-3" || favorites[1].ID != "p-1" {
		t.Fatalf("expected Ops before Core, got %+v", favorites)
	}
	if entry, _ := app.sidebar.current(app.cfg.Projects); entry.project.ID != "p-1" {
		t.Fatalf("expected cursor to follow Core, got %+v", entry)
	}
}

func TestSidebarOpenProjectSwitchesStore(t *testing.T) {
	app, fx := newSidebarApp(t)
	app.press("tab")
	for range 5 {
		app.press("j")
	}
	cmd := app.press("enter")
	if cmd == nil {
		t.Fatalf("expected a fetch for the new project")
	}
	if len(fx.opened) != 1 || fx.opened[0] != "p-2" {
		t.Fatalf("expected p-2 opened, got %v", fx.opened)
	}
	if app.issues.ProjectID() != "p-2" || app.focus != FocusBoard {
		t.Fatalf("expected board on p-2, got %q focus %v", app.issues.ProjectID(), app.focus)
	}
}

func TestSidebarCopyLink(t *testing.T) {
	app, fx := newSidebarApp(t)
	app.press("tab")
	for range 5 {
		app.press("j")
	}
	app.run(t, app.press("y"))
	if len(fx.copied) != 1 || fx.copied[0] != "acme/projects/p-2/issues" {
		t.Fatalf("unexpected clipboard writes %v", fx.copied)
	}
	n := app.drainNotifications()
	if len(n) != 1 || n[0].Title != "Link Copied!" {
		t.Fatalf("expected a copied notification, got %+v", n)
	}
	if len(app.toasts.items) != 1 || app.toasts.items[0].level != toastSuccess {
		t.Fatalf("expected a success toast, got %+v", app.toasts.items)
	}
}
