package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"planar/internal/api"
	"planar/internal/cache"
	"planar/internal/config"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/store"
	"planar/internal/ui"

	"github.com/google/go-cmp/cmp"
)

type testEnv struct {
	env
	mock     *api.MockClient
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	settings []settings
	apps     []*ui.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cleanup := config.ResetForTesting(t)
	t.Cleanup(cleanup)

	te := &testEnv{
		mock:   api.NewMockClient(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	te.env = env{
		stdout: te.stdout,
		stderr: te.stderr,
		newClient: func(s settings) api.Client {
			te.settings = append(te.settings, s)
			return te.mock
		},
		runProgram: func(app *ui.App) error {
			te.apps = append(te.apps, app)
			return nil
		},
		now: func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	}
	return te
}

func (te *testEnv) run(args ...string) error {
	return run(context.Background(), args, te.env)
}

func issuePayload(id, name, state string, order float64, seq int) api.IssuePayload {
	return api.IssuePayload{ID: id, ProjectID: "p-1", Name: name, StateID: state, SortOrder: &order, SequenceID: seq}
}

func statesPayload() []api.StatePayload {
	return []api.StatePayload{
		{ID: "todo", Name: "Todo", Group: "unstarted"},
		{ID: "doing", Name: "Doing", Group: "started"},
	}
}

func projectsPayload() []api.ProjectPayload {
	order := 1000.0
	return []api.ProjectPayload{{ID: "p-1", Identifier: "CORE", Name: "Core", SortOrder: &order, IsMember: true, MemberRole: 20}}
}

// firstPage holds two of three Todo issues; the group page adds the third.
func (te *testEnv) stubBoard() {
	te.mock.ListStatesFn = func(context.Context, string, string) ([]api.StatePayload, error) {
		return statesPayload(), nil
	}
	te.mock.ListProjectsFn = func(context.Context, string) ([]api.ProjectPayload, error) {
		return projectsPayload(), nil
	}
	te.mock.ListIssuesFn = func(_ context.Context, _, _ string, q api.IssueQuery) (api.IssuePage, error) {
		if q.GroupID == "todo" {
			return api.IssuePage{
				GroupedBy: "state_id",
				Order:     []string{"todo"},
				Groups: map[string]api.GroupPage{
					"todo": {TotalResults: 3, Issues: []api.IssuePayload{issuePayload("d", "Delta", "todo", 3000, 4)}},
				},
			}, nil
		}
		return api.IssuePage{
			GroupedBy:  "state_id",
			NextCursor: "50:1:0",
			TotalCount: 4,
			Order:      []string{"todo", "doing"},
			Groups: map[string]api.GroupPage{
				"todo": {TotalResults: 3, Issues: []api.IssuePayload{
					issuePayload("a", "Alpha", "todo", 1000, 1),
					issuePayload("b", "Bravo", "todo", 2000, 2),
				}},
				"doing": {TotalResults: 1, Issues: []api.IssuePayload{
					issuePayload("c", "Charlie", "doing", 1000, 3),
				}},
			},
		}, nil
	}
}

func TestRunUnknownCommand(t *testing.T) {
	te := newTestEnv(t)
	err := te.run("frobnicate")
	if !appErrors.IsCode(err, appErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunBadFlag(t *testing.T) {
	te := newTestEnv(t)
	if err := te.run("--no-such-flag"); !appErrors.IsCode(err, appErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunHelp(t *testing.T) {
	te := newTestEnv(t)
	if err := te.run("--help"); err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	out := te.stderr.String()
	for _, want := range []string{"Usage:", "--group-by", "--offline", "publish"} {
		if !strings.Contains(out, want) {
			t.Fatalf("help missing %q:\n%s", want, out)
		}
	}
}

func TestRunVersionCommandAndFlag(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		te := newTestEnv(t)
		if err := te.run(args...); err != nil {
			t.Fatalf("%v returned error: %v", args, err)
		}
		if !strings.Contains(te.stdout.String(), "planar version") {
			t.Fatalf("%v printed %q", args, te.stdout.String())
		}
	}
}

func TestListRequiresProject(t *testing.T) {
	te := newTestEnv(t)
	err := te.run("list")
	if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if te.mock.ListIssuesCallCount != 0 {
		t.Fatal("no request should be made without a project")
	}
}

func TestListPrintsGroups(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()

	if err := te.run("-w", "acme", "-p", "p-1", "list"); err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	out := te.stdout.String()
	for _, want := range []string{"Todo (3)", "Doing (1)", "CORE-1", "Alpha", "Charlie", "1 more"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Delta") {
		t.Fatalf("first page only should not include Delta:\n%s", out)
	}
}

func TestListJSONAllPages(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()

	if err := te.run("-w", "acme", "-p", "p-1", "list", "--json", "--all"); err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	var groups []listedGroup
	if err := json.Unmarshal(te.stdout.Bytes(), &groups); err != nil {
		t.Fatalf("decode output: %v\n%s", err, te.stdout.String())
	}
	got := map[string][]string{}
	for _, g := range groups {
		for _, issue := range g.Issues {
			got[g.Title] = append(got[g.Title], issue.Key)
		}
	}
	want := map[string][]string{
		"Todo":  {"CORE-1", "CORE-2", "CORE-4"},
		"Doing": {"CORE-3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("listed keys mismatch (-want +got):\n%s", diff)
	}
	if te.mock.ListIssuesCallCount != 2 {
		t.Fatalf("expected first page plus one group page, got %d calls", te.mock.ListIssuesCallCount)
	}
	if q := te.mock.ListIssuesCallArgs[1]; q.GroupID != "todo" || q.Cursor != "50:1:0" {
		t.Fatalf("unexpected next-page query %+v", q)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()

	err := te.run("-w", "acme", "-p", "p-1", "--group-by", "priority", "--per-page", "10", "--view", "cycle:c-9", "list", "--archived")
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	q := te.mock.ListIssuesCallArgs[0]
	if q.GroupBy != "priority" || q.PerPage != 10 || !q.Archived {
		t.Fatalf("flags not applied to query: %+v", q)
	}
	if q.ViewScope != (api.ViewScope{Kind: api.ViewCycle, ID: "c-9"}) {
		t.Fatalf("view scope = %+v", q.ViewScope)
	}
	if got := config.GetString(config.KeyBoardGroupBy); got != "priority" {
		t.Fatalf("override not applied to config, got %q", got)
	}
}

func TestStateFlagFiltersQuery(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()

	if err := te.run("-w", "acme", "-p", "p-1", "--state", "Doing,todo", "--state", "doing", "list"); err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"doing", "todo"}, te.mock.ListIssuesCallArgs[0].StateIDs); diff != "" {
		t.Fatalf("state filter mismatch (-want +got):\n%s", diff)
	}
}

func TestStateFilterFromConfig(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()
	if err := config.Set(config.KeyBoardStates, []string{"Todo"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := te.run("-w", "acme", "-p", "p-1", "list"); err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"todo"}, te.mock.ListIssuesCallArgs[0].StateIDs); diff != "" {
		t.Fatalf("state filter mismatch (-want +got):\n%s", diff)
	}
}

func TestStateFlagUnknownState(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()

	err := te.run("-w", "acme", "-p", "p-1", "--state", "Shipped", "list")
	if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if te.mock.ListIssuesCallCount != 0 {
		t.Fatal("no issues should be requested for an unknown state")
	}
}

func TestTUIPassesStateFilter(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()

	if err := te.run("-w", "acme", "-p", "p-1", "--cache-path", filepath.Join(t.TempDir(), "cache.db"), "--state", "doing"); err != nil {
		t.Fatalf("tui returned error: %v", err)
	}
	if len(te.apps) != 1 {
		t.Fatalf("expected the program to run once, got %d", len(te.apps))
	}
	if diff := cmp.Diff([]string{"doing"}, te.apps[0].StateFilter()); diff != "" {
		t.Fatalf("app state filter mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSettingsValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad group-by", config.KeyBoardGroupBy, "colour"},
		{"bad layout", config.KeyCalendarLayout, "year"},
		{"bad view kind", config.KeyView, "sprint:1"},
		{"view without id", config.KeyView, "cycle:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t)
			if err := config.Set(tt.key, tt.val); err != nil {
				t.Fatalf("set: %v", err)
			}
			_, err := loadSettings(false)
			if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestParseGroupByAcceptsNone(t *testing.T) {
	for _, raw := range []string{"", "none", "NONE"} {
		g, ok := parseGroupBy(raw)
		if !ok || g != domain.GroupByNone {
			t.Fatalf("parseGroupBy(%q) = %q, %v", raw, g, ok)
		}
	}
	if g, ok := parseGroupBy("state_id"); !ok || g != domain.GroupByState {
		t.Fatalf("server spelling not accepted: %q %v", g, ok)
	}
}

func TestPublishByAnchorAndProject(t *testing.T) {
	te := newTestEnv(t)
	payload := api.PublishSettingsPayload{
		ID:                "pub-1",
		Anchor:            "abc123",
		Project:           "p-1",
		Workspace:         "ws-1",
		WorkspaceDetail:   &api.WorkspaceDetail{Slug: "acme"},
		IsCommentsEnabled: true,
		ViewProps:         &api.ViewProps{List: true, Kanban: true},
	}
	te.mock.FetchPublishSettingsFn = func(_ context.Context, anchor string) (api.PublishSettingsPayload, error) {
		return payload, nil
	}
	var gotProject string
	te.mock.FetchAnchorFromProjectFn = func(_ context.Context, _ string, projectID string) (api.PublishSettingsPayload, error) {
		gotProject = projectID
		return payload, nil
	}

	if err := te.run("publish", "abc123"); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	out := te.stdout.String()
	for _, want := range []string{"Anchor:     abc123", "Layouts:    list, kanban", "Comments:   on", "Votes:      off"} {
		if !strings.Contains(out, want) {
			t.Fatalf("publish output missing %q:\n%s", want, out)
		}
	}

	te.stdout.Reset()
	if err := te.run("-w", "acme", "-p", "p-1", "publish", "--json"); err != nil {
		t.Fatalf("publish --json returned error: %v", err)
	}
	if gotProject != "p-1" {
		t.Fatalf("expected anchor lookup for p-1, got %q", gotProject)
	}
	var view publishedView
	if err := json.Unmarshal(te.stdout.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Slug != "acme" || !view.Comments || len(view.Layouts) != 2 {
		t.Fatalf("unexpected JSON view %+v", view)
	}
}

func TestPublishUnpublishedProject(t *testing.T) {
	te := newTestEnv(t)
	te.mock.FetchAnchorFromProjectFn = func(context.Context, string, string) (api.PublishSettingsPayload, error) {
		return api.PublishSettingsPayload{}, appErrors.New(appErrors.CodeNotFound, "GET anchor: 404", nil)
	}
	err := te.run("-w", "acme", "-p", "p-1", "publish")
	if err == nil || !strings.Contains(err.Error(), "not published") {
		t.Fatalf("expected not published error, got %v", err)
	}
}

func TestAccountsTable(t *testing.T) {
	te := newTestEnv(t)
	te.mock.ListAccountsFn = func(context.Context) ([]api.AccountPayload, error) {
		return []api.AccountPayload{{Provider: "github", ProviderAccountID: "42", LastConnectedAt: "2024-04-01"}}, nil
	}
	if err := te.run("accounts"); err != nil {
		t.Fatalf("accounts returned error: %v", err)
	}
	out := te.stdout.String()
	for _, want := range []string{"PROVIDER", "github", "42"} {
		if !strings.Contains(out, want) {
			t.Fatalf("accounts output missing %q:\n%s", want, out)
		}
	}
}

func TestAccountsEmpty(t *testing.T) {
	te := newTestEnv(t)
	te.mock.ListAccountsFn = func(context.Context) ([]api.AccountPayload, error) { return nil, nil }
	if err := te.run("accounts"); err != nil {
		t.Fatalf("accounts returned error: %v", err)
	}
	if !strings.Contains(te.stdout.String(), "No linked accounts.") {
		t.Fatalf("unexpected output %q", te.stdout.String())
	}
}

// seedCache stores the acme/p-1 state board under path.
func seedCache(t *testing.T, path string) {
	t.Helper()
	c, err := cache.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()
	snap := store.Snapshot{
		Key:     store.ViewKey("acme", "p-1", "", domain.GroupByState),
		GroupBy: domain.GroupByState,
		Order:   []string{"todo"},
		Groups:  map[string][]string{"todo": {"a"}},
		Issues:  []domain.Issue{{ID: "a", ProjectID: "p-1", Name: "Alpha", StateID: "todo", SortOrder: 1000}},
	}
	if err := c.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
}

func TestCacheListAndPrune(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cache.db")
	seedCache(t, path)
	te.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	if err := te.run("--cache-path", path, "cache", "list"); err != nil {
		t.Fatalf("cache list returned error: %v", err)
	}
	if out := te.stdout.String(); !strings.Contains(out, "acme/p-1//state") || !strings.Contains(out, "1 issues") {
		t.Fatalf("unexpected cache list output:\n%s", out)
	}

	te.stdout.Reset()
	if err := te.run("--cache-path", path, "cache", "prune", "--older-than", "24h"); err != nil {
		t.Fatalf("cache prune returned error: %v", err)
	}
	if out := te.stdout.String(); !strings.Contains(out, "Pruned 1 cached view(s).") {
		t.Fatalf("unexpected prune output %q", out)
	}

	te.stdout.Reset()
	if err := te.run("--cache-path", path, "cache", "list"); err != nil {
		t.Fatalf("cache list returned error: %v", err)
	}
	if !strings.Contains(te.stdout.String(), "No cached views.") {
		t.Fatalf("expected empty cache, got %q", te.stdout.String())
	}
}

func TestCacheUnknownSubcommand(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cache.db")
	err := te.run("--cache-path", path, "cache", "vacuum")
	if !appErrors.IsCode(err, appErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTUIStartsOnline(t *testing.T) {
	te := newTestEnv(t)
	te.stubBoard()
	path := filepath.Join(t.TempDir(), "cache.db")

	if err := te.run("-w", "acme", "-p", "p-1", "--cache-path", path, "--calendar"); err != nil {
		t.Fatalf("tui returned error: %v", err)
	}
	if len(te.apps) != 1 {
		t.Fatalf("expected the program to run once, got %d", len(te.apps))
	}
	if te.mock.ListStatesCallCount != 1 || te.mock.ListProjectsCallCount != 1 {
		t.Fatalf("expected states and projects fetched, got %d/%d", te.mock.ListStatesCallCount, te.mock.ListProjectsCallCount)
	}
	if te.mock.ListIssuesCallCount != 0 {
		t.Fatal("issues are fetched by the UI, not during startup")
	}
}

func TestTUIOfflineRestoresCache(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cache.db")
	seedCache(t, path)

	if err := te.run("-w", "acme", "-p", "p-1", "--cache-path", path, "--offline"); err != nil {
		t.Fatalf("tui returned error: %v", err)
	}
	if len(te.apps) != 1 {
		t.Fatal("expected the program to run")
	}
	if te.mock.ListStatesCallCount+te.mock.ListProjectsCallCount+te.mock.ListIssuesCallCount != 0 {
		t.Fatal("offline startup must not contact the server")
	}
}

func TestTUIOfflineWithoutSnapshot(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cache.db")
	err := te.run("-w", "acme", "-p", "p-2", "--cache-path", path, "--offline")
	if !appErrors.IsCode(err, appErrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(te.apps) != 0 {
		t.Fatal("program should not start without a snapshot")
	}
}

func TestTUIFallsBackToCacheWhenUnreachable(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cache.db")
	seedCache(t, path)
	te.mock.ListStatesFn = func(context.Context, string, string) ([]api.StatePayload, error) {
		return nil, appErrors.New(appErrors.CodeNetwork, "dial tcp: connection refused", nil)
	}

	if err := te.run("-w", "acme", "-p", "p-1", "--cache-path", path); err != nil {
		t.Fatalf("tui returned error: %v", err)
	}
	if len(te.apps) != 1 {
		t.Fatal("expected the program to run from the cache")
	}
}

func TestTUIUnauthorizedDoesNotFallBack(t *testing.T) {
	te := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "cache.db")
	seedCache(t, path)
	te.mock.ListStatesFn = func(context.Context, string, string) ([]api.StatePayload, error) {
		return nil, appErrors.New(appErrors.CodeUnauthorized, "GET states: 401", nil)
	}

	err := te.run("-w", "acme", "-p", "p-1", "--cache-path", path)
	if !appErrors.IsCode(err, appErrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(te.apps) != 0 {
		t.Fatal("program should not start")
	}
}

func TestMembershipFromProjects(t *testing.T) {
	mock := api.NewMockClient()
	order := 1.0
	mock.ListProjectsFn = func(context.Context, string) ([]api.ProjectPayload, error) {
		return []api.ProjectPayload{
			{ID: "p-1", IsMember: true, MemberRole: 10, SortOrder: &order},
			{ID: "p-2", IsMember: true, MemberRole: 15, SortOrder: &order},
			{ID: "p-3", IsMember: false, MemberRole: 20, SortOrder: &order},
		}, nil
	}
	ps := store.NewProjectStore(store.ProjectConfig{Client: mock, Workspace: "acme"})
	if err := ps.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	m := membershipFrom(ps)
	if m.WorkspaceRole != domain.RoleMember {
		t.Fatalf("workspace role = %d, want member", m.WorkspaceRole)
	}
	if m.CanEditProject("p-1") || !m.CanEditProject("p-2") || m.CanEditProject("p-3") {
		t.Fatalf("unexpected project roles %+v", m.ProjectRoles)
	}
}

func TestResolveOutputFormatKeepsExplicitStyles(t *testing.T) {
	for _, f := range []string{"plain", "light", "dark"} {
		if got := resolveOutputFormat(f); got != f {
			t.Fatalf("resolveOutputFormat(%q) = %q", f, got)
		}
	}
	if got := resolveOutputFormat("rich"); got != "dark" && got != "light" {
		t.Fatalf("rich resolved to %q", got)
	}
}
