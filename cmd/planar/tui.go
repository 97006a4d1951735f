package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planar/internal/api"
	"planar/internal/cache"
	"planar/internal/config"
	"planar/internal/debug"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/prefs"
	"planar/internal/store"
	"planar/internal/ui"
	"planar/internal/ui/theme"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
)

const spinnerDelay = 300 * time.Millisecond

var logf = debug.Scope("cmd").Logf

func runProgram(app *ui.App) error {
	prog := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

// session holds what the terminal UI needs after startup.
type session struct {
	states     []domain.State
	projects   *store.ProjectStore
	issues     *store.Store
	membership *domain.Membership
	cache      *cache.Cache
	offline    bool
	restored   bool
	notice     string
}

func runTUI(ctx context.Context, e env, s settings) error {
	if s.theme != "" && !theme.Set(s.theme) {
		logf("unknown theme %q, keeping %s", s.theme, theme.Current().Name)
	}

	client := e.newClient(s)
	notifier := ui.NewChanNotifier()
	spinner := newStartupSpinner(e.stderr, spinnerDelay)
	sess, err := startSession(ctx, client, s, notifier, spinner)
	spinner.Stop()
	if err != nil {
		return err
	}
	defer sess.close()

	if len(sess.states) > 0 {
		if s.states, err = resolveStateFilter(s.states, sess.states); err != nil {
			return err
		}
	}

	if sess.notice != "" {
		notifier.Notify(store.Notification{Level: store.LevelInfo, Title: "Offline", Message: sess.notice})
	}

	newIssueStore := func(projectID string) *store.Store {
		cfg := store.Config{
			Client:     client,
			Workspace:  s.workspace,
			ProjectID:  projectID,
			Notifier:   notifier,
			Membership: sess.membership,
		}
		if sess.cache != nil {
			cfg.Snapshots = sess.cache
		}
		return store.New(cfg)
	}

	issues := sess.issues
	if issues == nil {
		issues = newIssueStore(s.project)
	}

	mode := ui.ViewBoard
	if s.calendar {
		mode = ui.ViewCalendar
	}
	app := ui.NewApp(ui.Config{
		Issues:           issues,
		Projects:         sess.projects,
		Notifier:         notifier,
		States:           sess.states,
		Membership:       sess.membership,
		Params:           s.boardParams(),
		ViewID:           s.view,
		Mode:             mode,
		Layout:           s.layout,
		ShowWeekends:     s.weekends,
		Anchor:           e.now(),
		Offline:          sess.offline,
		SkipInitialFetch: sess.restored,
		OutputFormat:     resolveOutputFormat(s.outputFormat),
		Version:          Version,
		Timeout:          s.timeout,
		Save:             config.Save,
		OpenProject: func(projectID string) *store.Store {
			if sess.offline {
				return nil
			}
			return newIssueStore(projectID)
		},
		Now: e.now,
	})
	return e.runProgram(app)
}

// startSession loads states, projects and the cache, falling back to the
// cached view when the server cannot be reached.
func startSession(ctx context.Context, client api.Client, s settings, notifier store.Notifier, spinner *startupSpinner) (*session, error) {
	sess := &session{offline: s.offline}

	spinner.Stage(stageCache, s.cachePath)
	sess.cache = openCache(ctx, s.cachePath)

	spinner.Stage(stagePrefs, "")
	projectCfg := store.ProjectConfig{
		Workspace: s.workspace,
		Notifier:  notifier,
		CopyText:  clipboard.WriteAll,
	}
	if p := openPrefs(); p != nil {
		projectCfg.Prefs = p
	}

	projectCfg.Client = client

	if !sess.offline {
		spinner.Stage(stageConnecting, s.baseURL)
		states, err := fetchStates(ctx, client, s)
		if err == nil {
			sess.states = states
			spinner.Stage(stageProjects, s.workspace)
			sess.projects = store.NewProjectStore(projectCfg)
			err = sess.projects.Fetch(ctx)
		}
		if err != nil {
			if !canFallBack(err) || sess.cache == nil {
				sess.close()
				return nil, err
			}
			logf("startup fetch failed, trying cache: %v", err)
			sess.offline = true
			sess.notice = api.UserMessage(err, "Server unreachable") + "; showing cached view"
		}
	}

	if sess.projects == nil {
		sess.projects = store.NewProjectStore(projectCfg)
	} else {
		sess.membership = membershipFrom(sess.projects)
	}

	if sess.offline {
		spinner.Stage(stageRestoring, "")
		issues, err := restoreView(ctx, sess.cache, s, client)
		if err != nil {
			sess.close()
			return nil, err
		}
		sess.issues = issues
		sess.restored = true
	}

	spinner.Stage(stageReady, "")
	return sess, nil
}

func (sess *session) close() {
	if sess.cache != nil {
		_ = sess.cache.Close()
		sess.cache = nil
	}
}

// canFallBack reports whether a startup failure may be covered by the cache.
func canFallBack(err error) bool {
	switch appErrors.CodeOf(err) {
	case appErrors.CodeNetwork:
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func fetchStates(ctx context.Context, client api.ProjectService, s settings) ([]domain.State, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	payloads, err := client.ListStates(reqCtx, s.workspace, s.project)
	if err != nil {
		return nil, err
	}
	states := make([]domain.State, 0, len(payloads))
	for _, p := range payloads {
		states = append(states, domain.NewStateFromPayload(p))
	}
	return states, nil
}

// membershipFrom derives roles from the joined projects. The workspace role
// is the highest project role since the project list carries no workspace
// role of its own.
func membershipFrom(ps *store.ProjectStore) *domain.Membership {
	m := &domain.Membership{ProjectRoles: map[string]domain.Role{}}
	for _, p := range ps.Joined() {
		m.ProjectRoles[p.ID] = p.Role
		if p.Role > m.WorkspaceRole {
			m.WorkspaceRole = p.Role
		}
	}
	return m
}

func openCache(ctx context.Context, path string) *cache.Cache {
	if path == "" {
		var err error
		path, err = cache.DefaultPath()
		if err != nil {
			logf("cache path: %v", err)
			return nil
		}
	}
	c, err := cache.Open(ctx, path)
	if err != nil {
		logf("open cache %s: %v", path, err)
		return nil
	}
	return c
}

func openPrefs() *prefs.Store {
	path, err := prefs.DefaultPath()
	if err != nil {
		logf("prefs path: %v", err)
		return nil
	}
	p, err := prefs.Open(path)
	if err != nil {
		logf("open prefs %s: %v", path, err)
		return nil
	}
	return p
}

// restoreView loads the cached board for the configured view into a store
// that never reaches the server.
func restoreView(ctx context.Context, c *cache.Cache, s settings, client api.IssueService) (*store.Store, error) {
	if c == nil {
		return nil, appErrors.New(appErrors.CodeCacheFailure, "offline mode needs a snapshot cache", nil)
	}
	params := s.boardParams()
	entry, err := c.Load(ctx, store.ViewKey(s.workspace, s.project, s.view, params.GroupedBy))
	if err != nil {
		if appErrors.IsCode(err, appErrors.CodeNotFound) {
			return nil, appErrors.New(appErrors.CodeNotFound, "no cached view for this project; run planar once online first", err)
		}
		return nil, err
	}
	logf("restored %s saved %s", entry.Snapshot.Key, entry.SavedAt.Format(time.RFC3339))
	issues := store.New(store.Config{
		Client:    client,
		Workspace: s.workspace,
		ProjectID: s.project,
	})
	issues.Restore(entry.Snapshot, params, s.view)
	return issues, nil
}

// resolveOutputFormat picks a glamour style for "rich" from the terminal
// background.
func resolveOutputFormat(format string) string {
	if format != "" && format != "rich" {
		return format
	}
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
