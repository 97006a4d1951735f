package ui

import (
	"context"
	"slices"
	"time"

	"planar/internal/debug"
	"planar/internal/domain"
	"planar/internal/store"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

var logf = debug.Scope("ui").Logf

// ViewMode selects the main pane.
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewCalendar
)

// FocusArea selects which pane receives navigation keys.
type FocusArea int

const (
	FocusBoard FocusArea = iota
	FocusSidebar
	FocusDetail
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayQuickAdd
	overlayConfirmDelete
)

const (
	sidebarWidth   = 28
	defaultTimeout = 15 * time.Second
)

// Config wires the application model.
type Config struct {
	Issues   *store.Store
	Projects *store.ProjectStore
	Notifier *ChanNotifier
	States   []domain.State
	// Membership gates editing keys; nil allows everything.
	Membership *domain.Membership
	// Params and ViewID describe the board view.
	Params store.Params
	ViewID string

	Mode         ViewMode
	Layout       store.CalendarLayout
	ShowWeekends bool
	Anchor       time.Time

	// Offline renders whatever the store holds and disables requests.
	Offline bool
	// SkipInitialFetch starts from the store's current contents.
	SkipInitialFetch bool
	OutputFormat     string
	Version          string
	Timeout          time.Duration

	// Save persists a setting; nil disables persistence.
	Save func(key string, value any) error
	// OpenProject returns the issue store for another project.
	OpenProject func(projectID string) *store.Store
	Now         func() time.Time
}

// Setting keys passed to Config.Save.
const (
	SettingTheme        = "theme"
	SettingLayout       = "calendar.layout"
	SettingShowWeekends = "calendar.show-weekends"
)

// App is the root bubbletea model.
type App struct {
	cfg    Config
	keys   KeyMap
	issues *store.Store
	events <-chan store.Event

	projectEvents <-chan store.Event

	width, height int
	mode          ViewMode
	focus         FocusArea
	overlay       overlayKind
	showDetail    bool
	loading       bool
	loadErr       error

	board    boardState
	calendar calendarState
	sidebar  sidebarState

	detail   viewport.Model
	input    textinput.Model
	toasts   toastQueue
	ticking  bool
	deleteID string
}

// NewApp builds the model. The issue store may already hold a restored
// snapshot.
func NewApp(cfg Config) *App {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Layout == "" {
		cfg.Layout = store.LayoutMonth
	}
	if cfg.Anchor.IsZero() {
		cfg.Anchor = cfg.Now()
	}
	input := textinput.New()
	input.Placeholder = "Issue title"
	input.CharLimit = 255

	m := &App{
		cfg:    cfg,
		keys:   DefaultKeyMap(),
		issues: cfg.Issues,
		mode:   cfg.Mode,
		detail: viewport.New(0, 0),
		input:  input,
		calendar: calendarState{
			layout:   cfg.Layout,
			weekends: cfg.ShowWeekends,
			anchor:   cfg.Anchor,
		},
		board: boardState{rows: map[string]int{}},
	}
	m.events = cfg.Issues.Subscribe()
	if cfg.Projects != nil {
		m.projectEvents = cfg.Projects.Subscribe()
	}
	m.calendar.selectDay(cfg.Anchor)
	return m
}

// Init subscribes to the stores and starts the first load.
func (m *App) Init() tea.Cmd {
	cmds := []tea.Cmd{listenForStoreEvent(m.events)}
	if m.projectEvents != nil {
		cmds = append(cmds, listenForProjectEvent(m.projectEvents))
	}
	if m.cfg.Notifier != nil {
		cmds = append(cmds, listenForNotification(m.cfg.Notifier.C()))
	}
	if m.cfg.Offline {
		cmds = append(cmds, m.info("Offline", "Showing cached issues. Changes are disabled."))
		return tea.Batch(cmds...)
	}
	if !m.cfg.SkipInitialFetch || !m.issues.Loaded() {
		cmds = append(cmds, m.fetch(store.LoaderInit))
	}
	if m.cfg.Projects != nil {
		cmds = append(cmds, m.fetchProjects())
	}
	return tea.Batch(cmds...)
}

// params returns the fetch parameters of the current view mode.
func (m *App) params() store.Params {
	if m.mode == ViewCalendar {
		p := store.CalendarParams(m.calendar.window())
		p.Scope = m.cfg.Params.Scope
		p.StateIDs = m.cfg.Params.StateIDs
		return p
	}
	return m.cfg.Params
}

func (m *App) fetch(loader store.Loader) tea.Cmd {
	if m.cfg.Offline {
		return nil
	}
	m.loading = true
	issues, params, viewID, timeout := m.issues, m.params(), m.cfg.ViewID, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fetchDoneMsg{loader: loader, err: issues.FetchIssues(ctx, loader, params, viewID)}
	}
}

func (m *App) fetchPage(group string) tea.Cmd {
	if m.cfg.Offline {
		return nil
	}
	issues, timeout := m.issues, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return pageDoneMsg{group: group, err: issues.FetchNextIssues(ctx, group)}
	}
}

func (m *App) fetchProjects() tea.Cmd {
	projects, timeout := m.cfg.Projects, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return projectsDoneMsg{err: projects.Fetch(ctx)}
	}
}

// readOnly reports whether the current project rejects edits.
func (m *App) readOnly() bool {
	return m.cfg.Membership != nil && !m.cfg.Membership.CanEditProject(m.issues.ProjectID())
}

// guardEdit returns a toast command when edits are not possible.
func (m *App) guardEdit() (tea.Cmd, bool) {
	if m.cfg.Offline {
		return m.info("Offline", "Reconnect to make changes."), false
	}
	if m.readOnly() {
		return m.info("Read only", "You can view this project but not edit it."), false
	}
	return nil, true
}

// info queues a local toast. Store failures arrive through the notifier
// instead.
func (m *App) info(title, message string) tea.Cmd {
	return m.pushToast(toast{level: toastInfo, title: title, message: message, start: m.cfg.Now()})
}

func (m *App) pushToast(t toast) tea.Cmd {
	m.toasts.push(t)
	if m.ticking {
		return nil
	}
	m.ticking = true
	return scheduleToastTick()
}

func (m *App) save(key string, value any) {
	if m.cfg.Save == nil {
		return
	}
	if err := m.cfg.Save(key, value); err != nil {
		logf("save %s: %v", key, err)
	}
}

// switchProject points the board at another project's store.
func (m *App) switchProject(projectID string) tea.Cmd {
	if m.cfg.OpenProject == nil || projectID == m.issues.ProjectID() {
		return nil
	}
	next := m.cfg.OpenProject(projectID)
	if next == nil {
		return nil
	}
	m.issues.Clear()
	m.issues = next
	m.cfg.Params.StateIDs = nil
	m.events = next.Subscribe()
	m.board = boardState{rows: map[string]int{}}
	m.calendar.card = 0
	m.focus = FocusBoard
	m.showDetail = false
	return tea.Batch(listenForStoreEvent(m.events), m.fetch(store.LoaderInit))
}

// StateFilter returns the state ids the board is filtered to.
func (m *App) StateFilter() []string {
	return slices.Clone(m.cfg.Params.StateIDs)
}

// dropStateFilter removes the most recently applied state and reloads.
func (m *App) dropStateFilter() tea.Cmd {
	ids := m.cfg.Params.StateIDs
	if len(ids) == 0 {
		return nil
	}
	if m.cfg.Offline {
		return m.info("Offline", "Reconnect to change filters.")
	}
	m.cfg.Params.StateIDs = slices.Clone(ids[:len(ids)-1])
	m.board = boardState{rows: map[string]int{}}
	m.calendar.card = 0
	return m.fetch(store.LoaderInit)
}

// stateFilterNames resolves the filtered state ids for display.
func (m *App) stateFilterNames() []string {
	names := make([]string, 0, len(m.cfg.Params.StateIDs))
	for _, id := range m.cfg.Params.StateIDs {
		if st, ok := domain.FindState(m.cfg.States, id); ok {
			names = append(names, st.Name)
			continue
		}
		names = append(names, id)
	}
	return names
}

// selectedIssue returns the issue under the cursor in the main pane.
func (m *App) selectedIssue() (domain.Issue, string, bool) {
	if m.mode == ViewCalendar {
		return m.calendar.selected(m.issues)
	}
	return m.board.selected(m.issues)
}
