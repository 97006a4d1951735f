package ui

import (
	"context"

	"planar/internal/api"
	"planar/internal/store"
	"planar/internal/ui/theme"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and keys.
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refreshDetail()
		return m, nil

	case storeEventMsg:
		if msg.ch != m.events {
			return m, nil
		}
		m.refreshDetail()
		return m, listenForStoreEvent(m.events)

	case projectEventMsg:
		m.sidebar.current(m.cfg.Projects)
		return m, listenForProjectEvent(m.projectEvents)

	case notificationMsg:
		return m, tea.Batch(
			m.pushToast(toastFromNotification(msg.n, m.cfg.Now())),
			listenForNotification(m.cfg.Notifier.C()),
		)

	case toastTickMsg:
		if m.toasts.expire(m.cfg.Now()) {
			return m, scheduleToastTick()
		}
		m.ticking = false
		return m, nil

	case fetchDoneMsg:
		m.loading = false
		m.loadErr = msg.err
		m.refreshDetail()
		return m, nil

	case pageDoneMsg:
		return m, nil

	case projectsDoneMsg:
		if msg.err != nil {
			logf("load projects: %v", msg.err)
			return m, m.pushToast(toast{
				level:   toastError,
				title:   "Error loading projects",
				message: api.UserMessage(msg.err, msg.err.Error()),
				start:   m.cfg.Now(),
			})
		}
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			logf("%s: %v", msg.op, msg.err)
		}
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.overlay == overlayQuickAdd {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Escape, m.keys.Quit) {
			m.overlay = overlayNone
		}
		return m, nil
	case overlayQuickAdd:
		return m.handleQuickAddKey(msg)
	case overlayConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.cycleFocus()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		if m.showDetail {
			m.showDetail = false
			m.focus = FocusBoard
		}
		return m, nil
	case key.Matches(msg, m.keys.Theme):
		name := theme.Cycle()
		m.save(SettingTheme, name)
		return m, m.info("Theme", name)
	case key.Matches(msg, m.keys.Refresh):
		cmds := []tea.Cmd{m.fetch(store.LoaderMutation)}
		if m.cfg.Projects != nil && !m.cfg.Offline {
			cmds = append(cmds, m.fetchProjects())
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.ToggleView):
		return m, m.toggleMode()
	case key.Matches(msg, m.keys.Unfilter):
		return m, m.dropStateFilter()
	case key.Matches(msg, m.keys.ToggleFavorites):
		return m, m.toggleSidebarSection(sectionFavorites)
	case key.Matches(msg, m.keys.ToggleAll):
		return m, m.toggleSidebarSection(sectionAll)
	}

	switch m.focus {
	case FocusSidebar:
		return m, m.handleSidebarKey(msg)
	case FocusDetail:
		if key.Matches(msg, m.keys.Enter) {
			m.showDetail = false
			m.focus = FocusBoard
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	if m.mode == ViewCalendar {
		return m, m.handleCalendarKey(msg)
	}
	return m, m.handleBoardKey(msg)
}

func (m *App) cycleFocus() {
	order := []FocusArea{FocusBoard}
	if m.cfg.Projects != nil {
		order = append(order, FocusSidebar)
	}
	if m.showDetail {
		order = append(order, FocusDetail)
	}
	for i, f := range order {
		if f == m.focus {
			m.focus = order[(i+1)%len(order)]
			return
		}
	}
	m.focus = FocusBoard
}

func (m *App) toggleMode() tea.Cmd {
	if m.mode == ViewBoard {
		m.mode = ViewCalendar
	} else {
		m.mode = ViewBoard
	}
	m.focus = FocusBoard
	return m.fetch(store.LoaderInit)
}

func (m *App) toggleSidebarSection(section sidebarSection) tea.Cmd {
	if m.cfg.Projects == nil {
		return nil
	}
	if err := toggleSection(m.cfg.Projects, section); err != nil {
		return m.info("Preferences", "Could not save the sidebar layout.")
	}
	m.sidebar.current(m.cfg.Projects)
	return nil
}

// handleCommonIssueKey covers the keys that act on the selected issue the
// same way in both views.
func (m *App) handleCommonIssueKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		m.showDetail = !m.showDetail
		if m.showDetail {
			m.detail.GotoTop()
			m.refreshDetail()
		}
		return nil, true
	case key.Matches(msg, m.keys.QuickAdd):
		if cmd, ok := m.guardEdit(); !ok {
			return cmd, true
		}
		m.overlay = overlayQuickAdd
		m.input.SetValue("")
		return m.input.Focus(), true
	case key.Matches(msg, m.keys.Archive):
		return m.archiveSelected(), true
	case key.Matches(msg, m.keys.Delete):
		if cmd, ok := m.guardEdit(); !ok {
			return cmd, true
		}
		if issue, _, ok := m.selectedIssue(); ok {
			m.deleteID = issue.ID
			m.overlay = overlayConfirmDelete
		}
		return nil, true
	case key.Matches(msg, m.keys.Unlink):
		if cmd, ok := m.guardEdit(); !ok {
			return cmd, true
		}
		issue, _, ok := m.selectedIssue()
		if !ok {
			return nil, true
		}
		s := m.issues
		return mutate(m.cfg.Timeout, "remove from view", func(ctx context.Context) error {
			return s.RemoveIssueFromView(ctx, issue.ProjectID, issue.ID)
		}), true
	case key.Matches(msg, m.keys.LoadMore):
		_, group, _ := m.selectedIssue()
		if group == "" {
			group = store.ViewCursor
		}
		return m.fetchPage(group), true
	case key.Matches(msg, m.keys.CopyLink):
		if m.cfg.Projects == nil {
			return nil, true
		}
		ps, id := m.cfg.Projects, m.issues.ProjectID()
		return func() tea.Msg {
			return mutationDoneMsg{op: "copy link", err: ps.CopyLink(id)}
		}, true
	}
	return nil, false
}

func (m *App) archiveSelected() tea.Cmd {
	if cmd, ok := m.guardEdit(); !ok {
		return cmd
	}
	issue, _, ok := m.selectedIssue()
	if !ok {
		return nil
	}
	s := m.issues
	if m.issues.Params().Archived {
		return mutate(m.cfg.Timeout, "restore", func(ctx context.Context) error {
			return s.RestoreIssue(ctx, issue.ProjectID, issue.ID)
		})
	}
	return mutate(m.cfg.Timeout, "archive", func(ctx context.Context) error {
		return s.ArchiveIssue(ctx, issue.ProjectID, issue.ID)
	})
}

func (m *App) handleBoardKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := m.handleCommonIssueKey(msg); ok {
		return cmd
	}
	s := m.issues
	switch {
	case key.Matches(msg, m.keys.Up):
		m.board.moveRow(s, -1)
	case key.Matches(msg, m.keys.Down):
		m.board.moveRow(s, 1)
	case key.Matches(msg, m.keys.Left):
		m.board.moveCol(s, -1)
	case key.Matches(msg, m.keys.Right):
		m.board.moveCol(s, 1)
	case key.Matches(msg, m.keys.Home):
		m.board.jump(s, false)
	case key.Matches(msg, m.keys.End):
		m.board.jump(s, true)
	case key.Matches(msg, m.keys.MoveUp, m.keys.MoveDown):
		delta := -1
		if key.Matches(msg, m.keys.MoveDown) {
			delta = 1
		}
		return m.dispatchMove(func() (store.Move, bool) { return m.board.reorderMove(s, delta) })
	case key.Matches(msg, m.keys.MoveLeft, m.keys.MoveRight):
		delta := -1
		if key.Matches(msg, m.keys.MoveRight) {
			delta = 1
		}
		return m.dispatchMove(func() (store.Move, bool) { return m.board.columnMove(s, delta) })
	default:
		return nil
	}
	m.refreshDetail()
	return nil
}

func (m *App) dispatchMove(build func() (store.Move, bool)) tea.Cmd {
	if cmd, ok := m.guardEdit(); !ok {
		return cmd
	}
	move, ok := build()
	if !ok {
		return nil
	}
	s := m.issues
	return mutate(m.cfg.Timeout, "move", func(ctx context.Context) error {
		return s.MoveIssue(ctx, move)
	})
}

func (m *App) handleCalendarKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := m.handleCommonIssueKey(msg); ok {
		return cmd
	}
	c := &m.calendar
	var refetch bool
	switch {
	case key.Matches(msg, m.keys.Left):
		refetch = c.moveDay(-1)
	case key.Matches(msg, m.keys.Right):
		refetch = c.moveDay(1)
	case key.Matches(msg, m.keys.Up):
		refetch = c.moveDay(-7)
	case key.Matches(msg, m.keys.Down):
		refetch = c.moveDay(7)
	case key.Matches(msg, m.keys.NextCard):
		if n := len(m.issues.Issues(c.dayKey())); n > 0 {
			c.card = (c.card + 1) % n
		}
	case key.Matches(msg, m.keys.PrevPeriod):
		c.shiftPeriod(-1)
		refetch = true
	case key.Matches(msg, m.keys.NextPeriod):
		c.shiftPeriod(1)
		refetch = true
	case key.Matches(msg, m.keys.Layout):
		if c.layout == store.LayoutWeek {
			c.layout = store.LayoutMonth
		} else {
			c.layout = store.LayoutWeek
		}
		c.anchor = c.day
		m.save(SettingLayout, string(c.layout))
		refetch = true
	case key.Matches(msg, m.keys.Weekends):
		c.weekends = !c.weekends
		c.selectDay(c.day)
		m.save(SettingShowWeekends, c.weekends)
		refetch = true
	case key.Matches(msg, m.keys.MoveLeft):
		return m.dropOnDay(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.dropOnDay(1)
	case key.Matches(msg, m.keys.MoveUp):
		return m.dropOnDay(-7)
	case key.Matches(msg, m.keys.MoveDown):
		return m.dropOnDay(7)
	default:
		return nil
	}
	m.refreshDetail()
	if refetch {
		return m.fetch(store.LoaderInit)
	}
	return nil
}

// dropOnDay reschedules the selected issue and follows it to the new day.
func (m *App) dropOnDay(days int) tea.Cmd {
	if cmd, ok := m.guardEdit(); !ok {
		return cmd
	}
	issue, source, ok := m.calendar.selected(m.issues)
	if !ok {
		return nil
	}
	destination := m.calendar.dropTarget(days)
	s := m.issues
	cmd := mutate(m.cfg.Timeout, "reschedule", func(ctx context.Context) error {
		return s.HandleCalendarDrop(ctx, issue.ID, source, destination)
	})
	if m.calendar.moveDay(days) {
		return tea.Batch(cmd, m.fetch(store.LoaderInit))
	}
	return cmd
}

func (m *App) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	ps := m.cfg.Projects
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.move(ps, -1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.move(ps, 1)
	case key.Matches(msg, m.keys.MoveUp, m.keys.MoveDown):
		if m.cfg.Offline {
			return m.info("Offline", "Reconnect to make changes.")
		}
		delta := -1
		if key.Matches(msg, m.keys.MoveDown) {
			delta = 1
		}
		source, destination, ok := m.sidebar.reorderTarget(ps, delta)
		if !ok {
			return nil
		}
		return mutate(m.cfg.Timeout, "reorder projects", func(ctx context.Context) error {
			return ps.Reorder(ctx, source, destination, false)
		})
	case key.Matches(msg, m.keys.Enter):
		entry, ok := m.sidebar.current(ps)
		if !ok {
			return nil
		}
		if entry.header {
			return m.toggleSidebarSection(entry.section)
		}
		return m.switchProject(entry.project.ID)
	case key.Matches(msg, m.keys.CopyLink):
		entry, ok := m.sidebar.current(ps)
		if !ok || entry.header {
			return nil
		}
		id := entry.project.ID
		return func() tea.Msg {
			return mutationDoneMsg{op: "copy link", err: ps.CopyLink(id)}
		}
	}
	return nil
}

func (m *App) handleQuickAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.overlay = overlayNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		name := m.input.Value()
		m.overlay = overlayNone
		m.input.Blur()
		_, group, _ := m.selectedIssue()
		if m.mode == ViewBoard {
			if keys := m.issues.GroupKeys(); len(keys) > 0 {
				m.board.clamp(keys, m.issues)
				group = keys[m.board.col]
			}
		}
		s, projectID, timeout := m.issues, m.issues.ProjectID(), m.cfg.Timeout
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			_, err := s.QuickAddIssue(ctx, projectID, group, name)
			return mutationDoneMsg{op: "quick add", err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.overlay = overlayNone
		issue, ok := m.issues.Issue(m.deleteID)
		m.deleteID = ""
		if !ok {
			return m, nil
		}
		s := m.issues
		return m, mutate(m.cfg.Timeout, "delete", func(ctx context.Context) error {
			return s.RemoveIssue(ctx, issue.ProjectID, issue.ID)
		})
	case "n", "N", "esc", "q":
		m.overlay = overlayNone
		m.deleteID = ""
	}
	return m, nil
}
