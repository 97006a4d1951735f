package ui

import (
	"fmt"
	"strings"

	"planar/internal/api"

	"github.com/charmbracelet/lipgloss"
)

const detailWidthRatio = 3

// View renders the frame: header, body, footer, then overlays and toasts
// composed on top.
func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	if names := m.stateFilterNames(); len(names) > 0 {
		header = lipgloss.JoinVertical(lipgloss.Left, header,
			styleMuted().Render("State: "+strings.Join(names, ", ")))
	}
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 3)

	mainWidth := m.width
	var parts []string
	if m.cfg.Projects != nil {
		parts = append(parts, m.renderSidebar(bodyHeight))
		mainWidth -= sidebarWidth
	}
	detailWidth := 0
	if m.showDetail {
		detailWidth = max(mainWidth/detailWidthRatio, 30)
		mainWidth -= detailWidth
	}

	if m.mode == ViewCalendar {
		parts = append(parts, m.renderCalendar(mainWidth, bodyHeight, m.cfg.Now()))
	} else {
		parts = append(parts, m.renderBoard(mainWidth, bodyHeight))
	}
	if m.showDetail {
		parts = append(parts, m.renderDetail(detailWidth, bodyHeight))
	}
	body := lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))

	base := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	if m.overlay == overlayNone && m.toasts.empty() {
		return base
	}

	canvas := NewCanvas(m.width, m.height)
	canvas.DrawStringAt(0, 0, base)
	switch m.overlay {
	case overlayHelp:
		canvas.Center(renderHelpOverlay(m.keys), 1, 1)
	case overlayQuickAdd:
		canvas.Center(m.renderQuickAdd(), 1, 1)
	case overlayConfirmDelete:
		canvas.Center(m.renderConfirmDelete(), 1, 1)
	}
	if toasts := m.toasts.render(m.cfg.Now(), m.width); toasts != "" {
		canvas.BottomRight(toasts, 1, lipgloss.Height(footer))
	}
	return canvas.Render()
}

func (m *App) renderHeader() string {
	title := styleAppHeader().Render("PLANAR")
	var info []string
	if m.cfg.Projects != nil {
		if p, ok := m.cfg.Projects.Project(m.issues.ProjectID()); ok {
			info = append(info, p.Name)
		}
	}
	if m.mode == ViewCalendar {
		info = append(info, "Calendar ("+string(m.calendar.layout)+")")
	} else if g := m.issues.GroupBy(); g != "" {
		info = append(info, "Board by "+string(g))
	} else {
		info = append(info, "Board")
	}
	if m.issues.Params().Archived {
		info = append(info, "Archived")
	}
	total := 0
	for _, key := range m.issues.GroupKeys() {
		n, _ := m.issues.GroupIssueCount(key, false)
		total += n
	}
	info = append(info, fmt.Sprintf("%d issues", total))
	left := title + " " + styleMuted().Render(strings.Join(info, " • "))

	if m.loadErr == nil {
		return left
	}
	right := styleReadOnly().Render("⚠ " + api.UserMessage(m.loadErr, "load failed"))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *App) renderQuickAdd() string {
	_, group, _ := m.selectedIssue()
	if m.mode == ViewBoard {
		if keys := m.issues.GroupKeys(); len(keys) > 0 && m.board.col < len(keys) {
			group = groupTitle(m.issues.GroupBy(), keys[m.board.col], m.cfg.States)
		}
	}
	title := styleHelpTitle().Render("New issue")
	if group != "" {
		title += styleMuted().Render(" in " + group)
	}
	hint := styleMuted().Render("Enter to create • Esc to cancel")
	return styleOverlay().Width(50).Render(lipgloss.JoinVertical(lipgloss.Left,
		title, "", m.input.View(), "", hint))
}

func (m *App) renderConfirmDelete() string {
	issue, ok := m.issues.Issue(m.deleteID)
	if !ok {
		return ""
	}
	question := fmt.Sprintf("Delete %s %q?", m.issueKey(issue), issue.Name)
	hint := styleMuted().Render("y to delete • n to cancel")
	return styleOverlay().Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(question), "", hint))
}
