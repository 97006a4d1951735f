package ui

import (
	"strings"

	"planar/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// detailContent renders the issue's fields and markdown description.
func (m *App) detailContent(issue domain.Issue, width int) string {
	field := func(k, v string) string {
		if v == "" {
			v = "—"
		}
		return lipgloss.JoinHorizontal(lipgloss.Left,
			styleMuted().Width(10).Render(k),
			baseStyle().Render(v))
	}

	state := issue.StateID
	if st, ok := domain.FindState(m.cfg.States, issue.StateID); ok {
		state = st.Name
	}
	title := styleIssueKey().Render(m.issueKey(issue)) + " " +
		lipgloss.NewStyle().Bold(true).Render(issue.Name)

	rows := []string{
		lipgloss.NewStyle().Width(width).Render(title),
		"",
		field("State", state),
		field("Priority", stylePriority(issue.Priority).Render(string(issue.Priority))),
		field("Start", issue.StartDate),
		field("Target", issue.TargetDate),
		field("Labels", strings.Join(issue.LabelIDs, ", ")),
		field("Assignees", strings.Join(issue.AssigneeIDs, ", ")),
	}
	if issue.IsArchived() {
		rows = append(rows, field("Archived", issue.ArchivedAt))
	}

	body := strings.TrimSpace(issue.Description)
	if body != "" {
		render := buildMarkdownRenderer(m.cfg.OutputFormat, width)
		rows = append(rows, "", render(body))
	}
	return strings.Join(rows, "\n")
}

// refreshDetail loads the selected issue into the detail viewport.
func (m *App) refreshDetail() {
	if !m.showDetail {
		return
	}
	issue, _, ok := m.selectedIssue()
	if !ok {
		m.detail.SetContent(styleMuted().Render("No issue selected"))
		return
	}
	m.detail.SetContent(m.detailContent(issue, max(m.detail.Width-2, 10)))
}

func (m *App) renderDetail(width, height int) string {
	if m.detail.Width != width-2 || m.detail.Height != height-2 {
		m.detail.Width = width - 2
		m.detail.Height = height - 2
		m.refreshDetail()
	}
	pane := stylePane()
	if m.focus == FocusDetail {
		pane = stylePaneFocused()
	}
	return pane.Width(width - 2).Height(height - 2).Render(m.detail.View())
}
