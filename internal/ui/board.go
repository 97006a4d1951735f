package ui

import (
	"fmt"
	"strings"

	"planar/internal/domain"
	"planar/internal/ordering"
	"planar/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const minColumnWidth = 24

// boardState is the cursor over the board: a column index and a row per
// column so each column remembers its position.
type boardState struct {
	col  int
	rows map[string]int
}

func (b *boardState) clamp(keys []string, s *store.Store) {
	if len(keys) == 0 {
		b.col = 0
		return
	}
	b.col = min(max(b.col, 0), len(keys)-1)
	key := keys[b.col]
	n := len(s.Issues(key))
	b.rows[key] = min(max(b.rows[key], 0), max(n-1, 0))
}

func (b *boardState) selected(s *store.Store) (domain.Issue, string, bool) {
	keys := s.GroupKeys()
	b.clamp(keys, s)
	if len(keys) == 0 {
		return domain.Issue{}, "", false
	}
	key := keys[b.col]
	issues := s.Issues(key)
	row := b.rows[key]
	if row >= len(issues) {
		return domain.Issue{}, key, false
	}
	return issues[row], key, true
}

func (b *boardState) moveRow(s *store.Store, delta int) {
	keys := s.GroupKeys()
	if len(keys) == 0 {
		return
	}
	b.clamp(keys, s)
	b.rows[keys[b.col]] += delta
	b.clamp(keys, s)
}

func (b *boardState) moveCol(s *store.Store, delta int) {
	keys := s.GroupKeys()
	b.col += delta
	b.clamp(keys, s)
}

func (b *boardState) jump(s *store.Store, last bool) {
	keys := s.GroupKeys()
	if len(keys) == 0 {
		return
	}
	b.clamp(keys, s)
	key := keys[b.col]
	if last {
		b.rows[key] = len(s.Issues(key)) - 1
	} else {
		b.rows[key] = 0
	}
	b.clamp(keys, s)
}

// reorderMove builds the move that shifts the selected card one place up
// or down within its column.
func (b *boardState) reorderMove(s *store.Store, delta int) (store.Move, bool) {
	issue, key, ok := b.selected(s)
	if !ok {
		return store.Move{}, false
	}
	issues := s.Issues(key)
	row := b.rows[key]
	target := row + delta
	if target < 0 || target >= len(issues) {
		return store.Move{}, false
	}
	edge := ordering.EdgeTop
	if delta > 0 {
		edge = ordering.EdgeBottom
	}
	b.rows[key] = target
	return store.Move{
		IssueID:     issue.ID,
		Source:      key,
		Destination: key,
		TargetID:    issues[target].ID,
		Edge:        edge,
	}, true
}

// columnMove builds the move that sends the selected card to the end of
// the neighbouring column.
func (b *boardState) columnMove(s *store.Store, delta int) (store.Move, bool) {
	issue, key, ok := b.selected(s)
	if !ok {
		return store.Move{}, false
	}
	keys := s.GroupKeys()
	next := b.col + delta
	if next < 0 || next >= len(keys) {
		return store.Move{}, false
	}
	destination := keys[next]
	b.col = next
	b.rows[destination] = len(s.Issues(destination))
	return store.Move{
		IssueID:     issue.ID,
		Source:      key,
		Destination: destination,
		AtEnd:       true,
	}, true
}

// groupTitle is the column heading for a group key.
func groupTitle(g domain.GroupBy, key string, states []domain.State) string {
	switch {
	case key == "" || key == domain.NoneGroup:
		return "None"
	case key == domain.AllIssuesGroup:
		return "All issues"
	case g == domain.GroupByState:
		if st, ok := domain.FindState(states, key); ok {
			return st.Name
		}
	case g == domain.GroupByPriority, g == domain.GroupByStateGroup:
		return strings.ToUpper(key[:1]) + key[1:]
	}
	return key
}

func (m *App) issueKey(issue domain.Issue) string {
	if m.cfg.Projects != nil {
		if p, ok := m.cfg.Projects.Project(issue.ProjectID); ok && p.Identifier != "" {
			return fmt.Sprintf("%s-%d", p.Identifier, issue.SequenceID)
		}
	}
	if issue.SequenceID == 0 {
		return "new"
	}
	return fmt.Sprintf("#%d", issue.SequenceID)
}

func (m *App) renderCard(issue domain.Issue, width int, selected bool) string {
	icon := stylePriority(issue.Priority).Render(priorityIcon(issue.Priority))
	key := styleIssueKey().Render(m.issueKey(issue))
	line := icon + " " + key + " " + baseStyle().Render(issue.Name)
	line = ansi.Truncate(line, width, "…")
	if selected {
		return styleSelected().Width(width).Render(ansi.Strip(line))
	}
	return line
}

// renderBoard draws the visible columns into width x height.
func (m *App) renderBoard(width, height int) string {
	s := m.issues
	keys := s.GroupKeys()
	if len(keys) == 0 {
		msg := "No issues"
		if m.loading {
			msg = "Loading issues…"
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styleMuted().Render(msg))
	}
	m.board.clamp(keys, s)

	visible := max(width/minColumnWidth, 1)
	visible = min(visible, len(keys))
	first := 0
	if m.board.col >= visible {
		first = m.board.col - visible + 1
	}
	colWidth := width/visible - 2
	g := s.GroupBy()

	var cols []string
	for i := first; i < first+visible && i < len(keys); i++ {
		key := keys[i]
		focused := m.focus == FocusBoard && i == m.board.col
		cols = append(cols, m.renderColumn(g, key, colWidth, height-2, focused))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m *App) renderColumn(g domain.GroupBy, key string, width, height int, focused bool) string {
	s := m.issues
	issues := s.Issues(key)
	count, _ := s.GroupIssueCount(key, false)
	title := styleColumnHeader().Render(ansi.Truncate(groupTitle(g, key, m.cfg.States), width-6, "…"))
	header := title + styleMuted().Render(fmt.Sprintf(" %d", count))

	row := m.board.rows[key]
	capacity := max(height-2, 1)
	start := 0
	if row >= capacity {
		start = row - capacity + 1
	}
	lines := []string{header, ""}
	for i := start; i < len(issues) && len(lines) < height; i++ {
		lines = append(lines, m.renderCard(issues[i], width, focused && i == row))
	}
	if s.PaginationData(key).HasMore && len(lines) < height {
		lines = append(lines, styleMuted().Render(fmt.Sprintf("… %d more (m)", max(count-len(issues), 0))))
	}

	pane := stylePane()
	if focused {
		pane = stylePaneFocused()
	}
	return pane.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
