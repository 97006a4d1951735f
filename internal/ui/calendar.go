package ui

import (
	"fmt"
	"strings"
	"time"

	"planar/internal/domain"
	"planar/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// calendarState tracks the displayed period and the selected day.
type calendarState struct {
	layout   store.CalendarLayout
	weekends bool
	anchor   time.Time
	day      time.Time
	card     int
}

func (c *calendarState) window() store.CalendarWindow {
	return store.CalendarRange(c.layout, c.anchor, c.weekends)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func (c *calendarState) selectDay(t time.Time) {
	c.day = c.visible(dateOnly(t), 1)
	c.card = 0
}

// visible steps from t in direction dir until it reaches a day the grid
// shows.
func (c *calendarState) visible(t time.Time, dir int) time.Time {
	if dir == 0 {
		dir = 1
	}
	for !c.weekends && isWeekend(t) {
		t = t.AddDate(0, 0, dir)
	}
	return t
}

func (c *calendarState) dayKey() string {
	return c.day.Format(domain.DateLayout)
}

func (c *calendarState) inWindow(t time.Time) bool {
	w := c.window()
	key := t.Format(domain.DateLayout)
	return key >= w.After && key <= w.Before
}

// moveDay shifts the selection by days and reports whether the displayed
// period changed.
func (c *calendarState) moveDay(days int) bool {
	dir := 1
	if days < 0 {
		dir = -1
	}
	c.day = c.visible(c.day.AddDate(0, 0, days), dir)
	c.card = 0
	if c.inWindow(c.day) {
		return false
	}
	c.anchor = c.day
	return true
}

// shiftPeriod moves to the previous or next month or week.
func (c *calendarState) shiftPeriod(dir int) {
	if c.layout == store.LayoutWeek {
		c.anchor = dateOnly(c.anchor).AddDate(0, 0, 7*dir)
	} else {
		a := dateOnly(c.anchor)
		c.anchor = time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, dir, 0)
	}
	c.selectDay(c.anchor)
}

func (c *calendarState) selected(s *store.Store) (domain.Issue, string, bool) {
	key := c.dayKey()
	issues := s.Issues(key)
	if len(issues) == 0 {
		c.card = 0
		return domain.Issue{}, key, false
	}
	c.card = min(max(c.card, 0), len(issues)-1)
	return issues[c.card], key, true
}

// dropTarget returns the destination date for moving the selected issue
// by days, skipping hidden weekend days.
func (c *calendarState) dropTarget(days int) string {
	dir := 1
	if days < 0 {
		dir = -1
	}
	return c.visible(c.day.AddDate(0, 0, days), dir).Format(domain.DateLayout)
}

func (m *App) renderCalendar(width, height int, today time.Time) string {
	w := m.calendar.window()
	if len(w.Weeks) == 0 || len(w.Weeks[0]) == 0 {
		return ""
	}
	title := m.calendar.anchor.Format("January 2006")
	if m.calendar.layout == store.LayoutWeek {
		title = "Week of " + w.Weeks[0][0].Format("Jan 2, 2006")
	}
	header := styleColumnHeader().Render(title)
	if m.loading {
		header += styleMuted().Render("  loading…")
	}

	cols := len(w.Weeks[0])
	cellWidth := max(width/cols-2, 8)
	cellHeight := max((height-2)/len(w.Weeks)-2, 2)
	todayKey := dateOnly(today).Format(domain.DateLayout)

	var weekday []string
	for _, d := range w.Weeks[0] {
		weekday = append(weekday, lipgloss.NewStyle().Width(cellWidth+2).Render(styleMuted().Render(d.Format("Mon"))))
	}

	rows := []string{header, lipgloss.JoinHorizontal(lipgloss.Top, weekday...)}
	for _, week := range w.Weeks {
		var cells []string
		for _, d := range week {
			cells = append(cells, m.renderDay(d, cellWidth, cellHeight, d.Format(domain.DateLayout) == todayKey))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

func (m *App) renderDay(d time.Time, width, height int, today bool) string {
	key := d.Format(domain.DateLayout)
	selected := m.focus == FocusBoard && key == m.calendar.dayKey()

	label := fmt.Sprintf("%d", d.Day())
	if d.Day() == 1 {
		label = d.Format("Jan 2")
	}
	if today {
		label = styleToday().Render(label)
	} else if d.Month() != m.calendar.anchor.Month() && m.calendar.layout == store.LayoutMonth {
		label = styleMuted().Render(label)
	}

	lines := []string{label}
	issues := m.issues.Issues(key)
	for i, issue := range issues {
		if len(lines) >= height {
			rest := len(issues) - i
			lines[len(lines)-1] = styleMuted().Render(fmt.Sprintf("+%d more", rest+1))
			break
		}
		if selected && i == m.calendar.card {
			lines = append(lines, styleSelected().Width(width).Render(ansi.Truncate(issue.Name, width, "…")))
			continue
		}
		lines = append(lines, m.renderCard(issue, width, false))
	}

	pane := stylePane()
	if selected {
		pane = stylePaneFocused()
	}
	return pane.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
