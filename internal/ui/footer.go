package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// footerHint is a short key hint; shorter than the keymap help text.
type footerHint struct {
	key  string
	desc string
}

var globalFooterHints = []footerHint{
	{"⇥", "Focus"},
	{"v", "View"},
	{"?", "Help"},
	{"q", "Quit"},
}

var boardFooterHints = []footerHint{
	{"hjkl", "Move"},
	{"HJKL", "Drag"},
	{"n", "Add"},
	{"⏎", "Detail"},
}

var calendarFooterHints = []footerHint{
	{"hjkl", "Day"},
	{"HJKL", "Reschedule"},
	{"[ ]", "Period"},
	{"w", "Layout"},
}

var sidebarFooterHints = []footerHint{
	{"jk", "Select"},
	{"KJ", "Reorder"},
	{"⏎", "Open"},
	{"y", "Copy link"},
}

var detailFooterHints = []footerHint{
	{"↑↓", "Scroll"},
	{"Esc", "Close"},
}

func (m *App) renderFooter() string {
	var hints []footerHint
	switch {
	case m.focus == FocusSidebar:
		hints = append(hints, sidebarFooterHints...)
	case m.focus == FocusDetail:
		hints = append(hints, detailFooterHints...)
	case m.mode == ViewCalendar:
		hints = append(hints, calendarFooterHints...)
	default:
		hints = append(hints, boardFooterHints...)
	}
	if len(m.cfg.Params.StateIDs) > 0 && m.focus == FocusBoard {
		hints = append(hints, footerHint{"x", "Unfilter"})
	}
	hints = append(hints, globalFooterHints...)

	status := m.footerStatus()
	statusWidth := lipgloss.Width(status)
	hints = trimHintsToFit(hints, m.width-statusWidth-4)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyPill(h.key, h.desc))
	}
	left := strings.Join(parts, "  ")
	spacing := max(m.width-lipgloss.Width(left)-statusWidth, 2)
	return left + strings.Repeat(" ", spacing) + status
}

func (m *App) footerStatus() string {
	var parts []string
	if m.cfg.Offline {
		parts = append(parts, styleReadOnly().Render("offline"))
	} else if m.readOnly() {
		parts = append(parts, styleReadOnly().Render("read only"))
	}
	if m.cfg.Version != "" {
		parts = append(parts, styleMuted().Render(m.cfg.Version))
	}
	return strings.Join(parts, " ")
}

func keyPill(key, desc string) string {
	return styleKeyPill().Render(" "+key+" ") + " " + styleMuted().Render(desc)
}

// trimHintsToFit drops hints from the right until the rendered row fits.
func trimHintsToFit(hints []footerHint, width int) []footerHint {
	for len(hints) > 0 {
		total := 0
		for i, h := range hints {
			if i > 0 {
				total += 2
			}
			total += lipgloss.Width(keyPill(h.key, h.desc))
		}
		if total <= width {
			return hints
		}
		hints = hints[:len(hints)-1]
	}
	return hints
}
