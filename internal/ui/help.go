package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// helpSection is a titled group of keybinding rows.
type helpSection struct {
	title string
	rows  [][]string
}

func helpRow(b key.Binding) []string {
	return []string{b.Help().Key, b.Help().Desc}
}

// helpSections lays out the overlay. Text comes from the bindings so the
// keymap stays the single source.
func helpSections(keys KeyMap) []helpSection {
	return []helpSection{
		{
			title: "NAVIGATION",
			rows: [][]string{
				helpRow(keys.Up),
				helpRow(keys.Left),
				helpRow(keys.Home),
				helpRow(keys.End),
				helpRow(keys.Tab),
				helpRow(keys.Enter),
				helpRow(keys.NextCard),
			},
		},
		{
			title: "ISSUES",
			rows: [][]string{
				helpRow(keys.MoveUp),
				helpRow(keys.MoveLeft),
				helpRow(keys.QuickAdd),
				helpRow(keys.Archive),
				helpRow(keys.Delete),
				helpRow(keys.Unlink),
				helpRow(keys.LoadMore),
				helpRow(keys.Refresh),
			},
		},
		{
			title: "VIEW",
			rows: [][]string{
				helpRow(keys.ToggleView),
				helpRow(keys.Unfilter),
				helpRow(keys.Layout),
				helpRow(keys.Weekends),
				helpRow(keys.PrevPeriod),
				helpRow(keys.ToggleFavorites),
				helpRow(keys.ToggleAll),
				helpRow(keys.CopyLink),
				helpRow(keys.Theme),
			},
		},
	}
}

func renderHelpOverlay(keys KeyMap) string {
	sections := helpSections(keys)
	left := renderHelpSection(sections[0])
	right := lipgloss.JoinVertical(lipgloss.Left,
		renderHelpSection(sections[1]),
		"",
		renderHelpSection(sections[2]),
	)
	columns := lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)

	title := styleHelpTitle().Render("PLANAR HELP")
	divider := styleMuted().Render(strings.Repeat("─", max(lipgloss.Width(columns), 40)))
	footer := styleMuted().Render("Press ? or Esc to close")

	return styleOverlay().Render(lipgloss.JoinVertical(lipgloss.Center,
		title, divider, "", columns, "", footer))
}

func renderHelpSection(section helpSection) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return styleHelpKey().Width(14)
			}
			return styleHelpDesc()
		}).
		Rows(section.rows...)

	header := styleSectionHeader().Render(section.title)
	underline := styleMuted().Render(strings.Repeat("─", len(section.title)))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		underline,
		strings.TrimPrefix(t.String(), "\n"),
	)
}
