package ui

import (
	"strings"

	"planar/internal/domain"
	"planar/internal/ui/theme"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Styles are functions so a theme switch takes effect on the next frame.

func baseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Text)
}

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().TextMuted)
}

func styleAppHeader() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Primary).
		Bold(true).
		Padding(0, 1)
}

func styleIssueKey() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Accent).Bold(true)
}

func styleColumnHeader() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Secondary).Bold(true)
}

func styleSectionHeader() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Warning).Bold(true)
}

func styleSelected() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Background(t.BackgroundSecondary).
		Foreground(t.Text).
		Bold(true)
}

func stylePane() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(theme.Current().BorderNormal)
}

func stylePaneFocused() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(theme.Current().BorderFocused)
}

func styleToday() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Info).Bold(true)
}

func styleErrorToast() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Error).
		Foreground(t.Text).
		Padding(0, 1)
}

func styleSuccessToast() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Success).
		Foreground(t.Text).
		Padding(0, 1)
}

func styleInfoToast() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Info).
		Foreground(t.Text).
		Padding(0, 1)
}

func styleToastTitle(level int) lipgloss.Style {
	t := theme.Current()
	color := t.Info
	switch level {
	case toastError:
		color = t.Error
	case toastSuccess:
		color = t.Success
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

func styleOverlay() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Current().Primary).
		Padding(1, 2)
}

func styleHelpTitle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Accent).Bold(true)
}

func styleHelpKey() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Info).Bold(true)
}

func styleHelpDesc() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Text)
}

func styleKeyPill() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Background(t.Primary).
		Foreground(t.Background).
		Bold(true)
}

func styleReadOnly() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Current().Warning).Bold(true)
}

func stylePriority(p domain.Priority) lipgloss.Style {
	t := theme.Current()
	switch p {
	case domain.PriorityUrgent:
		return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	case domain.PriorityHigh:
		return lipgloss.NewStyle().Foreground(t.Warning)
	case domain.PriorityMedium:
		return lipgloss.NewStyle().Foreground(t.Info)
	default:
		return lipgloss.NewStyle().Foreground(t.TextMuted)
	}
}

// priorityIcon is the one-cell marker shown in front of a card.
func priorityIcon(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "!"
	case domain.PriorityHigh:
		return "▲"
	case domain.PriorityMedium:
		return "■"
	case domain.PriorityLow:
		return "▼"
	default:
		return "·"
	}
}

func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" || style == "dark" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
