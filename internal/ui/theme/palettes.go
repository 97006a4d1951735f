package theme

import "github.com/charmbracelet/lipgloss"

func c(dark, light string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Dark: dark, Light: light}
}

func init() {
	Register(Theme{
		Name:                "tokyonight",
		Primary:             c("#82aaff", "#2e7de9"),
		Secondary:           c("#c099ff", "#9854f1"),
		Accent:              c("#ff966c", "#b15c00"),
		Error:               c("#ff757f", "#f52a65"),
		Warning:             c("#ffc777", "#8c6c3e"),
		Success:             c("#c3e88d", "#587539"),
		Info:                c("#7dcfff", "#0db9d7"),
		Text:                c("#c8d3f5", "#3760bf"),
		TextMuted:           c("#636da6", "#848cb5"),
		Background:          c("#222436", "#e1e2e7"),
		BackgroundSecondary: c("#2f334d", "#c8c9ce"),
		BorderNormal:        c("#3b4261", "#a8aecb"),
		BorderFocused:       c("#82aaff", "#2e7de9"),
	})
	Register(Theme{
		Name:                "dracula",
		Primary:             c("#bd93f9", "#7e57c2"),
		Secondary:           c("#8be9fd", "#0097a7"),
		Accent:              c("#f1fa8c", "#f9a825"),
		Error:               c("#ff5555", "#d32f2f"),
		Warning:             c("#ffb86c", "#ef6c00"),
		Success:             c("#50fa7b", "#388e3c"),
		Info:                c("#8be9fd", "#1976d2"),
		Text:                c("#f8f8f2", "#212121"),
		TextMuted:           c("#6272a4", "#757575"),
		Background:          c("#282a36", "#ffffff"),
		BackgroundSecondary: c("#44475a", "#e0e0e0"),
		BorderNormal:        c("#6272a4", "#bdbdbd"),
		BorderFocused:       c("#bd93f9", "#7e57c2"),
	})
	Register(Theme{
		Name:                "nord",
		Primary:             c("#88c0d0", "#5e81ac"),
		Secondary:           c("#81a1c1", "#81a1c1"),
		Accent:              c("#8fbcbb", "#8fbcbb"),
		Error:               c("#bf616a", "#bf616a"),
		Warning:             c("#d08770", "#d08770"),
		Success:             c("#a3be8c", "#a3be8c"),
		Info:                c("#88c0d0", "#5e81ac"),
		Text:                c("#eceff4", "#2e3440"),
		TextMuted:           c("#8b95a7", "#3b4252"),
		Background:          c("#2e3440", "#eceff4"),
		BackgroundSecondary: c("#3b4252", "#e5e9f0"),
		BorderNormal:        c("#434c5e", "#4c566a"),
		BorderFocused:       c("#88c0d0", "#5e81ac"),
	})
	Register(Theme{
		Name:                "gruvbox",
		Primary:             c("#83a598", "#076678"),
		Secondary:           c("#d3869b", "#8f3f71"),
		Accent:              c("#fabd2f", "#b57614"),
		Error:               c("#fb4934", "#9d0006"),
		Warning:             c("#fe8019", "#af3a03"),
		Success:             c("#b8bb26", "#79740e"),
		Info:                c("#83a598", "#076678"),
		Text:                c("#ebdbb2", "#3c3836"),
		TextMuted:           c("#a89984", "#7c6f64"),
		Background:          c("#282828", "#fbf1c7"),
		BackgroundSecondary: c("#504945", "#ebdbb2"),
		BorderNormal:        c("#504945", "#bdae93"),
		BorderFocused:       c("#83a598", "#076678"),
	})
	Set(DefaultName)
}
