package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts for the application.
// Related bindings (Up/Down, Left/Right) share help text since they appear
// as a single row in the help overlay.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Home  key.Binding
	End   key.Binding

	// Moving cards
	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding

	// Views
	Enter      key.Binding
	Tab        key.Binding
	ToggleView key.Binding
	Layout     key.Binding
	Weekends   key.Binding
	PrevPeriod key.Binding
	NextPeriod key.Binding
	NextCard   key.Binding

	// Actions
	Refresh  key.Binding
	LoadMore key.Binding
	QuickAdd key.Binding
	Archive  key.Binding
	Delete   key.Binding
	Unlink   key.Binding
	CopyLink key.Binding
	Unfilter key.Binding

	// Sidebar
	ToggleFavorites key.Binding
	ToggleAll       key.Binding

	Theme  key.Binding
	Help   key.Binding
	Quit   key.Binding
	Escape key.Binding
}

// DefaultKeyMap returns the default keybindings for planar.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓  j/k", "Move up/down"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↑/↓  j/k", "Move up/down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/→  h/l", "Previous/next column"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("←/→  h/l", "Previous/next column"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home  g", "First card"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End   G", "Last card"),
		),

		MoveUp: key.NewBinding(
			key.WithKeys("shift+up", "K"),
			key.WithHelp("K/J", "Move card up/down"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("shift+down", "J"),
			key.WithHelp("K/J", "Move card up/down"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("H/L", "Move card left/right"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("H/L", "Move card left/right"),
		),

		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("⏎ (Enter)", "Toggle detail"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("⇥ (Tab)", "Switch focus"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Board/calendar"),
		),
		Layout: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Month/week"),
		),
		Weekends: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "Show weekends"),
		),
		PrevPeriod: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[ / ]", "Previous/next period"),
		),
		NextPeriod: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("[ / ]", "Previous/next period"),
		),
		NextCard: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "Next issue on day"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Load more"),
		),
		QuickAdd: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Quick add"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Archive/restore"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),
		Unlink: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Remove from cycle/module"),
		),
		CopyLink: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy project link"),
		),

		Unfilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Drop last state filter"),
		),

		ToggleFavorites: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Toggle favorites"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Toggle projects"),
		),

		Theme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Next theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "Close/cancel"),
		),
	}
}
