// Package theme provides the semantic colors the planar UI draws with.
package theme

import (
	"slices"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultName is the theme used when none is configured.
const DefaultName = "tokyonight"

// Theme is a named palette. Every color adapts to light and dark terminals.
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor // focused borders, header background
	Secondary lipgloss.AdaptiveColor // field labels, column headers
	Accent    lipgloss.AdaptiveColor // issue keys, titles

	Error   lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	Text      lipgloss.AdaptiveColor
	TextMuted lipgloss.AdaptiveColor

	Background          lipgloss.AdaptiveColor
	BackgroundSecondary lipgloss.AdaptiveColor // selected card, elevated surfaces

	BorderNormal  lipgloss.AdaptiveColor
	BorderFocused lipgloss.AdaptiveColor
}

var registry = struct {
	sync.RWMutex
	themes  map[string]Theme
	current string
}{themes: map[string]Theme{}}

// Register adds t under t.Name. The first registered theme becomes current.
func Register(t Theme) {
	registry.Lock()
	defer registry.Unlock()
	registry.themes[t.Name] = t
	if registry.current == "" {
		registry.current = t.Name
	}
}

// Set switches to a registered theme and reports whether it exists.
func Set(name string) bool {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.themes[name]; !ok {
		return false
	}
	registry.current = name
	return true
}

// Current returns the active theme.
func Current() Theme {
	registry.RLock()
	defer registry.RUnlock()
	return registry.themes[registry.current]
}

// Available returns the registered theme names, sorted.
func Available() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.themes))
	for name := range registry.themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Cycle switches to the next theme in name order and returns its name.
func Cycle() string {
	names := Available()
	if len(names) == 0 {
		return ""
	}
	registry.Lock()
	defer registry.Unlock()
	next := names[(slices.Index(names, registry.current)+1)%len(names)]
	registry.current = next
	return next
}
