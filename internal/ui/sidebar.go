package ui

import (
	"strings"

	"planar/internal/domain"
	"planar/internal/store"

	"github.com/charmbracelet/x/ansi"
)

type sidebarSection int

const (
	sectionFavorites sidebarSection = iota
	sectionAll
)

// sidebarEntry is one selectable line: a section header or a project.
type sidebarEntry struct {
	section sidebarSection
	header  bool
	project domain.Project
}

type sidebarState struct {
	cursor int
}

// sidebarEntries lists the sidebar lines in display order. Collapsed
// sections contribute only their header.
func sidebarEntries(ps *store.ProjectStore) []sidebarEntry {
	if ps == nil {
		return nil
	}
	var out []sidebarEntry
	favorites := ps.Favorites()
	if len(favorites) > 0 {
		out = append(out, sidebarEntry{section: sectionFavorites, header: true})
		if ps.FavoritesOpen() {
			for _, p := range favorites {
				out = append(out, sidebarEntry{section: sectionFavorites, project: p})
			}
		}
	}
	out = append(out, sidebarEntry{section: sectionAll, header: true})
	if ps.AllProjectsOpen() {
		for _, p := range ps.Joined() {
			out = append(out, sidebarEntry{section: sectionAll, project: p})
		}
	}
	return out
}

func (s *sidebarState) current(ps *store.ProjectStore) (sidebarEntry, bool) {
	entries := sidebarEntries(ps)
	if len(entries) == 0 {
		return sidebarEntry{}, false
	}
	s.cursor = min(max(s.cursor, 0), len(entries)-1)
	return entries[s.cursor], true
}

func (s *sidebarState) move(ps *store.ProjectStore, delta int) {
	s.cursor += delta
	s.current(ps)
}

// toggle flips the section's open flag, which the store persists.
func toggleSection(ps *store.ProjectStore, section sidebarSection) error {
	if section == sectionFavorites {
		return ps.SetFavoritesOpen(!ps.FavoritesOpen())
	}
	return ps.SetAllProjectsOpen(!ps.AllProjectsOpen())
}

// reorderTarget returns the neighbour the selected project should take the
// place of, within the same section.
func (s *sidebarState) reorderTarget(ps *store.ProjectStore, delta int) (string, string, bool) {
	entry, ok := s.current(ps)
	if !ok || entry.header {
		return "", "", false
	}
	list := ps.Joined()
	if entry.section == sectionFavorites {
		list = ps.Favorites()
	}
	for i, p := range list {
		if p.ID != entry.project.ID {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(list) {
			return "", "", false
		}
		s.cursor += delta
		return p.ID, list[j].ID, true
	}
	return "", "", false
}

func (m *App) renderSidebar(height int) string {
	ps := m.cfg.Projects
	width := sidebarWidth - 2
	var lines []string
	for i, e := range sidebarEntries(ps) {
		selected := m.focus == FocusSidebar && i == m.sidebar.cursor
		var line string
		if e.header {
			open := ps.FavoritesOpen()
			title := "Favorites"
			if e.section == sectionAll {
				open = ps.AllProjectsOpen()
				title = "Projects"
			}
			arrow := "▸"
			if open {
				arrow = "▾"
			}
			line = styleSectionHeader().Render(arrow + " " + title)
		} else {
			name := e.project.Name
			if e.project.ID == m.issues.ProjectID() {
				name = "● " + name
			} else {
				name = "  " + name
			}
			line = ansi.Truncate(name, width, "…")
		}
		if selected {
			line = styleSelected().Width(width).Render(ansi.Strip(line))
		}
		lines = append(lines, line)
	}
	pane := stylePane()
	if m.focus == FocusSidebar {
		pane = stylePaneFocused()
	}
	return pane.Width(width).Height(height - 2).Render(strings.Join(lines, "\n"))
}
