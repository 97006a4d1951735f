package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"planar/internal/api"
	"planar/internal/domain"
	appErrors "planar/internal/errors"
	"planar/internal/ordering"
)

// Preference keys for the sidebar sections.
const (
	PrefFavoritesOpen   = "isFavoriteProjectsListOpen"
	PrefAllProjectsOpen = "isAllProjectsListOpen"
)

// Preferences persists small UI flags.
type Preferences interface {
	Bool(key string) bool
	SetBool(key string, value bool) error
}

// ProjectConfig wires a project sidebar store.
type ProjectConfig struct {
	Client     api.ProjectService
	Workspace  string
	Notifier   Notifier
	Prefs      Preferences
	Membership *domain.Membership
	// CopyText writes to the system clipboard.
	CopyText func(string) error
}

// ProjectStore backs the project sidebar.
type ProjectStore struct {
	client     api.ProjectService
	workspace  string
	notifier   Notifier
	prefs      Preferences
	membership *domain.Membership
	copyText   func(string) error
	events     broadcaster

	mu            sync.Mutex
	projects      map[string]domain.Project
	edits         map[string]uint64
	editSeq       uint64
	favoritesOpen bool
	allOpen       bool
}

// NewProjectStore creates a sidebar store and reads the section flags.
func NewProjectStore(cfg ProjectConfig) *ProjectStore {
	n := cfg.Notifier
	if n == nil {
		n = discardNotifier{}
	}
	ps := &ProjectStore{
		client:     cfg.Client,
		workspace:  cfg.Workspace,
		notifier:   n,
		prefs:      cfg.Prefs,
		membership: cfg.Membership,
		copyText:   cfg.CopyText,
		projects:   map[string]domain.Project{},
		edits:      map[string]uint64{},
	}
	if cfg.Prefs != nil {
		ps.favoritesOpen = cfg.Prefs.Bool(PrefFavoritesOpen)
		ps.allOpen = cfg.Prefs.Bool(PrefAllProjectsOpen)
	}
	return ps
}

// Subscribe returns a channel of change events.
func (ps *ProjectStore) Subscribe() <-chan Event {
	return ps.events.subscribe()
}

// Fetch loads the workspace's projects, replacing what was loaded.
func (ps *ProjectStore) Fetch(ctx context.Context) error {
	payloads, err := ps.client.ListProjects(ctx, ps.workspace)
	if err != nil {
		return err
	}
	projects := make(map[string]domain.Project, len(payloads))
	for _, p := range payloads {
		project, err := domain.NewProjectFromPayload(p)
		if err != nil {
			return appErrors.New(appErrors.CodeDecode, "list projects: "+err.Error(), err)
		}
		projects[project.ID] = project
	}
	ps.mu.Lock()
	ps.projects = projects
	ps.edits = map[string]uint64{}
	ps.mu.Unlock()
	ps.events.publish(Event{Kind: EventProjectsChanged})
	return nil
}

// Joined returns the projects the user is a member of by sort order.
func (ps *ProjectStore) Joined() []domain.Project {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.sortedLocked(func(p domain.Project) bool { return p.IsMember })
}

// Favorites returns the joined projects marked favorite.
func (ps *ProjectStore) Favorites() []domain.Project {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.sortedLocked(func(p domain.Project) bool { return p.IsMember && p.IsFavorite })
}

// Project returns the project with id.
func (ps *ProjectStore) Project(id string) (domain.Project, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	p, ok := ps.projects[id]
	return p, ok
}

func (ps *ProjectStore) sortedLocked(keep func(domain.Project) bool) []domain.Project {
	var out []domain.Project
	for _, p := range ps.projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Project) int {
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Reorder drops the joined project sourceID onto destinationID, or after
// the last project when dropAtEnd is set. Missing or equal ids do nothing.
// The new order shows at once and is reverted if the server rejects it.
func (ps *ProjectStore) Reorder(ctx context.Context, sourceID, destinationID string, dropAtEnd bool) error {
	if sourceID == "" || destinationID == "" || sourceID == destinationID {
		return nil
	}
	if ps.membership != nil && !ps.membership.IsAuthorizedUser() {
		err := appErrors.New(appErrors.CodeReadOnly, "only workspace members can reorder projects", nil)
		ps.notifyFailure(err)
		return err
	}

	ps.mu.Lock()
	joined := ps.sortedLocked(func(p domain.Project) bool { return p.IsMember })
	items := make([]ordering.Item, len(joined))
	source, destination := -1, -1
	for i, p := range joined {
		items[i] = ordering.Item{ID: p.ID, SortOrder: p.SortOrder}
		switch p.ID {
		case sourceID:
			source = i
		case destinationID:
			destination = i
		}
	}
	if dropAtEnd {
		destination = len(items)
	}
	if source < 0 || destination < 0 {
		ps.mu.Unlock()
		return nil
	}
	order, moved, err := ordering.ProjectOrder(source, destination, items)
	if err != nil || !moved {
		ps.mu.Unlock()
		if err != nil {
			ps.notifyFailure(err)
		}
		return err
	}
	project := ps.projects[sourceID]
	previous := project.SortOrder
	project.SortOrder = order
	ps.projects[sourceID] = project
	ps.editSeq++
	seq := ps.editSeq
	ps.edits[sourceID] = seq
	ps.mu.Unlock()
	ps.events.publish(Event{Kind: EventProjectsChanged})

	if err := ps.client.UpdateProjectView(ctx, ps.workspace, sourceID, api.ProjectViewUpdate{SortOrder: order}); err != nil {
		ps.mu.Lock()
		reverted := false
		if ps.edits[sourceID] == seq {
			if p, ok := ps.projects[sourceID]; ok {
				p.SortOrder = previous
				ps.projects[sourceID] = p
				reverted = true
			}
			delete(ps.edits, sourceID)
		}
		ps.mu.Unlock()
		if reverted {
			ps.events.publish(Event{Kind: EventProjectsChanged})
		}
		ps.notifyFailure(err)
		return err
	}
	ps.mu.Lock()
	if ps.edits[sourceID] == seq {
		delete(ps.edits, sourceID)
	}
	ps.mu.Unlock()
	return nil
}

func (ps *ProjectStore) notifyFailure(err error) {
	ps.notifier.Notify(Notification{
		Level:   LevelError,
		Title:   "Error!",
		Message: "Something went wrong. Please try again.",
		Err:     err,
	})
}

// FavoritesOpen reports whether the favorites section is expanded.
func (ps *ProjectStore) FavoritesOpen() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.favoritesOpen
}

// AllProjectsOpen reports whether the all-projects section is expanded.
func (ps *ProjectStore) AllProjectsOpen() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.allOpen
}

// SetFavoritesOpen expands or collapses the favorites section and persists
// the flag.
func (ps *ProjectStore) SetFavoritesOpen(open bool) error {
	ps.mu.Lock()
	ps.favoritesOpen = open
	ps.mu.Unlock()
	return ps.persist(PrefFavoritesOpen, open)
}

// SetAllProjectsOpen expands or collapses the all-projects section and
// persists the flag.
func (ps *ProjectStore) SetAllProjectsOpen(open bool) error {
	ps.mu.Lock()
	ps.allOpen = open
	ps.mu.Unlock()
	return ps.persist(PrefAllProjectsOpen, open)
}

func (ps *ProjectStore) persist(key string, value bool) error {
	ps.events.publish(Event{Kind: EventPrefsChanged})
	if ps.prefs == nil {
		return nil
	}
	if err := ps.prefs.SetBool(key, value); err != nil {
		logf("persist %s: %v", key, err)
		return err
	}
	return nil
}

// ProjectLink returns the path of a project's issue list.
func (ps *ProjectStore) ProjectLink(projectID string) string {
	return domain.Project{ID: projectID}.IssuesPath(ps.workspace)
}

// CopyLink copies a project's link to the clipboard.
func (ps *ProjectStore) CopyLink(projectID string) error {
	if ps.copyText == nil {
		return appErrors.New(appErrors.CodeConfigurationError, "no clipboard available", nil)
	}
	link := ps.ProjectLink(projectID)
	if err := ps.copyText(link); err != nil {
		ps.notifier.Notify(Notification{Level: LevelError, Title: "Error!", Message: fmt.Sprintf("Could not copy link: %v", err), Err: err})
		return err
	}
	ps.notifier.Notify(Notification{Level: LevelSuccess, Title: "Link Copied!", Message: "Project link copied to clipboard."})
	return nil
}
