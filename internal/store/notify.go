package store

import "sync"

// Level is the severity of a user-visible notification.
type Level int

const (
	LevelError Level = iota
	LevelSuccess
	LevelInfo
)

// Notification is a transient message for the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Err     error
}

// Notifier delivers notifications to whatever surface shows them.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notification) {}

// Recorder is a Notifier that keeps every notification. Tests and the CLI
// use it to inspect what would have been shown.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Notifications returns a copy of what has been recorded.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Errors counts recorded error notifications.
func (r *Recorder) Errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Level == LevelError {
			n++
		}
	}
	return n
}

// EventKind says what changed in a store.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventIssueChanged
	EventIssueRemoved
	EventRolledBack
	EventCleared
	EventProjectsChanged
	EventPrefsChanged
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventIssueChanged:
		return "issue-changed"
	case EventIssueRemoved:
		return "issue-removed"
	case EventRolledBack:
		return "rolled-back"
	case EventCleared:
		return "cleared"
	case EventProjectsChanged:
		return "projects-changed"
	case EventPrefsChanged:
		return "prefs-changed"
	default:
		return "unknown"
	}
}

// Event is published after a store mutates its state. Views re-read a
// snapshot on receipt.
type Event struct {
	Kind    EventKind
	IssueID string
}

// broadcaster fans events out to subscribers without blocking the sender.
type broadcaster struct {
	mu          sync.Mutex
	subscribers []chan Event
}

func (b *broadcaster) subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 64)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	subscribers := b.subscribers
	b.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- ev:
		default:
			// Full buffer: the subscriber re-reads the snapshot on its next event.
		}
	}
}
