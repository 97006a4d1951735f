package ui

import (
	"context"
	"time"

	"planar/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// storeEventMsg carries one issue store event. ch identifies the store so
// events from a replaced store can be dropped.
type storeEventMsg struct {
	ch    <-chan store.Event
	event store.Event
}

// projectEventMsg carries one project store event.
type projectEventMsg struct{ event store.Event }

type notificationMsg struct{ n store.Notification }

type toastTickMsg struct{}

// fetchDoneMsg reports the end of a view fetch.
type fetchDoneMsg struct {
	loader store.Loader
	err    error
}

type pageDoneMsg struct {
	group string
	err   error
}

type projectsDoneMsg struct{ err error }

// mutationDoneMsg reports the end of a store mutation. The store has
// already notified about failures.
type mutationDoneMsg struct {
	op  string
	err error
}

func listenForStoreEvent(ch <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return storeEventMsg{ch: ch, event: ev}
	}
}

func listenForProjectEvent(ch <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return projectEventMsg{event: ev}
	}
}

func listenForNotification(ch <-chan store.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{n: n}
	}
}

func scheduleToastTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}

// mutate runs a store call off the update loop.
func mutate(timeout time.Duration, op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationDoneMsg{op: op, err: fn(ctx)}
	}
}
