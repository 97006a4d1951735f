package ui

import (
	"fmt"
	"strings"
	"time"

	"planar/internal/store"

	"github.com/charmbracelet/lipgloss"
)

const (
	toastInfo = iota
	toastSuccess
	toastError
)

const maxVisibleToasts = 3

var toastTTL = map[int]time.Duration{
	toastInfo:    4 * time.Second,
	toastSuccess: 5 * time.Second,
	toastError:   10 * time.Second,
}

type toast struct {
	level   int
	title   string
	message string
	start   time.Time
}

func (t toast) remaining(now time.Time) time.Duration {
	return toastTTL[t.level] - now.Sub(t.start)
}

func toastFromNotification(n store.Notification, now time.Time) toast {
	level := toastInfo
	switch n.Level {
	case store.LevelError:
		level = toastError
	case store.LevelSuccess:
		level = toastSuccess
	}
	return toast{level: level, title: n.Title, message: n.Message, start: now}
}

// toastQueue keeps the live toasts, oldest first.
type toastQueue struct {
	items []toast
}

func (q *toastQueue) push(t toast) {
	q.items = append(q.items, t)
}

// expire drops toasts whose time is up and reports whether any remain.
func (q *toastQueue) expire(now time.Time) bool {
	kept := q.items[:0]
	for _, t := range q.items {
		if t.remaining(now) > 0 {
			kept = append(kept, t)
		}
	}
	q.items = kept
	return len(q.items) > 0
}

func (q *toastQueue) empty() bool { return len(q.items) == 0 }

func (q *toastQueue) render(now time.Time, width int) string {
	if len(q.items) == 0 {
		return ""
	}
	visible := q.items
	if len(visible) > maxVisibleToasts {
		visible = visible[len(visible)-maxVisibleToasts:]
	}
	maxWidth := max(min(width/2, 60), 24)
	blocks := make([]string, 0, len(visible))
	for i := len(visible) - 1; i >= 0; i-- {
		blocks = append(blocks, renderToast(visible[i], now, maxWidth))
	}
	return lipgloss.JoinVertical(lipgloss.Right, blocks...)
}

func renderToast(t toast, now time.Time, maxWidth int) string {
	secs := max(int(t.remaining(now).Round(time.Second).Seconds()), 0)
	countdown := styleMuted().Render(fmt.Sprintf("[%ds]", secs))

	title := styleToastTitle(t.level).Render(t.title)
	gap := max(maxWidth-lipgloss.Width(title)-lipgloss.Width(countdown)-2, 1)
	head := title + strings.Repeat(" ", gap) + countdown

	body := lipgloss.NewStyle().Width(maxWidth - 2).Render(t.message)
	content := head
	if strings.TrimSpace(t.message) != "" {
		content += "\n" + body
	}

	switch t.level {
	case toastError:
		return styleErrorToast().Render(content)
	case toastSuccess:
		return styleSuccessToast().Render(content)
	default:
		return styleInfoToast().Render(content)
	}
}

// ChanNotifier forwards store notifications to the UI. Sends never block;
// a full buffer drops the notification and logs it.
type ChanNotifier struct {
	ch chan store.Notification
}

// NewChanNotifier creates a notifier with a buffered channel.
func NewChanNotifier() *ChanNotifier {
	return &ChanNotifier{ch: make(chan store.Notification, 32)}
}

func (c *ChanNotifier) Notify(n store.Notification) {
	select {
	case c.ch <- n:
	default:
		logf("notification dropped: %s: %s", n.Title, n.Message)
	}
}

// C returns the receive side.
func (c *ChanNotifier) C() <-chan store.Notification {
	return c.ch
}
