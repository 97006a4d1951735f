package ui

import (
	"strings"
	"testing"
	"time"

	"planar/internal/store"
)

func TestToastQueueExpires(t *testing.T) {
	var q toastQueue
	q.push(toast{level: toastInfo, title: "Theme", start: testNow})
	q.push(toast{level: toastError, title: "Error!", start: testNow})

	if !q.expire(testNow.Add(5 * time.Second)) {
		t.Fatalf("expected the error toast to remain")
	}
	if len(q.items) != 1 || q.items[0].title != "Error!" {
		t.Fatalf("expected only the error toast, got %+v", q.items)
	}
	if q.expire(testNow.Add(11 * time.Second)) {
		t.Fatalf("expected all toasts expired")
	}
}

func TestToastQueueShowsNewestFirst(t *testing.T) {
	var q toastQueue
	for _, title := range []string{"one", "two", "three", "four"} {
		q.push(toast{level: toastSuccess, title: title, start: testNow})
	}
	out := q.render(testNow, 120)
	if strings.Contains(out, "one") {
		t.Fatalf("expected the oldest toast hidden:\n%s", out)
	}
	if strings.Index(out, "four") > strings.Index(out, "two") {
		t.Fatalf("expected newest toast on top:\n%s", out)
	}
	if !strings.Contains(out, "[5s]") {
		t.Fatalf("expected a countdown:\n%s", out)
	}
}

func TestToastFromNotification(t *testing.T) {
	got := toastFromNotification(store.Notification{Level: store.LevelError, Title: "Error!", Message: "nope"}, testNow)
	if got.level != toastError || got.title != "Error!" || got.message != "nope" {
		t.Fatalf("unexpected toast %+v", got)
	}
}

func TestChanNotifierNeverBlocks(t *testing.T) {
	n := NewChanNotifier()
	done := make(chan struct{})
	go func() {
		for range 100 {
			n.Notify(store.Notification{Title: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Notify blocked on a full buffer")
	}
	if len(n.C()) != cap(n.ch) {
		t.Fatalf("expected a full buffer, got %d", len(n.C()))
	}
}

func TestToastTickStopsWhenEmpty(t *testing.T) {
	app := newTestApp(t)
	cmd := app.info("Theme", "nord")
	if cmd == nil || !app.ticking {
		t.Fatalf("expected the first toast to start the ticker")
	}
	if app.info("Theme", "dracula") != nil {
		t.Fatalf("expected one ticker at a time")
	}
	app.cfg.Now = func() time.Time { return testNow.Add(time.Minute) }
	_, next := app.Update(toastTickMsg{})
	if next != nil || app.ticking || !app.toasts.empty() {
		t.Fatalf("expected the ticker to stop once toasts expire")
	}
}
