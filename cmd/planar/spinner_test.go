package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerRendersStagesImmediatelyWithoutDelay(t *testing.T) {
	var out syncBuffer
	sp := newCustomStartupSpinner(&out, 0, time.Hour)
	sp.Stage(stageProjects, "acme")

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "Loading projects... - acme") {
		if time.Now().After(deadline) {
			t.Fatalf("stage never rendered, got %q", out.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	sp.Stop()
	if !strings.HasSuffix(out.String(), "\r\033[2K") {
		t.Fatalf("expected the line cleared on stop, got %q", out.String())
	}
}

func TestSpinnerStaysQuietBeforeDelay(t *testing.T) {
	var out syncBuffer
	sp := newCustomStartupSpinner(&out, time.Hour, time.Millisecond)
	sp.Stage(stageReady, "")
	time.Sleep(20 * time.Millisecond)
	sp.Stop()
	sp.Stop()
	if got := out.String(); got != "" {
		t.Fatalf("expected no output before the delay, got %q", got)
	}
}

func TestSpinnerNilIsSafe(t *testing.T) {
	var sp *startupSpinner
	sp.Stage(stageReady, "")
	sp.Stop()
}

func TestFormatStageMessage(t *testing.T) {
	if got := formatStageMessage(stageCache, " /tmp/c.db "); got != "Opening snapshot cache... - /tmp/c.db" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := formatStageMessage(startupStage(99), ""); got != "Starting..." {
		t.Fatalf("unexpected fallback %q", got)
	}
}
