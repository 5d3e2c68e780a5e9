package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wilhg/busschedule/pkg/reconcile"
	"github.com/wilhg/busschedule/pkg/schedule"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	if got := getEnv("FOO", "default"); got != "bar" {
		t.Fatalf("getEnv returned %q, want %q", got, "bar")
	}
	if got := getEnv("MISSING", "default"); got != "default" {
		t.Fatalf("getEnv returned %q, want %q", got, "default")
	}
}

func memoryEnv(t *testing.T) {
	t.Setenv("BUSSCHEDULE_DATABASE_URL", "memory:")
	t.Setenv("BUSSCHEDULE_LOG_LEVEL", "error")
}

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(t.Context(), []string{"-version"}, &out, &errOut); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}
	if !strings.HasPrefix(out.String(), "busschedule dev") {
		t.Fatalf("version output=%q", out.String())
	}
}

func TestRun_FullSchedule(t *testing.T) {
	memoryEnv(t)
	var out, errOut bytes.Buffer
	if code := run(t.Context(), nil, &out, &errOut); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}
	text := out.String()
	for _, want := range []string{"Full schedule", "Main Street", "Winding Way", "3:00 PM"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRun_StopScreen(t *testing.T) {
	memoryEnv(t)
	var out, errOut bytes.Buffer
	if code := run(t.Context(), []string{"-stop", "Oak Drive"}, &out, &errOut); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("want title, header and 3 arrivals, got:\n%s", out.String())
	}
	for _, l := range lines[2:] {
		if !strings.HasPrefix(l, "Oak Drive ") {
			t.Fatalf("unexpected row %q", l)
		}
	}

	out.Reset()
	if code := run(t.Context(), []string{"-stop", "oak drive"}, &out, &errOut); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(out.String(), "(no arrivals)") {
		t.Fatalf("case-sensitive miss should render empty:\n%s", out.String())
	}
}

func TestRun_StoreUnavailable(t *testing.T) {
	memoryEnv(t)
	t.Setenv("BUSSCHEDULE_DATASET", filepath.Join(t.TempDir(), "missing.yaml"))
	var out, errOut bytes.Buffer
	if code := run(t.Context(), nil, &out, &errOut); code != 1 {
		t.Fatalf("exit=%d want 1", code)
	}
	if !strings.Contains(errOut.String(), "schedule store unavailable") {
		t.Fatalf("stderr=%q", errOut.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_WatchUntilInterrupted(t *testing.T) {
	memoryEnv(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	var out, errOut lockedBuffer
	exit := make(chan int, 1)
	go func() { exit <- run(ctx, []string{"-watch", "-stop", "Main Street"}, &out, &errOut) }()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "Main Street ") {
		if time.Now().After(deadline) {
			t.Fatalf("initial render missing:\n%s", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	select {
	case code := <-exit:
		if code != 0 {
			t.Fatalf("exit=%d stderr=%s", code, errOut.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on interrupt")
	}
}

func TestScreen_Edits(t *testing.T) {
	var out bytes.Buffer
	s := &screen{out: &out, loc: time.UTC}
	s.edits(reconcile.Script[schedule.Schedule]{
		{Kind: reconcile.KindRemove, Index: 2},
		{Kind: reconcile.KindMove, From: 1, To: 0},
		{Kind: reconcile.KindInsert, Index: 1, Item: schedule.Schedule{ID: 9, StopName: "Depot", ArrivalTime: 28800}},
	})
	want := "remove 2\nmove 1 -> 0\ninsert 1: Depot                8:00 AM\n"
	if out.String() != want {
		t.Fatalf("edits=%q want %q", out.String(), want)
	}
}
