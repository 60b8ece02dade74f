package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, body string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestScanReportsContentChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.sk")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	write(t, path, "1 + 1", base)

	w := New(0)
	src, err := w.Track(path)
	if err != nil || src != "1 + 1" {
		t.Fatalf("track: %q %v", src, err)
	}
	if evs := w.Scan(); len(evs) != 0 {
		t.Fatalf("expected no events for untouched file, got %+v", evs)
	}

	write(t, path, "2 + 2", base.Add(time.Second))
	evs := w.Scan()
	if len(evs) != 1 || evs[0].Src != "2 + 2" || evs[0].Missing {
		t.Fatalf("expected change event, got %+v", evs)
	}

	write(t, path, "2 + 2", base.Add(2*time.Second))
	if evs := w.Scan(); len(evs) != 0 {
		t.Fatalf("expected touch without content change to be ignored, got %+v", evs)
	}
}

func TestScanReportsMissingOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.sk")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	write(t, path, "x", base)

	w := New(0)
	if _, err := w.Track(path); err != nil {
		t.Fatalf("track: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	evs := w.Scan()
	if len(evs) != 1 || !evs[0].Missing {
		t.Fatalf("expected missing event, got %+v", evs)
	}
	if evs := w.Scan(); len(evs) != 0 {
		t.Fatalf("expected missing to be reported once, got %+v", evs)
	}

	write(t, path, "x", base)
	evs = w.Scan()
	if len(evs) != 1 || evs[0].Missing || evs[0].Src != "x" {
		t.Fatalf("expected reappearance as change, got %+v", evs)
	}
}

func TestForgetAndTrackErrors(t *testing.T) {
	w := New(0)
	if _, err := w.Track(filepath.Join(t.TempDir(), "absent.sk")); err == nil {
		t.Fatalf("expected error tracking absent file")
	}
	path := filepath.Join(t.TempDir(), "a.sk")
	write(t, path, "1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if _, err := w.Track(path); err != nil {
		t.Fatalf("track: %v", err)
	}
	w.Forget(path)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if evs := w.Scan(); len(evs) != 0 {
		t.Fatalf("expected forgotten file to be ignored, got %+v", evs)
	}
}

func TestRunDeliversEventsUntilCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.sk")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	write(t, path, "a", base)

	w := New(10 * time.Millisecond)
	if _, err := w.Track(path); err != nil {
		t.Fatalf("track: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	events := w.Run(ctx)
	write(t, path, "bb", base.Add(time.Second))

	select {
	case ev := <-events:
		if ev.Src != "bb" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change event")
	}
	cancel()
	for range events {
	}
}
