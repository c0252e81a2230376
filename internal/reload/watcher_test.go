package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func countingReload(n *atomic.Int32) ReloadFunc {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("initial"), 0o644); err != nil {
		t.Fatalf("writing initial file: %v", err)
	}

	var reloads atomic.Int32
	w := NewWatcher(WatcherConfig{ConfigPath: path, PollInterval: 20 * time.Millisecond}, countingReload(&reloads), testLogger())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = w.Stop(context.Background()) }()

	// Let the watcher record the initial stamp.
	time.Sleep(50 * time.Millisecond)

	// A different size guarantees a new stamp even on coarse mtime clocks.
	if err := os.WriteFile(path, []byte("modified content"), 0o644); err != nil {
		t.Fatalf("writing modified file: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatcher_NoChangeNoReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w := NewWatcher(WatcherConfig{ConfigPath: path, PollInterval: 10 * time.Millisecond}, countingReload(&reloads), testLogger())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := w.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}

	if n := reloads.Load(); n != 0 {
		t.Errorf("reloads = %d, want 0", n)
	}
}

func TestWatcher_MissingFile(t *testing.T) {
	var reloads atomic.Int32
	w := NewWatcher(WatcherConfig{ConfigPath: "/nonexistent/file.yaml", PollInterval: 10 * time.Millisecond}, countingReload(&reloads), testLogger())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(60 * time.Millisecond)
	_ = w.Stop(context.Background())

	if n := reloads.Load(); n != 0 {
		t.Errorf("reloads = %d for a missing file", n)
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	w := NewWatcher(WatcherConfig{ConfigPath: path, PollInterval: 50 * time.Millisecond}, countingReload(new(atomic.Int32)), testLogger())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop did not return in time: %v", err)
	}
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w := NewWatcher(WatcherConfig{ConfigPath: "/any/path"}, countingReload(new(atomic.Int32)), nil)
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
}

func TestWatcherConfig_DefaultInterval(t *testing.T) {
	if got := (WatcherConfig{}).pollIntervalOrDefault(); got != defaultPollInterval {
		t.Errorf("interval = %v, want %v", got, defaultPollInterval)
	}
}
