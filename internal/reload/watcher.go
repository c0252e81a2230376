// Package reload applies configuration changes to a running tgflow without
// a restart. The config file is polled for changes and SIGHUP forces a
// reload.
package reload

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the path to the configuration file to watch.
	ConfigPath string

	// PollInterval is how often to check for file changes.
	// Defaults to 5 seconds if zero.
	PollInterval time.Duration

	// Signal listens for SIGHUP in addition to polling.
	Signal bool
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// ReloadFunc applies the configuration currently on disk.
type ReloadFunc func(ctx context.Context) error

// Watcher calls a ReloadFunc when the configuration file changes. Reloads
// never overlap: changes seen during a reload are picked up by the next
// poll.
type Watcher struct {
	cfg    WatcherConfig
	reload ReloadFunc
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// fileStamp identifies one version of the watched file.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// NewWatcher creates a watcher. It does nothing until Start.
func NewWatcher(cfg WatcherConfig, reload ReloadFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:    cfg,
		reload: reload,
		logger: logger.With("component", "reload"),
	}
}

// Start implements core.Starter. Calling it twice is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	var sig chan os.Signal
	if w.cfg.Signal {
		sig = make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGHUP)
	}

	go w.loop(ctx, sig)
	w.logger.Info("watching configuration", "path", w.cfg.ConfigPath, "interval", w.cfg.pollIntervalOrDefault())
	return nil
}

// Stop implements core.Stopper. It waits for a running reload to finish.
// Safe to call before Start.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) loop(ctx context.Context, sig chan os.Signal) {
	defer close(w.done)
	if sig != nil {
		defer signal.Stop(sig)
	}

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	last := w.stat()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			w.logger.Info("SIGHUP received, reloading configuration")
			last = w.stat()
			w.apply(ctx)
		case <-ticker.C:
			current := w.stat()
			if current.modTime.IsZero() || current == last {
				continue
			}
			last = current
			w.logger.Info("configuration file changed, reloading")
			w.apply(ctx)
		}
	}
}

func (w *Watcher) apply(ctx context.Context) {
	if err := w.reload(ctx); err != nil {
		w.logger.Error("reload failed", "error", err)
	}
}

func (w *Watcher) stat() fileStamp {
	info, err := os.Stat(w.cfg.ConfigPath)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}
