package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/cron"
	"github.com/flemzord/tgflow/internal/gateway"
	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/internal/reload"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/internal/telemetry"
	"github.com/flemzord/tgflow/modules/store/memory"
	"github.com/flemzord/tgflow/modules/store/sqlite"

	// Node and credential types register themselves on import.
	_ "github.com/flemzord/tgflow/modules/telegram"
)

// jobTimeout bounds one reconcile or prune run.
const jobTimeout = 5 * time.Minute

// ExecutionStore persists finished executions.
type ExecutionStore interface {
	host.Recorder
	gateway.History
	cron.Pruner
}

// Options tunes how a Stack is assembled.
type Options struct {
	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// ConfigPath enables credential hot reload from this file. Build only.
	ConfigPath string
}

// Stack is every component built from one configuration.
type Stack struct {
	Config      *config.Config
	Logger      *slog.Logger
	Redactor    *security.Redactor
	Credentials *security.CredentialStore
	Audit       *security.AuditLogger
	Metrics     *telemetry.Metrics
	Tracing     *telemetry.Tracing
	Host        *host.Host

	// Set by Build only.
	Store     ExecutionStore
	Feed      *gateway.Feed
	Gateway   *gateway.Gateway
	Scheduler *cron.Scheduler
	Reload    *reload.Watcher

	closers []io.Closer
}

// BuildHost assembles the workflow host alone, for one-shot commands that
// manage webhooks or test credentials without serving traffic.
func BuildHost(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	s, err := newStack(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := s.buildHost(nil); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Build assembles the full server: store, execution feed, host, gateway
// and scheduler.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	s, err := newStack(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	if err := s.buildServer(ctx, opts.ConfigPath); err != nil {
		if st, ok := s.Store.(core.Stopper); ok {
			_ = st.Stop(ctx)
		}
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func newStack(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	s := &Stack{
		Config:      cfg,
		Redactor:    security.NewRedactor(),
		Credentials: host.CredentialsFromConfig(cfg),
		Metrics:     telemetry.NewMetrics(),
	}
	// Bot tokens from the config are masked from the first log line on.
	s.Redactor.SyncCredentials(s.Credentials)

	logger, err := security.NewLogger(out, cfg.Log.Level, cfg.Log.Format, s.Redactor)
	if err != nil {
		return nil, err
	}
	s.Logger = logger

	auditCfg := security.AuditLoggerConfig{Redactor: s.Redactor}
	if cfg.Log.AuditFile != "" {
		f, err := openAuditFile(cfg.Log.AuditFile)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, f)
		auditCfg.Writer = f
	}
	s.Audit = security.NewAuditLogger(auditCfg)

	tracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	s.Tracing = tracing
	return s, nil
}

func (s *Stack) buildHost(recorders []host.Recorder) error {
	client, err := host.NewHTTPClient(s.Config.Telegram, s.Metrics, s.Tracing.Tracer())
	if err != nil {
		return err
	}
	h, err := host.New(host.Options{
		Config:      s.Config,
		Credentials: s.Credentials,
		HTTPClient:  client,
		Logger:      s.Logger,
		Metrics:     s.Metrics,
		Tracer:      s.Tracing.Tracer(),
		Audit:       s.Audit,
		Recorders:   recorders,
	})
	if err != nil {
		return err
	}
	s.Host = h
	return nil
}

func (s *Stack) buildServer(ctx context.Context, cfgPath string) error {
	store, err := openStore(ctx, s.Config.Store, s.Logger)
	if err != nil {
		return err
	}
	s.Store = store

	s.Feed = gateway.NewFeed(s.Logger)
	if err := s.buildHost([]host.Recorder{store, s.Feed}); err != nil {
		return err
	}

	s.Gateway = gateway.New(gateway.Options{
		Config:    s.Config.Gateway,
		Host:      s.Host,
		History:   store,
		Feed:      s.Feed,
		Metrics:   s.Metrics,
		Audit:     s.Audit,
		Redactor:  s.Redactor,
		AppConfig: s.Config,
		Logger:    s.Logger,
	})

	s.Scheduler = cron.NewScheduler(cron.SchedulerOptions{
		Logger:   s.Logger,
		Observer: s.Metrics,
		Timeout:  jobTimeout,
	})
	if !s.Config.Reconcile.Disabled {
		if err := s.Scheduler.RegisterJob(&cron.ReconcileJob{
			Host:         s.Host,
			Logger:       s.Logger,
			ScheduleExpr: s.Config.Reconcile.Schedule,
		}); err != nil {
			return err
		}
	}
	if s.Config.Store.Retain > 0 {
		if err := s.Scheduler.RegisterJob(&cron.HistoryPruneJob{
			Store:  store,
			Keep:   s.Config.Store.Retain,
			Logger: s.Logger,
		}); err != nil {
			return err
		}
	}

	if cfgPath != "" && !s.Config.Reload.Disabled {
		handler, err := reload.NewHandler(reload.HandlerOptions{
			ConfigPath:  cfgPath,
			Credentials: s.Credentials,
			Redactor:    s.Redactor,
			Host:        s.Host,
			Audit:       s.Audit,
			Logger:      s.Logger,
		}, s.Config)
		if err != nil {
			return err
		}
		s.Reload = reload.NewWatcher(reload.WatcherConfig{
			ConfigPath:   cfgPath,
			PollInterval: s.Config.Reload.PollInterval,
			Signal:       true,
		}, handler.Reload, s.Logger)
	}
	return nil
}

// App registers the server components in start order. The gateway listens
// before the host registers webhooks, and the store outlives both on
// shutdown.
func (s *Stack) App() (*core.App, error) {
	if s.Gateway == nil {
		return nil, errors.New("app: stack was built without a gateway")
	}
	a := core.NewApp(s.Logger)
	ids := []string{"store", "gateway", "host", "cron"}
	values := []any{s.Store, s.Gateway, s.Host, s.Scheduler}
	if s.Reload != nil {
		ids = append(ids, "reload")
		values = append(values, s.Reload)
	}
	for i, id := range ids {
		if err := a.Add(id, values[i]); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Close flushes traces and closes the audit file.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	if s.Tracing != nil {
		errs = append(errs, s.Tracing.Stop(ctx))
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (ExecutionStore, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(cfg.Retain), nil
	case "sqlite", "":
		return sqlite.Open(ctx, sqlite.Config{
			Path:        cfg.Path,
			JournalMode: cfg.JournalMode,
			BusyTimeout: cfg.BusyTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}

func openAuditFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("app: create audit directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("app: open audit file: %w", err)
	}
	return f, nil
}
