// Package sqlite persists workflow executions in a SQLite database using
// modernc.org/sqlite (pure Go, no CGO), in WAL mode unless configured
// otherwise.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/host"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// ErrNotFound is returned by Get for unknown execution IDs.
var ErrNotFound = errors.New("sqlite: execution not found")

// Compile-time interface guards.
var (
	_ host.Recorder  = (*Store)(nil)
	_ core.Validator = (*Store)(nil)
	_ core.Starter   = (*Store)(nil)
	_ core.Stopper   = (*Store)(nil)
)

// Store records executions in SQLite.
type Store struct {
	config Config
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the database file if needed, applies PRAGMAs and migrates
// the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	// SQLite handles one writer at a time; limit pool to 1 connection
	// so PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=" + cfg.JournalMode,
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{config: cfg, db: db, logger: logger.With("component", "store.sqlite")}
	s.logger.Info("execution store opened", "path", cfg.Path, "journal_mode", cfg.JournalMode)
	return s, nil
}

// Validate implements core.Validator.
func (s *Store) Validate() error {
	if err := s.db.PingContext(context.Background()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Start implements core.Starter. The database is already open; this only
// registers the store for shutdown.
func (s *Store) Start() error { return nil }

// Stop implements core.Stopper.
func (s *Store) Stop(_ context.Context) error {
	s.logger.Info("execution store closing")
	return s.db.Close()
}
