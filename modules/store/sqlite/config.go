package sqlite

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	defaultJournalMode = "wal"
	defaultBusyTimeout = 5 * time.Second
)

var journalModes = []string{"wal", "delete", "truncate", "persist", "memory", "off"}

// Config holds the SQLite execution store configuration.
type Config struct {
	// Path is the database file path.
	Path string

	// JournalMode is applied with PRAGMA journal_mode. Defaults to wal so
	// the admin API can read while executions are being recorded.
	JournalMode string

	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration
}

func (c *Config) defaults() {
	c.JournalMode = strings.ToLower(c.JournalMode)
	if c.JournalMode == "" {
		c.JournalMode = defaultJournalMode
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
}

func (c *Config) validate() error {
	if c.Path == "" {
		return errors.New("sqlite: path is required")
	}
	if !slices.Contains(journalModes, c.JournalMode) {
		return fmt.Errorf("sqlite: unknown journal_mode %q", c.JournalMode)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlite: busy_timeout must be non-negative, got %s", c.BusyTimeout)
	}
	return nil
}
