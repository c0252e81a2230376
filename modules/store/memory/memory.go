// Package memory keeps workflow executions in process memory. Everything is
// lost on restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flemzord/tgflow/internal/host"
)

// ErrNotFound is returned by Get for unknown execution IDs.
var ErrNotFound = errors.New("memory: execution not found")

// Compile-time interface check.
var _ host.Recorder = (*Store)(nil)

// Store is a thread-safe, in-memory execution store. Executions are kept
// in recording order.
type Store struct {
	mu    sync.RWMutex
	execs []host.Execution
	limit int
}

// New creates an empty store. A positive limit drops the oldest execution
// once it is exceeded.
func New(limit int) *Store {
	return &Store{limit: limit}
}

// Record implements host.Recorder. Recording an existing ID replaces it.
// Attachment bytes are not kept.
func (s *Store) Record(_ context.Context, e host.Execution) error {
	e = e.WithoutBinaryData()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.execs {
		if s.execs[i].ID == e.ID {
			s.execs = append(s.execs[:i], s.execs[i+1:]...)
			break
		}
	}
	s.execs = append(s.execs, e)
	if s.limit > 0 && len(s.execs) > s.limit {
		s.execs = append([]host.Execution(nil), s.execs[len(s.execs)-s.limit:]...)
	}
	return nil
}

// Recent returns up to limit executions, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]host.Execution, error) {
	return s.collect(limit, func(host.Execution) bool { return true }), nil
}

// ByWorkflow returns up to limit executions of one workflow, newest first.
func (s *Store) ByWorkflow(_ context.Context, workflowID string, limit int) ([]host.Execution, error) {
	return s.collect(limit, func(e host.Execution) bool { return e.WorkflowID == workflowID }), nil
}

// Get returns one execution by ID.
func (s *Store) Get(_ context.Context, id string) (host.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.execs {
		if e.ID == id {
			return e, nil
		}
	}
	return host.Execution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Count returns the number of stored executions.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.execs), nil
}

// Prune drops all but the keep most recent executions.
func (s *Store) Prune(_ context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.execs) - keep
	if n <= 0 {
		return 0, nil
	}
	s.execs = append([]host.Execution(nil), s.execs[n:]...)
	return n, nil
}

func (s *Store) collect(limit int, keep func(host.Execution) bool) []host.Execution {
	if limit <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []host.Execution
	for i := len(s.execs) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(s.execs[i]) {
			out = append(out, s.execs[i])
		}
	}
	return out
}
