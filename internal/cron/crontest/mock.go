// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync/atomic"

	"github.com/flemzord/tgflow/internal/cron"
)

// MockJob is a configurable cron.Job.
type MockJob struct {
	JobName string
	Expr    string
	RunFunc func(ctx context.Context) error
	Calls   atomic.Int32
}

var _ cron.Job = (*MockJob)(nil)

// Name implements cron.Job.
func (m *MockJob) Name() string { return m.JobName }

// Schedule implements cron.Job.
func (m *MockJob) Schedule() string { return m.Expr }

// Run implements cron.Job.
func (m *MockJob) Run(ctx context.Context) error {
	m.Calls.Add(1)
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// MockReconciler is a cron.Reconciler that counts calls. When Called is
// non-nil it also receives a value per call without blocking.
type MockReconciler struct {
	Err    error
	Calls  atomic.Int32
	Called chan struct{}
}

// Reconcile implements cron.Reconciler.
func (m *MockReconciler) Reconcile(context.Context) error {
	m.Calls.Add(1)
	if m.Called != nil {
		select {
		case m.Called <- struct{}{}:
		default:
		}
	}
	return m.Err
}

// MockPruner is a cron.Pruner backed by PruneFunc.
type MockPruner struct {
	PruneFunc func(keep int) (int, error)
	Calls     atomic.Int32
}

// Prune implements cron.Pruner.
func (m *MockPruner) Prune(_ context.Context, keep int) (int, error) {
	m.Calls.Add(1)
	if m.PruneFunc != nil {
		return m.PruneFunc(keep)
	}
	return 0, nil
}
