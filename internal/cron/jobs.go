package cron

import (
	"context"
	"fmt"
	"log/slog"
)

// Reconciler restores the remote webhook registrations of active workflows.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// ReconcileJob periodically re-registers webhooks that were removed or
// replaced outside tgflow, for example by another process calling
// setWebhook with the same bot token.
type ReconcileJob struct {
	Host         Reconciler
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/15 * * * *"
}

// Compile-time interface check.
var _ Job = (*ReconcileJob)(nil)

// Name implements Job.
func (j *ReconcileJob) Name() string { return "webhook_reconcile" }

// Schedule implements Job.
func (j *ReconcileJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/15 * * * *"
}

// Run reconciles every active workflow.
func (j *ReconcileJob) Run(ctx context.Context) error {
	if err := j.Host.Reconcile(ctx); err != nil {
		return fmt.Errorf("cron: reconcile webhooks: %w", err)
	}
	return nil
}

// Pruner trims recorded execution history.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int, error)
}

// HistoryPruneJob keeps the execution history at most Keep entries long.
type HistoryPruneJob struct {
	Store        Pruner
	Keep         int
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

// Compile-time interface check.
var _ Job = (*HistoryPruneJob)(nil)

// Name implements Job.
func (j *HistoryPruneJob) Name() string { return "history_prune" }

// Schedule implements Job.
func (j *HistoryPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run deletes the oldest executions beyond Keep. A non-positive Keep
// disables pruning.
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	if j.Keep <= 0 {
		return nil
	}
	n, err := j.Store.Prune(ctx, j.Keep)
	if err != nil {
		return fmt.Errorf("cron: prune history: %w", err)
	}
	if n > 0 {
		j.Logger.Info("cron: pruned executions", "count", n, "keep", j.Keep)
	}
	return nil
}
