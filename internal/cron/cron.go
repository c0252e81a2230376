// Package cron runs the host's periodic maintenance: re-registering
// webhooks that drifted and trimming execution history.
package cron

import "context"

// Job is one periodic task.
type Job interface {
	// Name identifies the job in logs and metrics. It must be unique
	// within a Scheduler.
	Name() string

	// Schedule is a five-field cron expression, optionally prefixed with
	// TZ=, or a descriptor such as "@hourly" or "@every 10m".
	Schedule() string

	// Run performs one tick. ctx is cancelled on Stop or when the
	// scheduler's run timeout expires.
	Run(ctx context.Context) error
}
