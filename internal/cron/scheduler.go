package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job outcomes reported to a JobObserver.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// ErrStarted is returned by RegisterJob once the scheduler is running.
var ErrStarted = errors.New("cron: scheduler already started")

// JobObserver receives the outcome of every tick. *telemetry.Metrics
// implements it.
type JobObserver interface {
	ObserveJob(job, outcome string, d time.Duration)
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Logger   *slog.Logger
	Observer JobObserver

	// Timeout bounds a single run. Zero leaves runs bounded only by Stop.
	Timeout time.Duration
}

// entry is one registered job. running is held for the duration of a run
// so a slow job skips its next tick instead of overlapping with itself.
type entry struct {
	job      Job
	schedule cron.Schedule
	running  sync.Mutex
}

// Scheduler runs Jobs on their cron schedules.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	names   map[string]struct{}
	cron    *cron.Cron
	cancel  context.CancelFunc

	logger   *slog.Logger
	observer JobObserver
	timeout  time.Duration
}

// NewScheduler creates a scheduler. Jobs must be registered before Start.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		names:    make(map[string]struct{}),
		logger:   logger.With("component", "cron"),
		observer: opts.Observer,
		timeout:  opts.Timeout,
	}
}

// RegisterJob adds j after parsing its schedule. Names must be unique.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrStarted
	}
	name := j.Name()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}
	sched, err := cron.ParseStandard(j.Schedule())
	if err != nil {
		return fmt.Errorf("cron: job %q: schedule %q: %w", name, j.Schedule(), err)
	}

	s.names[name] = struct{}{}
	s.entries = append(s.entries, &entry{job: j, schedule: sched})
	return nil
}

// Start begins ticking. Calling it twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.cron = cron.New()
	for _, e := range s.entries {
		s.cron.Schedule(e.schedule, cron.FuncJob(func() { s.tick(ctx, e) }))
	}
	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop cancels running jobs and waits for them to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	cancel()
	select {
	case <-c.Stop().Done():
		s.logger.Info("cron: scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: waiting for running jobs: %w", ctx.Err())
	}
}

// tick runs e once unless its previous run is still in progress.
func (s *Scheduler) tick(ctx context.Context, e *entry) {
	name := e.job.Name()
	if !e.running.TryLock() {
		s.logger.Warn("cron: job still running, skipping tick", "job", name)
		s.observe(name, OutcomeSkipped, 0)
		return
	}
	defer e.running.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := e.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("cron: job failed", "job", name, "duration", elapsed, "error", err)
		s.observe(name, OutcomeError, elapsed)
		return
	}
	s.logger.Debug("cron: job completed", "job", name, "duration", elapsed)
	s.observe(name, OutcomeOK, elapsed)
}

func (s *Scheduler) observe(job, outcome string, d time.Duration) {
	if s.observer != nil {
		s.observer.ObserveJob(job, outcome, d)
	}
}
