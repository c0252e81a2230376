package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const shutdownTimeout = 30 * time.Second

// App manages the lifecycle of the host components.
type App struct {
	components []component
	logger     *slog.Logger
}

type component struct {
	id      string
	value   any
	started bool
}

// NewApp creates an empty App.
func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{logger: logger.With("component", "core")}
}

// Add appends a component, validating it first when it implements Validator.
// Components start in the order they were added.
func (a *App) Add(id string, value any) error {
	if v, ok := value.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validating component %s: %w", id, err)
		}
	}
	a.components = append(a.components, component{id: id, value: value})
	a.logger.Debug("component added", "id", id)
	return nil
}

// Start starts all components that implement Starter, in order.
// If any Start() fails, already-started components are stopped in reverse order.
func (a *App) Start() error {
	for i := range a.components {
		c := &a.components[i]
		s, ok := c.value.(Starter)
		if !ok {
			continue
		}
		a.logger.Info("starting component", "id", c.id)
		if err := s.Start(); err != nil {
			a.logger.Error("component start failed", "id", c.id, "error", err)
			a.stopComponents(i - 1)
			return fmt.Errorf("starting component %s: %w", c.id, err)
		}
		c.started = true
	}
	a.logger.Info("all components started")
	return nil
}

// Stop stops all started components in reverse order with a timeout.
func (a *App) Stop() {
	a.stopComponents(len(a.components) - 1)
}

func (a *App) stopComponents(fromIndex int) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := fromIndex; i >= 0; i-- {
		c := &a.components[i]
		if !c.started {
			continue
		}
		if s, ok := c.value.(Stopper); ok {
			a.logger.Info("stopping component", "id", c.id)
			if err := s.Stop(ctx); err != nil {
				a.logger.Error("component stop error", "id", c.id, "error", err)
			}
		}
		c.started = false
	}
}

// Run starts all components and blocks until ctx is cancelled, then stops
// them.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	a.logger.Info("shutdown requested")
	a.Stop()
	a.logger.Info("shutdown complete")
	return nil
}
