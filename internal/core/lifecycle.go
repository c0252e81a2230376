package core

import "context"

// Validator is implemented by components that can verify their configuration
// is complete and correct. Called by App.Add.
// Validate should be read-only, with no side effects.
type Validator interface {
	Validate() error
}

// Starter is implemented by components that need to start background work
// (listeners, schedulers, webhook registrations).
type Starter interface {
	Start() error
}

// Stopper is implemented by components that need to clean up resources.
// Called during shutdown in reverse order of Start().
type Stopper interface {
	Stop(ctx context.Context) error
}
