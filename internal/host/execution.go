package host

import (
	"context"
	"time"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// Status is the outcome of an execution.
type Status string

// Execution statuses.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Execution is the record of one workflow run, from trigger output to the
// last node.
type Execution struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflowId"`
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Items      []workflow.Item `json:"items,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// Duration returns how long the execution ran.
func (e Execution) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Recorder receives every finished execution. Record errors are logged and
// never fail the execution.
type Recorder interface {
	Record(ctx context.Context, e Execution) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Execution) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, e Execution) error {
	return f(ctx, e)
}

// WithoutBinaryData returns a copy of e whose attachments keep their
// metadata but not their bytes.
func (e Execution) WithoutBinaryData() Execution {
	if len(e.Items) == 0 {
		return e
	}
	items := make([]workflow.Item, len(e.Items))
	for i, it := range e.Items {
		items[i] = it
		if len(it.Binary) == 0 {
			continue
		}
		items[i].Binary = make(map[string]workflow.BinaryData, len(it.Binary))
		for k, b := range it.Binary {
			b.Data = nil
			items[i].Binary[k] = b
		}
	}
	e.Items = items
	return e
}
