package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// WorkflowStarted is the acknowledgement sent for onReceived webhooks.
const WorkflowStarted = "Workflow was started"

// Ack is the response to an inbound delivery.
type Ack struct {
	Message     string            `json:"message,omitempty"`
	Data        []json.RawMessage `json:"data,omitempty"`
	ExecutionID string            `json:"-"`
}

// HandleWebhook runs the trigger of workflow id for one delivery at
// webhookPath. For onReceived webhooks the remaining nodes run in the
// background; lastNode webhooks wait and return the final items.
func (h *Host) HandleWebhook(ctx context.Context, id, webhookPath string, body []byte, headers http.Header) (*Ack, error) {
	rt, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	if !h.isActive(id) {
		return nil, fmt.Errorf("%w: %s is not active", ErrWorkflowNotFound, id)
	}
	wh, ok := webhookByPath(rt.trigger.Description(), webhookPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrWebhookNotFound, id, webhookPath)
	}

	exec := Execution{
		ID:         uuid.NewString(),
		WorkflowID: id,
		StartedAt:  time.Now(),
	}

	wc := &webhookContext{
		nodeContext: h.nodeContext(rt, rt.cfg.Trigger),
		body:        body,
		headers:     headers,
	}
	resp, err := rt.trigger.Webhook(ctx, wc)
	if errors.Is(err, workflow.ErrUnauthorized) {
		h.metrics.RecordWebhook(id, "unauthorized")
		return nil, fmt.Errorf("host: workflow %s: %w", id, err)
	}
	if err != nil {
		h.metrics.RecordWebhook(id, "error")
		exec.Status = StatusError
		exec.Error = err.Error()
		h.finish(ctx, rt, exec)
		return nil, fmt.Errorf("host: workflow %s: trigger: %w", id, err)
	}
	h.metrics.RecordWebhook(id, "accepted")

	var items []workflow.Item
	if len(resp.WorkflowData) > 0 {
		items = resp.WorkflowData[0]
	}

	if wh.ResponseMode == workflow.ResponseLastNode {
		exec = h.run(ctx, rt, exec, items)
		ack := &Ack{ExecutionID: exec.ID}
		if exec.Status == StatusError {
			return ack, fmt.Errorf("host: workflow %s: %s", id, exec.Error)
		}
		for _, it := range exec.Items {
			ack.Data = append(ack.Data, it.JSON)
		}
		return ack, nil
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.run(context.WithoutCancel(ctx), rt, exec, items)
	}()
	return &Ack{Message: WorkflowStarted, ExecutionID: exec.ID}, nil
}

// run feeds items through the action nodes in order and records the result.
func (h *Host) run(ctx context.Context, rt *runtime, exec Execution, items []workflow.Item) Execution {
	ctx, span := h.tracer.Start(ctx, "workflow "+rt.cfg.ID, trace.WithAttributes(
		attribute.String("workflow.id", rt.cfg.ID),
		attribute.String("execution.id", exec.ID),
	))
	defer span.End()

	exec.Status = StatusSuccess
	for _, n := range rt.nodes {
		ec := &executeContext{
			nodeContext: h.nodeContext(rt, n.cfg),
			input:       items,
		}
		out, err := n.executor.Execute(ctx, ec)
		if err != nil {
			exec.Status = StatusError
			exec.Error = fmt.Sprintf("node %s: %v", n.cfg.DisplayName(), err)
			span.SetStatus(codes.Error, "node failed")
			break
		}
		items = nil
		if len(out) > 0 {
			items = out[0]
		}
	}
	exec.Items = items
	return h.finish(ctx, rt, exec)
}

func (h *Host) finish(ctx context.Context, rt *runtime, exec Execution) Execution {
	exec.FinishedAt = time.Now()
	h.metrics.RecordExecution(exec.WorkflowID, string(exec.Status))

	if exec.Status == StatusError {
		rt.logger.Error("execution failed", "execution", exec.ID, "error", exec.Error)
	} else {
		rt.logger.Info("execution finished",
			"execution", exec.ID,
			"items", len(exec.Items),
			"duration", exec.Duration(),
		)
	}

	for _, r := range h.recorders {
		if err := r.Record(ctx, exec); err != nil {
			rt.logger.Warn("recording execution failed", "execution", exec.ID, "error", err)
		}
	}
	return exec
}

func webhookByPath(desc workflow.NodeDescription, p string) (workflow.WebhookDescription, bool) {
	p = strings.Trim(p, "/")
	for _, wh := range desc.Webhooks {
		if strings.Trim(wh.Path, "/") == p {
			return wh, true
		}
	}
	return workflow.WebhookDescription{}, false
}
