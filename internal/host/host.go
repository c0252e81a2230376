// Package host runs configured workflows: it keeps trigger webhooks
// registered, turns inbound deliveries into executions and records them.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/internal/telemetry"
	"github.com/flemzord/tgflow/pkg/workflow"
)

var (
	// ErrWorkflowNotFound is returned for unknown or inactive workflow IDs.
	ErrWorkflowNotFound = errors.New("host: workflow not found")
	// ErrWebhookNotFound is returned when a trigger declares no webhook at
	// the requested path.
	ErrWebhookNotFound = errors.New("host: webhook not found")
)

// Options configures a Host. Config and Credentials are required.
type Options struct {
	Config      *config.Config
	Credentials *security.CredentialStore
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics
	Tracer      trace.Tracer
	Audit       *security.AuditLogger
	Recorders   []Recorder
}

// runtime is a configured workflow with its node types resolved.
type runtime struct {
	cfg     config.WorkflowConfig
	trigger workflow.Trigger
	nodes   []boundNode
	logger  *slog.Logger
}

type boundNode struct {
	cfg      config.NodeConfig
	executor workflow.Executor
}

// Host owns the workflows of one configuration.
type Host struct {
	baseURL   string
	secretKey string
	workflows map[string]*runtime
	order     []string
	creds     *security.CredentialStore
	client    *http.Client
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	audit     *security.AuditLogger
	recorders []Recorder

	mu     sync.Mutex
	active map[string]bool

	inflight sync.WaitGroup
}

// New resolves every workflow's node types against the registry.
func New(opts Options) (*Host, error) {
	if opts.Config == nil {
		return nil, errors.New("host: config is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("host: credential store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.DefaultTelegramTimeout}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	h := &Host{
		baseURL:   strings.TrimRight(opts.Config.BaseURL, "/"),
		secretKey: opts.Config.Gateway.WebhookSecret,
		workflows: make(map[string]*runtime, len(opts.Config.Workflows)),
		creds:     opts.Credentials,
		client:    client,
		logger:    logger.With("component", "host"),
		metrics:   opts.Metrics,
		tracer:    tracer,
		audit:     opts.Audit,
		recorders: opts.Recorders,
		active:    make(map[string]bool),
	}

	for _, wf := range opts.Config.Workflows {
		rt, err := h.bind(wf)
		if err != nil {
			return nil, err
		}
		h.workflows[wf.ID] = rt
		h.order = append(h.order, wf.ID)
	}
	return h, nil
}

func (h *Host) bind(wf config.WorkflowConfig) (*runtime, error) {
	trigger, err := core.LookupTrigger(wf.Trigger.Type)
	if err != nil {
		return nil, fmt.Errorf("host: workflow %s: %w", wf.ID, err)
	}
	rt := &runtime{
		cfg:     wf,
		trigger: trigger,
		logger:  h.logger.With("workflow", wf.ID),
	}
	for _, n := range wf.Nodes {
		exec, err := core.LookupExecutor(n.Type)
		if err != nil {
			return nil, fmt.Errorf("host: workflow %s: %w", wf.ID, err)
		}
		rt.nodes = append(rt.nodes, boundNode{cfg: n, executor: exec})
	}
	return rt, nil
}

// CredentialsFromConfig loads the configured credentials into a store.
func CredentialsFromConfig(cfg *config.Config) *security.CredentialStore {
	store := security.NewCredentialStore()
	for name, c := range cfg.Credentials {
		store.Set(name, security.Credential{Type: c.Type, Data: c.Data})
	}
	return store
}

// Start activates every workflow that is not disabled. It implements
// core.Starter; the first activation failure aborts startup.
func (h *Host) Start() error {
	for _, id := range h.order {
		if !h.workflows[id].cfg.IsActive() {
			continue
		}
		if err := h.Activate(context.Background(), id); err != nil {
			return err
		}
	}
	h.logger.Info("host started", "active", h.activeCount())
	return nil
}

// Stop waits for in-flight executions. Registered webhooks are left in
// place so Telegram keeps queueing updates while the host is down.
func (h *Host) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("host: waiting for executions: %w", ctx.Err())
	}
}

// Wait blocks until every background execution has finished.
func (h *Host) Wait() {
	h.inflight.Wait()
}

// WorkflowStatus describes one configured workflow.
type WorkflowStatus struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Trigger     string   `json:"trigger"`
	Nodes       []string `json:"nodes"`
	Enabled     bool     `json:"enabled"`
	Active      bool     `json:"active"`
	WebhookURLs []string `json:"webhookUrls"`
}

// Workflows lists the configured workflows in ID order.
func (h *Host) Workflows() []WorkflowStatus {
	out := make([]WorkflowStatus, 0, len(h.order))
	for _, id := range h.order {
		rt := h.workflows[id]
		st := WorkflowStatus{
			ID:          id,
			Name:        rt.cfg.Name,
			Trigger:     rt.cfg.Trigger.Type,
			Nodes:       make([]string, 0, len(rt.nodes)),
			Enabled:     rt.cfg.IsActive(),
			Active:      h.isActive(id),
			WebhookURLs: make([]string, 0, 1),
		}
		for _, n := range rt.nodes {
			st.Nodes = append(st.Nodes, n.cfg.DisplayName())
		}
		for _, wh := range rt.trigger.Description().Webhooks {
			st.WebhookURLs = append(st.WebhookURLs, h.webhookURL(rt, wh.Name))
		}
		out = append(out, st)
	}
	return out
}

func (h *Host) lookup(id string) (*runtime, error) {
	rt, ok := h.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return rt, nil
}

// webhookURL is base_url/webhook/<workflow>/<path>.
func (h *Host) webhookURL(rt *runtime, name string) string {
	wh, ok := rt.trigger.Description().Webhook(name)
	if !ok {
		return ""
	}
	return h.baseURL + "/webhook/" + rt.cfg.ID + "/" + strings.TrimLeft(wh.Path, "/")
}

func (h *Host) webhookSecret(rt *runtime, name string) string {
	if h.secretKey == "" {
		return ""
	}
	return security.WebhookSecret(h.secretKey, rt.cfg.ID, name)
}

func (h *Host) isActive(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active[id]
}

func (h *Host) setActive(id string, active bool) {
	h.mu.Lock()
	if active {
		h.active[id] = true
	} else {
		delete(h.active, id)
	}
	n := len(h.active)
	h.mu.Unlock()
	h.metrics.SetActiveWorkflows(n)
}

func (h *Host) activeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}
