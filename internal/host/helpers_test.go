package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/pkg/workflow"
)

const (
	testTrigger = "host.test.trigger"
	testAction  = "host.test.action"
	testCred    = "host.test.cred"

	secretHeader = "X-Test-Secret"
)

func init() {
	core.RegisterNode(stubTrigger{})
	core.RegisterNode(stubAction{})
	core.RegisterCredential(stubCredential{})
}

// lifecycle calls, keyed by webhook URL so parallel tests stay apart.
var calls sync.Map

func record(url, op string) {
	v, _ := calls.LoadOrStore(url, &callLog{})
	log := v.(*callLog)
	log.mu.Lock()
	log.ops = append(log.ops, op)
	log.mu.Unlock()
}

func opsFor(url string) []string {
	v, ok := calls.Load(url)
	if !ok {
		return nil
	}
	log := v.(*callLog)
	log.mu.Lock()
	defer log.mu.Unlock()
	return append([]string(nil), log.ops...)
}

type callLog struct {
	mu  sync.Mutex
	ops []string
}

type stubTrigger struct{}

func (stubTrigger) Description() workflow.NodeDescription {
	return workflow.NodeDescription{
		Name:        testTrigger,
		Credentials: []workflow.CredentialRef{{Name: testCred, Required: true}},
		Webhooks: []workflow.WebhookDescription{{
			Name:         "default",
			HTTPMethod:   http.MethodPost,
			ResponseMode: workflow.ResponseOnReceived,
			Path:         "webhook",
		}},
	}
}

func (stubTrigger) Webhook(ctx context.Context, wc workflow.WebhookContext) (workflow.WebhookResponse, error) {
	var fail bool
	if err := wc.Parameter("fail", &fail); err != nil {
		return workflow.WebhookResponse{}, err
	}
	if want := wc.WebhookSecret("default"); want != "" && wc.Headers().Get(secretHeader) != want {
		return workflow.WebhookResponse{}, workflow.ErrUnauthorized
	}
	if fail || !json.Valid(wc.Body()) {
		return workflow.WebhookResponse{}, workflow.Configf(testTrigger, "rejected delivery")
	}
	return workflow.SingleOutput(workflow.NewItem(wc.Body())), nil
}

func (stubTrigger) WebhookMethods() map[string]workflow.WebhookLifecycle {
	return map[string]workflow.WebhookLifecycle{"default": stubLifecycle{}}
}

type stubLifecycle struct{}

func (stubLifecycle) CheckExists(_ context.Context, hc workflow.HookContext) (bool, error) {
	record(hc.WebhookURL("default"), "check")
	var exists bool
	err := hc.Parameter("exists", &exists)
	return exists, err
}

func (stubLifecycle) Create(ctx context.Context, hc workflow.HookContext) (bool, error) {
	record(hc.WebhookURL("default"), "create")
	if _, err := hc.Credentials(ctx, testCred); err != nil {
		return false, err
	}
	var msg string
	if err := hc.Parameter("createErr", &msg); err != nil {
		return false, err
	}
	if msg != "" {
		return false, errors.New(msg)
	}
	return true, nil
}

func (stubLifecycle) Delete(_ context.Context, hc workflow.HookContext) (bool, error) {
	record(hc.WebhookURL("default"), "delete")
	deleted := true
	err := hc.Parameter("deleteOK", &deleted)
	return deleted, err
}

type stubAction struct{}

func (stubAction) Description() workflow.NodeDescription {
	return workflow.NodeDescription{Name: testAction}
}

func (stubAction) Execute(_ context.Context, ec workflow.ExecuteContext) ([][]workflow.Item, error) {
	var fail bool
	if err := ec.Parameter("fail", &fail); err != nil {
		return nil, err
	}
	if fail {
		return nil, errors.New("boom")
	}
	out := make([]workflow.Item, 0, len(ec.Input()))
	for i := range ec.Input() {
		var text string
		if err := ec.ItemParameter("text", i, &text); err != nil {
			return nil, err
		}
		payload, _ := json.Marshal(map[string]string{"text": text})
		out = append(out, workflow.NewItem(payload))
	}
	return [][]workflow.Item{out}, nil
}

type stubCredential struct{}

func (stubCredential) Description() workflow.CredentialDescription {
	return workflow.CredentialDescription{Name: testCred}
}

func (stubCredential) Authenticate(workflow.Credentials, *http.Request) error { return nil }

func (stubCredential) Test(_ context.Context, _ *http.Client, creds workflow.Credentials) error {
	if creds.Get("token") == "bad" {
		return errors.New("token rejected")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// params parses a YAML mapping into node parameters.
func params(t *testing.T, src string) map[string]yaml.Node {
	t.Helper()
	var out map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(src), &out); err != nil {
		t.Fatalf("parse params: %v", err)
	}
	return out
}

func testWorkflow(id string, trigger map[string]yaml.Node, nodes ...config.NodeConfig) config.WorkflowConfig {
	return config.WorkflowConfig{
		ID: id,
		Trigger: config.NodeConfig{
			Type:        testTrigger,
			Credentials: map[string]string{testCred: "main"},
			Parameters:  trigger,
		},
		Nodes: nodes,
	}
}

type chanRecorder chan Execution

func (r chanRecorder) Record(_ context.Context, e Execution) error {
	r <- e
	return nil
}

func newTestHost(t *testing.T, opts Options, wfs ...config.WorkflowConfig) *Host {
	t.Helper()
	var gw config.GatewayConfig
	if opts.Config != nil {
		gw = opts.Config.Gateway
	}
	cfg := &config.Config{
		BaseURL: "https://flows.example.com/",
		Gateway: gw,
		Credentials: map[string]config.CredentialConfig{
			"main":   {Type: testCred, Data: map[string]string{"token": "good"}},
			"broken": {Type: testCred, Data: map[string]string{"token": "bad"}},
		},
		Workflows: wfs,
	}
	opts.Config = cfg
	opts.Credentials = CredentialsFromConfig(cfg)
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	h, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func newAudit(events *[]security.AuditEvent) *security.AuditLogger {
	var mu sync.Mutex
	return security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) {
			mu.Lock()
			*events = append(*events, e)
			mu.Unlock()
		},
	})
}
