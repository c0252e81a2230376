package gateway

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/host"
)

const adminToken = "admin-token"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRuntime records the calls the gateway makes on the host.
type fakeRuntime struct {
	mu          sync.Mutex
	ack         *host.Ack
	err         error
	activateErr error
	workflows   []host.WorkflowStatus
	calls       []string
	body        []byte
}

func (f *fakeRuntime) HandleWebhook(_ context.Context, id, path string, body []byte, _ http.Header) (*host.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "webhook "+id+"/"+path)
	f.body = body
	if f.err != nil {
		return nil, f.err
	}
	if f.ack != nil {
		return f.ack, nil
	}
	return &host.Ack{Message: host.WorkflowStarted, ExecutionID: "exec-1"}, nil
}

func (f *fakeRuntime) Workflows() []host.WorkflowStatus {
	return f.workflows
}

func (f *fakeRuntime) Activate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "activate "+id)
	return f.activateErr
}

func (f *fakeRuntime) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeHistory struct {
	execs     []host.Execution
	err       error
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]host.Execution, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.execs, nil
}

func newTestGateway(t *testing.T, opts Options) *Gateway {
	t.Helper()
	if opts.Host == nil {
		opts.Host = &fakeRuntime{}
	}
	if opts.Config.Bind == "" {
		opts.Config = config.GatewayConfig{
			Bind: "127.0.0.1:0",
			Auth: config.AuthConfig{BearerToken: adminToken},
		}
	}
	opts.Logger = testLogger()
	return New(opts)
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
