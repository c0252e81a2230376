package reload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/pkg/workflow"
)

const (
	tokenA = "111111:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	tokenB = "222222:BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
)

type stubCredential struct{}

func (stubCredential) Description() workflow.CredentialDescription {
	return workflow.CredentialDescription{Name: "reload.test.cred"}
}

func (stubCredential) Authenticate(workflow.Credentials, *http.Request) error { return nil }

func (stubCredential) Test(context.Context, *http.Client, workflow.Credentials) error { return nil }

func init() {
	core.RegisterCredential(stubCredential{})
}

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(context.Context) error {
	f.calls++
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func configYAML(token, bind string) string {
	return `version: "1"
gateway:
  bind: ` + bind + `
store:
  driver: memory
credentials:
  bot:
    type: reload.test.cred
    data:
      accessToken: ` + token + `
`
}

type fixture struct {
	path     string
	creds    *security.CredentialStore
	redactor *security.Redactor
	host     *fakeReconciler
	audit    *bytes.Buffer
	handler  *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tgflow.yaml")
	writeFile(t, path, configYAML(tokenA, "127.0.0.1:8080"))

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	f := &fixture{
		path:     path,
		creds:    security.NewCredentialStore(),
		redactor: security.NewRedactor(),
		host:     &fakeReconciler{},
		audit:    &bytes.Buffer{},
	}
	f.creds.Set("bot", security.Credential{Type: "reload.test.cred", Data: map[string]string{"accessToken": tokenA}})

	f.handler, err = NewHandler(HandlerOptions{
		ConfigPath:  path,
		Credentials: f.creds,
		Redactor:    f.redactor,
		Host:        f.host,
		Audit:       security.NewAuditLogger(security.AuditLoggerConfig{Writer: f.audit}),
		Logger:      testLogger(),
	}, cfg)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestHandler_RotatesCredentials(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.path, configYAML(tokenB, "127.0.0.1:8080"))

	if err := f.handler.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	got, err := f.creds.Lookup("bot", "reload.test.cred")
	if err != nil {
		t.Fatal(err)
	}
	if got["accessToken"] != tokenB {
		t.Errorf("accessToken = %q, want rotated token", got["accessToken"])
	}
	if f.host.calls != 1 {
		t.Errorf("reconcile calls = %d, want 1", f.host.calls)
	}
	if out := f.redactor.Redact("token " + tokenB); strings.Contains(out, tokenB) {
		t.Errorf("redactor not synced: %s", out)
	}
	if !strings.Contains(f.audit.String(), `"type":"config_reload"`) {
		t.Errorf("audit = %s", f.audit.String())
	}
}

func TestHandler_InvalidConfigLeavesCredentials(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.path, "version: \"9\"\n")

	if err := f.handler.Reload(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	got, _ := f.creds.Lookup("bot", "reload.test.cred")
	if got["accessToken"] != tokenA {
		t.Error("credentials changed by an invalid config")
	}
	if f.host.calls != 0 {
		t.Error("reconcile ran for an invalid config")
	}
}

func TestHandler_MissingFile(t *testing.T) {
	f := newFixture(t)
	if err := os.Remove(f.path); err != nil {
		t.Fatal(err)
	}
	if err := f.handler.Reload(context.Background()); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestHandler_RestartRequired(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.path, configYAML(tokenB, "127.0.0.1:9090"))

	err := f.handler.Reload(context.Background())
	if !errors.Is(err, ErrRestartRequired) {
		t.Fatalf("err = %v, want ErrRestartRequired", err)
	}
	got, _ := f.creds.Lookup("bot", "reload.test.cred")
	if got["accessToken"] != tokenB {
		t.Error("credentials should still be applied")
	}
}

func TestHandler_ReconcileError(t *testing.T) {
	f := newFixture(t)
	f.host.err = errors.New("telegram down")

	err := f.handler.Reload(context.Background())
	if err == nil || !strings.Contains(err.Error(), "telegram down") {
		t.Fatalf("err = %v", err)
	}
}

func TestHandler_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.handler.Reload(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
