package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/flemzord/tgflow/internal/config"
)

const testToken = "123456789:AAH-testtesttesttesttesttesttesttest"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// botAPI serves a fixed webhook URL and records the Bot API methods called.
func botAPI(t *testing.T, current string) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		mu.Lock()
		calls = append(calls, method)
		mu.Unlock()
		var result any = true
		switch method {
		case "getWebhookInfo":
			result = map[string]any{"url": current}
		case "getMe":
			result = map[string]any{"id": 1, "is_bot": true, "first_name": "bot"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), calls...)
	}
}

func writeTestConfig(t *testing.T, apiURL string) string {
	t.Helper()
	raw := `version: "1"
base_url: https://flows.example.com
log:
  level: error
telegram:
  api_url: ` + apiURL + `
store:
  driver: memory
credentials:
  bot:
    type: telegramApi
    data:
      accessToken: ` + testToken + `
workflows:
  - id: inbox
    trigger:
      type: telegramTrigger
      credentials:
        telegramApi: bot
      parameters:
        updates: ["*"]
`
	path := filepath.Join(t.TempDir(), "tgflow.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	want := []string{"version", "start", "config", "init", "webhook", "credential", "service"}
	for _, name := range want {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionCmd_ListsNodeTypes(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"tgflow dev", "telegramTrigger", "telegram", "telegramApi"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCheck(t *testing.T) {
	srv, _ := botAPI(t, "")
	out, err := execute(t, "config", "check", writeTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	if !strings.Contains(out, "Configuration OK (1 workflows, 1 active)") || !strings.Contains(out, "inbox") {
		t.Errorf("output = %s", out)
	}
}

func TestConfigCheck_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("version: \"2\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "check", path); err == nil {
		t.Error("expected validation error")
	}
}

func TestWebhookStatus(t *testing.T) {
	srv, calls := botAPI(t, "https://flows.example.com/webhook/inbox/webhook")

	out, err := execute(t, "webhook", "status", "inbox", "-c", writeTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("webhook status: %v", err)
	}
	if !strings.Contains(out, "inbox: registered") {
		t.Errorf("output = %s", out)
	}
	if got := strings.Join(calls(), ","); got != "getWebhookInfo" {
		t.Errorf("calls = %s", got)
	}
}

func TestWebhookRegister(t *testing.T) {
	srv, calls := botAPI(t, "")

	out, err := execute(t, "webhook", "register", "inbox", "-c", writeTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("webhook register: %v", err)
	}
	if !strings.Contains(out, "webhook registered") {
		t.Errorf("output = %s", out)
	}
	if got := strings.Join(calls(), ","); got != "getWebhookInfo,setWebhook" {
		t.Errorf("calls = %s", got)
	}
}

func TestWebhookStatus_UnknownWorkflow(t *testing.T) {
	srv, _ := botAPI(t, "")
	if _, err := execute(t, "webhook", "status", "nope", "-c", writeTestConfig(t, srv.URL)); err == nil {
		t.Error("expected error for unknown workflow")
	}
}

func TestCredentialTest(t *testing.T) {
	srv, calls := botAPI(t, "")

	out, err := execute(t, "credential", "test", "bot", "-c", writeTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("credential test: %v", err)
	}
	if !strings.Contains(out, "bot: OK") {
		t.Errorf("output = %s", out)
	}
	if got := strings.Join(calls(), ","); got != "getMe" {
		t.Errorf("calls = %s", got)
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: testToken},
		{in: "", wantErr: true},
		{in: "abc:def", wantErr: true},
		{in: "123:short", wantErr: true},
	}
	for _, tt := range tests {
		if err := validateToken(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("validateToken(%q) = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateBaseURL(t *testing.T) {
	for _, ok := range []string{"https://flows.example.com", "http://localhost:8080/flows"} {
		if err := validateBaseURL(ok); err != nil {
			t.Errorf("validateBaseURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "flows.example.com", "ftp://x"} {
		if err := validateBaseURL(bad); err == nil {
			t.Errorf("validateBaseURL(%q) should fail", bad)
		}
	}
}

func TestWriteInit_ProducesValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tgflow.yaml")

	a := initAnswers{
		Token:    testToken,
		BaseURL:  "https://flows.example.com",
		Updates:  []string{"message", "callback_query"},
		Download: true,
		Echo:     true,
		Store:    "sqlite",
	}
	if err := writeInit(path, a); err != nil {
		t.Fatalf("writeInit: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), testToken) {
		t.Error("token written into the config file")
	}

	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("read .env: %v", err)
	}
	if env[tokenEnv] != testToken {
		t.Errorf(".env %s = %q", tokenEnv, env[tokenEnv])
	}

	t.Setenv(tokenEnv, testToken)
	cfg, err := config.Parse(raw, path)
	if err != nil {
		t.Fatalf("parse generated config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("generated config invalid: %v\n%s", err, raw)
	}

	if len(cfg.Workflows) != 1 || len(cfg.Workflows[0].Nodes) != 1 {
		t.Fatalf("workflows = %+v", cfg.Workflows)
	}
	var updates []string
	p := cfg.Workflows[0].Trigger.Parameters["updates"]
	if err := p.Decode(&updates); err != nil {
		t.Fatal(err)
	}
	if strings.Join(updates, ",") != "message,callback_query" {
		t.Errorf("updates = %v", updates)
	}
	if cfg.Credentials["bot"].Data["accessToken"] != testToken {
		t.Error("token not expanded from the environment")
	}
	if cfg.Store.Retain != 1000 {
		t.Errorf("retain = %d", cfg.Store.Retain)
	}
}

func TestRenderConfig_Minimal(t *testing.T) {
	raw, err := renderConfig(initAnswers{BaseURL: "https://x.example", Updates: []string{"*"}, Store: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	if strings.Contains(s, "nodes:") || strings.Contains(s, "additionalFields") {
		t.Errorf("unexpected optional sections:\n%s", s)
	}
	if !strings.Contains(s, "driver: memory") {
		t.Errorf("store driver missing:\n%s", s)
	}
}

func TestProgram_StartStop(t *testing.T) {
	started := make(chan struct{})
	p := &program{
		run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		},
		onExit: func(error) { t.Error("onExit called on requested stop") },
	}

	if err := p.Start(nil); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := p.Stop(nil); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestProgram_UnexpectedExit(t *testing.T) {
	exited := make(chan error, 1)
	p := &program{
		run:    func(context.Context) error { return errors.New("boom") },
		onExit: func(err error) { exited <- err },
	}
	if err := p.Start(nil); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-exited:
		if err == nil || err.Error() != "boom" {
			t.Errorf("onExit(%v)", err)
		}
	case <-time.After(time.Second):
		t.Fatal("onExit not called")
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := serviceConfig("/etc/tgflow/tgflow.yaml")
	if cfg.Name != "tgflow" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if got := strings.Join(cfg.Arguments, " "); got != "service run --config /etc/tgflow/tgflow.yaml" {
		t.Errorf("Arguments = %q", got)
	}
}
