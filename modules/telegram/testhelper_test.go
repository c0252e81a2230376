package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgflow/pkg/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func writeResult(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()
	writeJSON(t, w, map[string]any{"ok": true, "result": result})
}

// rewriteTransport sends every request to target, keeping path and query,
// the same way the host redirects the public API URL to a local Bot API
// server.
type rewriteTransport struct {
	target *url.URL
	seen   []string
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	rt.seen = append(rt.seen, req.Method+" "+req.URL.Host+req.URL.Path)
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// newTestServer starts srv and returns a client that routes every call to it.
func newTestServer(t *testing.T, h http.Handler) (*http.Client, *rewriteTransport) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	rt := &rewriteTransport{target: target}
	return &http.Client{Transport: rt}, rt
}

// fakeContext implements every workflow context interface for tests.
type fakeContext struct {
	creds          workflow.Credentials
	credsErr       error
	params         map[string]any
	itemParams     []map[string]any
	client         *http.Client
	logger         *slog.Logger
	webhookURL     string
	webhookSecret  string
	body           []byte
	headers        http.Header
	input          []workflow.Item
	continueOnFail bool
}

func newFakeContext(client *http.Client) *fakeContext {
	return &fakeContext{
		creds:   workflow.Credentials{"accessToken": "123:TOKEN"},
		params:  map[string]any{},
		client:  client,
		logger:  discardLogger(),
		headers: http.Header{},
	}
}

func (f *fakeContext) Credentials(_ context.Context, credentialType string) (workflow.Credentials, error) {
	if credentialType != CredentialName {
		return nil, fmt.Errorf("unexpected credential type %s", credentialType)
	}
	return f.creds, f.credsErr
}

func (f *fakeContext) Parameter(name string, out any) error {
	v, ok := f.params[name]
	if !ok {
		return nil
	}
	return decodeVia(v, out)
}

func (f *fakeContext) ItemParameter(name string, item int, out any) error {
	if item < len(f.itemParams) {
		if v, ok := f.itemParams[item][name]; ok {
			return decodeVia(v, out)
		}
	}
	return f.Parameter(name, out)
}

// decodeVia round-trips v through YAML the way the host stores parameters.
func decodeVia(v, out any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func (f *fakeContext) HTTPClient() *http.Client { return f.client }
func (f *fakeContext) Logger() *slog.Logger { return f.logger }
func (f *fakeContext) WebhookURL(_ string) string { return f.webhookURL }
func (f *fakeContext) WebhookSecret(_ string) string { return f.webhookSecret }
func (f *fakeContext) Body() []byte { return f.body }
func (f *fakeContext) Headers() http.Header { return f.headers }
func (f *fakeContext) Input() []workflow.Item { return f.input }
func (f *fakeContext) ContinueOnFail() bool { return f.continueOnFail }

func (f *fakeContext) PrepareBinaryData(data []byte, fileName, mimeType string) (workflow.BinaryData, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return workflow.BinaryData{
		Data:          data,
		MimeType:      mimeType,
		FileName:      fileName,
		FileExtension: path.Ext(fileName),
	}, nil
}

var (
	_ workflow.HookContext    = (*fakeContext)(nil)
	_ workflow.WebhookContext = (*fakeContext)(nil)
	_ workflow.ExecuteContext = (*fakeContext)(nil)
)
