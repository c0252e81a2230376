package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/security"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	bearer := config.AuthConfig{BearerToken: "secret-token"}
	basic := config.AuthConfig{BasicUser: "admin", BasicPass: "pass123"}
	both := config.AuthConfig{BearerToken: "my-token", BasicUser: "admin", BasicPass: "pass"}

	tests := []struct {
		name  string
		cfg   config.AuthConfig
		setup func(r *http.Request)
		want  int
	}{
		{"valid bearer", bearer, func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") }, http.StatusOK},
		{"wrong bearer", bearer, func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong-token") }, http.StatusUnauthorized},
		{"bearer prefix only", bearer, func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") }, http.StatusUnauthorized},
		{"no header", bearer, func(*http.Request) {}, http.StatusUnauthorized},
		{"valid basic", basic, func(r *http.Request) { r.SetBasicAuth("admin", "pass123") }, http.StatusOK},
		{"wrong basic password", basic, func(r *http.Request) { r.SetBasicAuth("admin", "wrongpass") }, http.StatusUnauthorized},
		{"basic against bearer config", bearer, func(r *http.Request) { r.SetBasicAuth("admin", "secret-token") }, http.StatusUnauthorized},
		{"both: bearer", both, func(r *http.Request) { r.Header.Set("Authorization", "Bearer my-token") }, http.StatusOK},
		{"both: basic", both, func(r *http.Request) { r.SetBasicAuth("admin", "pass") }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()

			authMiddleware(tt.cfg, nil)(okHandler()).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate challenge")
			}
		})
	}
}

func TestAuthMiddleware_Challenge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg    config.AuthConfig
		prefix string
	}{
		{config.AuthConfig{BearerToken: "t"}, "Bearer "},
		{config.AuthConfig{BasicUser: "u", BasicPass: "p"}, "Basic "},
		{config.AuthConfig{BearerToken: "t", BasicUser: "u", BasicPass: "p"}, "Basic "},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		authMiddleware(tt.cfg, nil)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

		got := rr.Header().Get("WWW-Authenticate")
		if !strings.HasPrefix(got, tt.prefix) || !strings.Contains(got, authRealm) {
			t.Errorf("challenge = %q, want prefix %q", got, tt.prefix)
		}
		if !strings.Contains(rr.Body.String(), `"message":"unauthorized"`) {
			t.Errorf("body = %s", rr.Body.String())
		}
	}
}

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.AuthConfig
		want bool
	}{
		{"empty", config.AuthConfig{}, false},
		{"bearer only", config.AuthConfig{BearerToken: "tok"}, true},
		{"basic complete", config.AuthConfig{BasicUser: "u", BasicPass: "p"}, true},
		{"basic partial user", config.AuthConfig{BasicUser: "u"}, false},
		{"basic partial pass", config.AuthConfig{BasicPass: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_EmitsAuditEvents(t *testing.T) {
	t.Parallel()

	var events []security.AuditEvent
	audit := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) { events = append(events, e) },
	})
	handler := authMiddleware(config.AuthConfig{BearerToken: "tok"}, audit)(okHandler())

	for _, header := range []string{"Bearer tok", "Bearer nope", ""} {
		req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []struct {
		typ    security.EventType
		detail string
	}{
		{security.EventAuthSuccess, "bearer"},
		{security.EventAuthFailure, "invalid credentials"},
		{security.EventAuthFailure, "missing authorization header"},
	}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, w := range want {
		if events[i].Type != w.typ || events[i].Detail != w.detail {
			t.Errorf("event %d = %s %q, want %s %q", i, events[i].Type, events[i].Detail, w.typ, w.detail)
		}
	}
	if events[1].Metadata["path"] != "/api/workflows" {
		t.Errorf("metadata = %v", events[1].Metadata)
	}
}
