// Package gateway provides the HTTP server of tgflow: the Telegram webhook
// endpoint, health and metrics, the execution feed and the admin API. It
// binds to loopback by default.
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/pkg/workflow"
)

const (
	defaultExecutionLimit = 20
	maxExecutionLimit     = 200
)

// handleListWorkflows returns every configured workflow with its state.
func (g *Gateway) handleListWorkflows() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, g.host.Workflows())
	}
}

// handleReconcile re-registers the webhooks of one workflow.
func (g *Gateway) handleReconcile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := g.host.Activate(r.Context(), id); err != nil {
			if errors.Is(err, host.ErrWorkflowNotFound) {
				http.Error(w, "workflow not found", http.StatusNotFound)
				return
			}
			g.logger.Error("reconcile failed", "workflow", id, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": g.redactor.Redact(err.Error())})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
	}
}

// handleListExecutions returns the most recent executions, newest first.
func (g *Gateway) handleListExecutions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.history == nil {
			http.Error(w, "execution history not available", http.StatusServiceUnavailable)
			return
		}

		limit := defaultExecutionLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxExecutionLimit)
		}

		execs, err := g.history.Recent(r.Context(), limit)
		if err != nil {
			g.logger.Error("listing executions failed", "error", err)
			http.Error(w, "failed to list executions", http.StatusInternalServerError)
			return
		}
		if execs == nil {
			execs = []host.Execution{}
		}
		writeJSON(w, http.StatusOK, execs)
	}
}

// nodesJSON lists the compiled node and credential types.
type nodesJSON struct {
	Nodes       []workflow.NodeDescription       `json:"nodes"`
	Credentials []workflow.CredentialDescription `json:"credentials"`
}

// handleListNodes lists the registered node and credential types.
func (g *Gateway) handleListNodes() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, nodesJSON{
			Nodes:       core.Nodes(),
			Credentials: core.Credentials(),
		})
	}
}

// handleGetConfig returns the running config with secrets redacted.
func (g *Gateway) handleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if g.appConfig == nil {
			http.Error(w, "config not available", http.StatusServiceUnavailable)
			return
		}

		// Round-trip through YAML so keys match the config file.
		raw, err := yaml.Marshal(g.appConfig)
		if err != nil {
			http.Error(w, "failed to serialize config", http.StatusInternalServerError)
			return
		}

		var generic map[string]any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			http.Error(w, "failed to parse config", http.StatusInternalServerError)
			return
		}

		g.redactor.RedactMap(generic)
		writeJSON(w, http.StatusOK, generic)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
