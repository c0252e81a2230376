package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/pkg/workflow"
)

// executionHeader carries the execution ID of an accepted delivery.
const executionHeader = "X-Execution-Id"

// handleWebhook accepts one Telegram update for a workflow trigger.
func (g *Gateway) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "workflowID")
		path := chi.URLParam(r, "path")

		body, err := security.ReadPayload(r.Body, security.PayloadLimits{MaxBytes: g.config.MaxBodyBytes})
		if err != nil {
			switch {
			case errors.Is(err, security.ErrPayloadTooLarge):
				g.reject(w, id, http.StatusRequestEntityTooLarge, err.Error())
			case errors.Is(err, security.ErrJSONTooDeep), errors.Is(err, security.ErrInvalidJSON):
				g.reject(w, id, http.StatusBadRequest, err.Error())
			default:
				g.reject(w, id, http.StatusBadRequest, "failed to read body")
			}
			return
		}

		ack, err := g.host.HandleWebhook(r.Context(), id, path, body, r.Header.Clone())
		if err != nil {
			var cfgErr *workflow.ConfigurationError
			switch {
			case errors.Is(err, host.ErrWorkflowNotFound), errors.Is(err, host.ErrWebhookNotFound):
				g.reject(w, id, http.StatusNotFound, "webhook is not registered")
			case errors.Is(err, workflow.ErrUnauthorized):
				g.metrics.RecordRejected()
				g.logger.Warn("webhook delivery refused", "workflow", id, "remote", r.RemoteAddr)
				writeJSON(w, http.StatusForbidden, messageJSON{Message: "invalid secret token"})
			case errors.As(err, &cfgErr):
				g.metrics.RecordFailure()
				g.logger.Warn("webhook rejected by trigger", "workflow", id, "error", err)
				writeJSON(w, http.StatusBadRequest, messageJSON{Message: cfgErr.Reason})
			default:
				g.metrics.RecordFailure()
				g.logger.Error("webhook handling failed", "workflow", id, "error", err)
				writeJSON(w, http.StatusInternalServerError, messageJSON{Message: "workflow failed"})
			}
			return
		}

		g.metrics.RecordDelivery()
		if ack.ExecutionID != "" {
			w.Header().Set(executionHeader, ack.ExecutionID)
		}
		writeJSON(w, http.StatusOK, ack)
	}
}

type messageJSON struct {
	Message string `json:"message"`
}

func (g *Gateway) reject(w http.ResponseWriter, workflowID string, code int, msg string) {
	g.metrics.RecordRejected()
	g.prom.RecordWebhook(workflowID, "rejected")
	g.logger.Warn("webhook rejected", "workflow", workflowID, "status", code, "reason", msg)
	writeJSON(w, code, messageJSON{Message: msg})
}
