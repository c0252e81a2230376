package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler builds the chi mux with all routes wired.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public: Telegram posts here, no auth.
	r.Get("/health", g.handleHealth())
	r.Post("/webhook/{workflowID}/{path}", g.handleWebhook())

	if g.prom != nil {
		r.Handle("/metrics", g.prom.Handler())
	}

	// Admin endpoints, not mounted if no auth is configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth, g.audit))
			r.Get("/status", g.handleStatus())
			if g.feed != nil {
				r.Handle("/ws/executions", g.feed)
			}
			r.Route("/api", func(r chi.Router) {
				r.Get("/workflows", g.handleListWorkflows())
				r.Post("/workflows/{id}/reconcile", g.handleReconcile())
				r.Get("/executions", g.handleListExecutions())
				r.Get("/nodes", g.handleListNodes())
				r.Get("/config", g.handleGetConfig())
			})
		})
	}

	return r
}
