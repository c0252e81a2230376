package gateway

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string   `json:"status"` // "ok" or "degraded"
	Workflows int      `json:"workflows"`
	Active    int      `json:"active"`
	Inactive  []string `json:"inactive,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 503 when an enabled workflow has no registered webhook.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		for _, wf := range g.host.Workflows() {
			resp.Workflows++
			switch {
			case wf.Active:
				resp.Active++
			case wf.Enabled:
				resp.Inactive = append(resp.Inactive, wf.ID)
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
