package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime      int64           `json:"uptime_seconds"`
	Metrics     MetricsSnapshot `json:"metrics"`
	Workflows   int             `json:"workflows"`
	Subscribers int             `json:"feed_subscribers"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:      int64(time.Since(g.startedAt).Seconds()),
			Metrics:     g.metrics.Snapshot(),
			Workflows:   len(g.host.Workflows()),
			Subscribers: g.feed.Len(),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
