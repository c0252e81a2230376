package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/flemzord/tgflow/internal/host"
)

const (
	feedBuffer       = 16
	feedWriteTimeout = 5 * time.Second
)

// FeedEvent is the message pushed to execution feed subscribers. Item
// payloads are not included; fetch them from the admin API.
type FeedEvent struct {
	ID         string      `json:"id"`
	WorkflowID string      `json:"workflowId"`
	Status     host.Status `json:"status"`
	Error      string      `json:"error,omitempty"`
	Items      int         `json:"items"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
}

// Feed broadcasts finished executions to WebSocket subscribers. It is a
// host.Recorder and an http.Handler. A subscriber whose buffer is full is
// disconnected.
type Feed struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
	logger *slog.Logger
}

type subscriber struct {
	ch chan []byte
}

var _ host.Recorder = (*Feed)(nil)

// NewFeed creates an empty feed.
func NewFeed(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		subs:   make(map[*subscriber]struct{}),
		logger: logger.With("component", "feed"),
	}
}

// Record implements host.Recorder.
func (f *Feed) Record(_ context.Context, e host.Execution) error {
	msg, err := json.Marshal(FeedEvent{
		ID:         e.ID,
		WorkflowID: e.WorkflowID,
		Status:     e.Status,
		Error:      e.Error,
		Items:      len(e.Items),
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
	})
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		select {
		case s.ch <- msg:
		default:
			delete(f.subs, s)
			close(s.ch)
			f.logger.Warn("dropping slow feed subscriber")
		}
	}
	return nil
}

// Len returns the number of connected subscribers.
func (f *Feed) Len() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close disconnects every subscriber and refuses new ones.
func (f *Feed) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for s := range f.subs {
		delete(f.subs, s)
		close(s.ch)
	}
}

func (f *Feed) subscribe() (*subscriber, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	s := &subscriber{ch: make(chan []byte, feedBuffer)}
	f.subs[s] = struct{}{}
	return s, true
}

func (f *Feed) unsubscribe(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.ch)
	}
}

// ServeHTTP upgrades the connection and streams FeedEvents until the client
// goes away or falls behind.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		f.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	sub, ok := f.subscribe()
	if !ok {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer f.unsubscribe(sub)

	// The feed is write-only; CloseRead handles pings and client close.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.ch:
			if !ok {
				_ = conn.Close(websocket.StatusPolicyViolation, "subscriber closed")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				f.logger.Debug("feed write failed", "error", err)
				return
			}
		}
	}
}
