package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/host"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/internal/telemetry"
)

// Runtime is the part of the workflow host the gateway drives.
type Runtime interface {
	HandleWebhook(ctx context.Context, workflowID, path string, body []byte, headers http.Header) (*host.Ack, error)
	Workflows() []host.WorkflowStatus
	Activate(ctx context.Context, workflowID string) error
}

// History lists recorded executions, newest first.
type History interface {
	Recent(ctx context.Context, limit int) ([]host.Execution, error)
}

// Options wires a Gateway. Host is required.
type Options struct {
	Config    config.GatewayConfig
	Host      Runtime
	History   History
	Feed      *Feed
	Metrics   *telemetry.Metrics
	Audit     *security.AuditLogger
	Redactor  *security.Redactor
	AppConfig *config.Config
	Logger    *slog.Logger
}

// Gateway is the HTTP front of tgflow. It binds to loopback by default.
type Gateway struct {
	config    config.GatewayConfig
	host      Runtime
	history   History
	feed      *Feed
	prom      *telemetry.Metrics
	audit     *security.AuditLogger
	redactor  *security.Redactor
	appConfig *config.Config
	logger    *slog.Logger
	metrics   *Metrics
	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway from opts.
func New(opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	redactor := opts.Redactor
	if redactor == nil {
		redactor = security.NewRedactor()
	}
	return &Gateway{
		config:    opts.Config,
		host:      opts.Host,
		history:   opts.History,
		feed:      opts.Feed,
		prom:      opts.Metrics,
		audit:     opts.Audit,
		redactor:  redactor,
		appConfig: opts.AppConfig,
		logger:    logger.With("component", "gateway"),
		metrics:   &Metrics{},
		startedAt: time.Now(),
	}
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if g.host == nil {
		return errors.New("gateway: no workflow host")
	}
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}
	return nil
}

// Start implements core.Starter. It binds the listener synchronously so
// address errors surface at startup, then serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.Handler(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	g.feed.Close()
	return g.server.Shutdown(shutdownCtx)
}
