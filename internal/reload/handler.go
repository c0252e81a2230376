package reload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/security"
)

// ErrRestartRequired is returned when the new configuration changes more
// than credentials. The credentials are still applied.
var ErrRestartRequired = errors.New("reload: configuration changes beyond credentials need a restart")

// Reconciler re-registers the webhooks of active workflows.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// HandlerOptions wires a Handler. ConfigPath and Credentials are required.
type HandlerOptions struct {
	ConfigPath  string
	Credentials *security.CredentialStore
	Redactor    *security.Redactor
	Host        Reconciler
	Audit       *security.AuditLogger
	Logger      *slog.Logger
}

// Handler swaps credentials from a fresh configuration into the running
// process. A rotated bot token takes effect on the next API call, and the
// follow-up reconcile moves each webhook to the bot the token belongs to.
type Handler struct {
	opts   HandlerOptions
	logger *slog.Logger

	mu      sync.Mutex
	running string
}

// NewHandler creates a handler for a process started with current.
func NewHandler(opts HandlerOptions, current *config.Config) (*Handler, error) {
	fp, err := fingerprint(current)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{opts: opts, logger: logger.With("component", "reload"), running: fp}, nil
}

// Reload loads and validates the configuration file, applies its
// credentials and reconciles webhooks. An invalid file leaves everything
// untouched.
func (h *Handler) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	cfg, err := config.Load(h.opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	creds := make(map[string]security.Credential, len(cfg.Credentials))
	for name, c := range cfg.Credentials {
		creds[name] = security.Credential{Type: c.Type, Data: c.Data}
	}
	h.opts.Credentials.Replace(creds)
	if h.opts.Redactor != nil {
		h.opts.Redactor.SyncCredentials(h.opts.Credentials)
	}

	var errs []error
	if h.opts.Host != nil {
		if err := h.opts.Host.Reconcile(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reload: reconcile: %w", err))
		}
	}

	fp, err := fingerprint(cfg)
	if err != nil {
		errs = append(errs, err)
	} else if fp != h.running {
		h.logger.Warn("configuration changed beyond credentials, restart to apply")
		errs = append(errs, ErrRestartRequired)
	}

	detail := "ok"
	if err := errors.Join(errs...); err != nil {
		detail = err.Error()
	}
	h.opts.Audit.Log(security.AuditEvent{
		Type:   security.EventConfigReload,
		Detail: detail,
		Metadata: map[string]string{
			"credentials": fmt.Sprint(len(creds)),
		},
	})
	h.logger.Info("credentials reloaded", "count", len(creds))
	return errors.Join(errs...)
}

// fingerprint hashes every setting that is only read at startup.
func fingerprint(cfg *config.Config) (string, error) {
	static := struct {
		BaseURL   string                  `yaml:"base_url"`
		Log       config.LogConfig        `yaml:"log"`
		Gateway   config.GatewayConfig    `yaml:"gateway"`
		Telegram  config.TelegramConfig   `yaml:"telegram"`
		Store     config.StoreConfig      `yaml:"store"`
		Telemetry config.TelemetryConfig  `yaml:"telemetry"`
		Reconcile config.ReconcileConfig  `yaml:"reconcile"`
		Reload    config.ReloadConfig     `yaml:"reload"`
		Workflows []config.WorkflowConfig `yaml:"workflows"`
	}{
		cfg.BaseURL, cfg.Log, cfg.Gateway, cfg.Telegram, cfg.Store,
		cfg.Telemetry, cfg.Reconcile, cfg.Reload, cfg.Workflows,
	}
	raw, err := yaml.Marshal(static)
	if err != nil {
		return "", fmt.Errorf("reload: fingerprint: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
