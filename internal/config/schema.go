// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for tgflow.
package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// BaseURL is the public URL Telegram uses to reach the gateway,
	// e.g. "https://flows.example.com". Webhook URLs are derived from it.
	BaseURL string `yaml:"base_url"`

	Log       LogConfig       `yaml:"log"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Reload    ReloadConfig    `yaml:"reload"`

	// Credentials maps credential names to their type and secret fields.
	Credentials map[string]CredentialConfig `yaml:"credentials"`

	Workflows []WorkflowConfig `yaml:"workflows"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json

	// AuditFile receives JSONL audit events when set.
	AuditFile string `yaml:"audit_file"`
}

// GatewayConfig holds HTTP gateway configuration.
type GatewayConfig struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps an inbound webhook body. Zero means 1 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// WebhookSecret, when set, derives a per-webhook secret that Telegram
	// echoes on every delivery. Deliveries without it are refused.
	WebhookSecret string `yaml:"webhook_secret"`
}

// AuthConfig configures authentication for admin endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

// TelegramConfig tunes the outbound Bot API client.
type TelegramConfig struct {
	// APIURL redirects Bot API calls to a self-hosted server. Empty keeps
	// https://api.telegram.org.
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects where executions are recorded.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite or memory
	Path   string `yaml:"path"`
	// Retain bounds how many executions are kept; 0 keeps everything.
	Retain int `yaml:"retain"`

	// SQLite tuning. Empty values keep the driver defaults.
	JournalMode string        `yaml:"journal_mode"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig enables OTLP trace export. Tracing is off when
// OTLPEndpoint is empty.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// ReconcileConfig schedules periodic webhook re-registration.
type ReconcileConfig struct {
	Schedule string `yaml:"schedule"`
	Disabled bool   `yaml:"disabled"`
}

// ReloadConfig controls credential hot reload. The config file is polled
// for changes, and SIGHUP forces a reload.
type ReloadConfig struct {
	Disabled     bool          `yaml:"disabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// CredentialConfig is one named credential.
type CredentialConfig struct {
	Type string            `yaml:"type"`
	Data map[string]string `yaml:"data"`
}

// WorkflowConfig is a trigger followed by a chain of action nodes. Each
// node receives the items produced by the previous one.
type WorkflowConfig struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name,omitempty"`
	Active  *bool        `yaml:"active,omitempty"`
	Trigger NodeConfig   `yaml:"trigger"`
	Nodes   []NodeConfig `yaml:"nodes,omitempty"`
}

// IsActive reports whether the workflow should be activated. Workflows are
// active unless explicitly disabled.
func (w WorkflowConfig) IsActive() bool {
	return w.Active == nil || *w.Active
}

// NodeConfig configures one node of a workflow.
type NodeConfig struct {
	Name string `yaml:"name,omitempty"`
	Type string `yaml:"type"`

	// Credentials maps credential types to configured credential names.
	Credentials map[string]string `yaml:"credentials,omitempty"`

	// Parameters stay raw and are decoded by the node on demand.
	Parameters map[string]yaml.Node `yaml:"parameters,omitempty"`

	ContinueOnFail bool `yaml:"continue_on_fail,omitempty"`
}

// DisplayName returns Name, falling back to Type.
func (n NodeConfig) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Type
}

// Defaults for zero-valued settings.
const (
	DefaultBind            = "127.0.0.1:8080"
	DefaultTelegramTimeout = 60 * time.Second
	DefaultReconcileSpec   = "*/15 * * * *"
	DefaultServiceName     = "tgflow"
	DefaultStoreDriver     = "sqlite"
	DefaultStorePath       = "tgflow.db"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultReloadInterval  = 5 * time.Second
)

// ApplyDefaults fills zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = DefaultBind
	}
	if c.Gateway.ReadTimeout <= 0 {
		c.Gateway.ReadTimeout = defaultReadTimeout
	}
	if c.Gateway.WriteTimeout <= 0 {
		c.Gateway.WriteTimeout = defaultWriteTimeout
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		c.Gateway.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Telegram.Timeout <= 0 {
		c.Telegram.Timeout = DefaultTelegramTimeout
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DefaultStoreDriver
	}
	if c.Store.Path == "" && c.Store.Driver == DefaultStoreDriver {
		c.Store.Path = DefaultStorePath
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	if c.Reconcile.Schedule == "" {
		c.Reconcile.Schedule = DefaultReconcileSpec
	}
	if c.Reload.PollInterval <= 0 {
		c.Reload.PollInterval = defaultReloadInterval
	}
}
