package workflow

import (
	"context"
	"log/slog"
	"net/http"
)

// Credentials holds the decrypted fields of one configured credential.
type Credentials map[string]string

// Get returns the named field, or "" when unset.
func (c Credentials) Get(field string) string {
	return c[field]
}

// NodeContext is the capability object every node call receives. The host
// implements it; nodes never reach for global state.
type NodeContext interface {
	// Credentials returns the credential of the given type bound to the node.
	Credentials(ctx context.Context, credentialType string) (Credentials, error)

	// Parameter decodes the named node parameter into out. When the parameter
	// is not set, out is left untouched so callers can pre-fill defaults.
	Parameter(name string, out any) error

	// HTTPClient is the host-owned client for outbound calls.
	HTTPClient() *http.Client

	Logger() *slog.Logger
}

// HookContext is passed to webhook lifecycle methods.
type HookContext interface {
	NodeContext

	// WebhookURL returns the public URL the host serves for the named webhook.
	WebhookURL(name string) string

	// WebhookSecret returns the shared secret for the named webhook, or ""
	// when deliveries are not authenticated.
	WebhookSecret(name string) string
}

// WebhookContext is passed to Trigger.Webhook for one inbound delivery.
type WebhookContext interface {
	NodeContext

	Body() []byte
	Headers() http.Header

	// WebhookSecret returns the secret the delivery must carry, or "".
	WebhookSecret(name string) string

	// PrepareBinaryData wraps raw bytes as an attachment. An empty mimeType
	// is inferred from the file name, then from the content.
	PrepareBinaryData(data []byte, fileName, mimeType string) (BinaryData, error)
}

// ExecuteContext is passed to Executor.Execute.
type ExecuteContext interface {
	NodeContext

	// Input returns the items produced by the previous node.
	Input() []Item

	// ItemParameter decodes the named parameter for one input item, resolving
	// {{ $json.path }} placeholders against that item.
	ItemParameter(name string, item int, out any) error

	PrepareBinaryData(data []byte, fileName, mimeType string) (BinaryData, error)

	// ContinueOnFail reports whether per-item failures become error items.
	ContinueOnFail() bool
}
