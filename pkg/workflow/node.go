package workflow

import (
	"context"
	"net/http"
)

// NodeType is implemented by every node a workflow can reference.
type NodeType interface {
	Description() NodeDescription
}

// Executor is a regular (action) node.
type Executor interface {
	NodeType
	Execute(ctx context.Context, ec ExecuteContext) ([][]Item, error)
}

// Trigger is a webhook-driven node.
type Trigger interface {
	NodeType

	// Webhook turns one inbound delivery into execution data.
	Webhook(ctx context.Context, wc WebhookContext) (WebhookResponse, error)

	// WebhookMethods returns the lifecycle for each declared webhook, keyed by
	// WebhookDescription.Name.
	WebhookMethods() map[string]WebhookLifecycle
}

// WebhookLifecycle keeps the remote registration of one webhook in sync with
// the host. Every method must be safe to call repeatedly.
type WebhookLifecycle interface {
	CheckExists(ctx context.Context, hc HookContext) (bool, error)
	Create(ctx context.Context, hc HookContext) (bool, error)
	// Delete reports false instead of failing when the remote side refuses.
	Delete(ctx context.Context, hc HookContext) (bool, error)
}

// CredentialType describes and verifies one kind of credential.
type CredentialType interface {
	Description() CredentialDescription

	// Authenticate decorates an outgoing request with the credential.
	Authenticate(creds Credentials, req *http.Request) error

	// Test performs the connectivity check with the given client.
	Test(ctx context.Context, client *http.Client, creds Credentials) error
}
