package host

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/pkg/workflow"
)

// nodeContext is the capability object shared by every node call.
type nodeContext struct {
	host     *Host
	workflow *runtime
	node     config.NodeConfig
	logger   *slog.Logger
}

var _ workflow.NodeContext = (*nodeContext)(nil)

func (h *Host) nodeContext(rt *runtime, node config.NodeConfig) nodeContext {
	return nodeContext{
		host:     h,
		workflow: rt,
		node:     node,
		logger:   rt.logger.With("node", node.DisplayName()),
	}
}

func (c *nodeContext) Credentials(_ context.Context, credentialType string) (workflow.Credentials, error) {
	name, ok := c.node.Credentials[credentialType]
	if !ok {
		return nil, workflow.Configf(c.node.DisplayName(), "no %s credential configured", credentialType)
	}
	data, err := c.host.creds.Lookup(name, credentialType)
	if err != nil {
		if errors.Is(err, security.ErrCredentialNotFound) {
			return nil, workflow.Configf(c.node.DisplayName(), "credential %s is not defined", name)
		}
		return nil, workflow.Configf(c.node.DisplayName(), "%v", err)
	}
	return workflow.Credentials(data), nil
}

func (c *nodeContext) Parameter(name string, out any) error {
	n, ok := c.node.Parameters[name]
	if !ok {
		return nil
	}
	return n.Decode(out)
}

func (c *nodeContext) HTTPClient() *http.Client { return c.host.client }

func (c *nodeContext) Logger() *slog.Logger { return c.logger }

// hookContext serves webhook lifecycle calls.
type hookContext struct {
	nodeContext
}

var _ workflow.HookContext = (*hookContext)(nil)

func (c *hookContext) WebhookURL(name string) string {
	return c.host.webhookURL(c.workflow, name)
}

func (c *hookContext) WebhookSecret(name string) string {
	return c.host.webhookSecret(c.workflow, name)
}

// webhookContext serves one inbound delivery.
type webhookContext struct {
	nodeContext
	body    []byte
	headers http.Header
}

var _ workflow.WebhookContext = (*webhookContext)(nil)

func (c *webhookContext) Body() []byte { return c.body }

func (c *webhookContext) Headers() http.Header { return c.headers }

func (c *webhookContext) WebhookSecret(name string) string {
	return c.host.webhookSecret(c.workflow, name)
}

func (c *webhookContext) PrepareBinaryData(data []byte, fileName, mimeType string) (workflow.BinaryData, error) {
	return prepareBinaryData(data, fileName, mimeType)
}

// executeContext serves one action node over its input items.
type executeContext struct {
	nodeContext
	input []workflow.Item
}

var _ workflow.ExecuteContext = (*executeContext)(nil)

func (c *executeContext) Input() []workflow.Item { return c.input }

func (c *executeContext) ItemParameter(name string, item int, out any) error {
	n, ok := c.node.Parameters[name]
	if !ok {
		return nil
	}
	payload := []byte("{}")
	if item >= 0 && item < len(c.input) && len(c.input[item].JSON) > 0 {
		payload = c.input[item].JSON
	}
	resolved, err := resolveNode(&n, payload)
	if err != nil {
		return err
	}
	return resolved.Decode(out)
}

func (c *executeContext) PrepareBinaryData(data []byte, fileName, mimeType string) (workflow.BinaryData, error) {
	return prepareBinaryData(data, fileName, mimeType)
}

func (c *executeContext) ContinueOnFail() bool { return c.node.ContinueOnFail }
