package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/internal/security"
	"github.com/flemzord/tgflow/pkg/workflow"
)

func (h *Host) hookContext(rt *runtime) *hookContext {
	return &hookContext{nodeContext: h.nodeContext(rt, rt.cfg.Trigger)}
}

// Activate registers the trigger webhooks of a workflow. Webhooks that
// already point at this host are left alone.
func (h *Host) Activate(ctx context.Context, id string) error {
	rt, err := h.lookup(id)
	if err != nil {
		return err
	}
	hc := h.hookContext(rt)
	methods := rt.trigger.WebhookMethods()

	for _, wh := range rt.trigger.Description().Webhooks {
		lc, ok := methods[wh.Name]
		if !ok {
			continue
		}
		exists, err := lc.CheckExists(ctx, hc)
		if err != nil {
			return fmt.Errorf("host: workflow %s: check webhook %s: %w", id, wh.Name, err)
		}
		if exists {
			rt.logger.Debug("webhook already registered", "webhook", wh.Name)
			continue
		}
		created, err := lc.Create(ctx, hc)
		if err != nil {
			return fmt.Errorf("host: workflow %s: register webhook %s: %w", id, wh.Name, err)
		}
		if !created {
			return fmt.Errorf("host: workflow %s: webhook %s was not registered", id, wh.Name)
		}
		h.audit.Log(security.AuditEvent{
			Type:       security.EventWebhookRegister,
			WorkflowID: id,
			Detail:     hc.WebhookURL(wh.Name),
		})
	}

	h.setActive(id, true)
	rt.logger.Info("workflow activated")
	return nil
}

// Deactivate unregisters the trigger webhooks of a workflow. A refused
// unregistration is logged and the workflow is still deactivated.
func (h *Host) Deactivate(ctx context.Context, id string) error {
	rt, err := h.lookup(id)
	if err != nil {
		return err
	}
	hc := h.hookContext(rt)
	methods := rt.trigger.WebhookMethods()

	var errs []error
	for _, wh := range rt.trigger.Description().Webhooks {
		lc, ok := methods[wh.Name]
		if !ok {
			continue
		}
		deleted, err := lc.Delete(ctx, hc)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("host: workflow %s: unregister webhook %s: %w", id, wh.Name, err))
		case !deleted:
			rt.logger.Warn("webhook unregister failed", "webhook", wh.Name)
		default:
			h.audit.Log(security.AuditEvent{
				Type:       security.EventWebhookUnregister,
				WorkflowID: id,
				Detail:     hc.WebhookURL(wh.Name),
			})
		}
	}

	h.setActive(id, false)
	rt.logger.Info("workflow deactivated")
	return errors.Join(errs...)
}

// Reconcile re-activates every enabled workflow, restoring webhooks that
// were removed or replaced outside the host.
func (h *Host) Reconcile(ctx context.Context) error {
	var errs []error
	for _, id := range h.order {
		if !h.workflows[id].cfg.IsActive() {
			continue
		}
		if err := h.Activate(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CheckWebhook reports whether every webhook of a workflow is registered,
// along with the URLs the host expects.
func (h *Host) CheckWebhook(ctx context.Context, id string) (bool, []string, error) {
	rt, err := h.lookup(id)
	if err != nil {
		return false, nil, err
	}
	hc := h.hookContext(rt)
	methods := rt.trigger.WebhookMethods()

	registered := true
	var urls []string
	for _, wh := range rt.trigger.Description().Webhooks {
		urls = append(urls, hc.WebhookURL(wh.Name))
		lc, ok := methods[wh.Name]
		if !ok {
			continue
		}
		exists, err := lc.CheckExists(ctx, hc)
		if err != nil {
			return false, urls, fmt.Errorf("host: workflow %s: check webhook %s: %w", id, wh.Name, err)
		}
		registered = registered && exists
	}
	return registered, urls, nil
}

// TestCredential runs the connectivity check of a configured credential.
func (h *Host) TestCredential(ctx context.Context, name string) error {
	typ, ok := h.creds.Type(name)
	if !ok {
		return fmt.Errorf("host: %w: %s", security.ErrCredentialNotFound, name)
	}
	ct, err := core.LookupCredential(typ)
	if err != nil {
		return fmt.Errorf("host: credential %s: %w", name, err)
	}
	data, err := h.creds.Lookup(name, typ)
	if err != nil {
		return fmt.Errorf("host: %w", err)
	}

	testErr := ct.Test(ctx, h.client, workflow.Credentials(data))

	detail := "ok"
	if testErr != nil {
		detail = testErr.Error()
	}
	h.audit.Log(security.AuditEvent{
		Type:       security.EventCredentialTest,
		Credential: name,
		Detail:     detail,
	})
	if testErr != nil {
		return fmt.Errorf("host: credential %s: %w", name, testErr)
	}
	return nil
}
