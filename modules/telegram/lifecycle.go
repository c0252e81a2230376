package telegram

import (
	"context"
	"fmt"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// webhookLifecycle registers the trigger's "default" webhook with Telegram.
type webhookLifecycle struct{}

var _ workflow.WebhookLifecycle = webhookLifecycle{}

// CheckExists reports whether Telegram already delivers to this host's URL.
func (webhookLifecycle) CheckExists(ctx context.Context, hc workflow.HookContext) (bool, error) {
	c, err := clientFor(ctx, hc)
	if err != nil {
		return false, err
	}
	info, err := c.GetWebhookInfo(ctx)
	if err != nil {
		return false, err
	}
	want := hc.WebhookURL(defaultWebhook)
	return info.URL != "" && info.URL == want, nil
}

// Create points Telegram at this host's URL with the selected update filter.
func (webhookLifecycle) Create(ctx context.Context, hc workflow.HookContext) (bool, error) {
	c, err := clientFor(ctx, hc)
	if err != nil {
		return false, err
	}

	var selected []string
	if err := hc.Parameter("updates", &selected); err != nil {
		return false, workflow.Configf(TriggerName, "updates: %v", err)
	}
	for _, s := range selected {
		if !KnownUpdate(s) {
			return false, workflow.Configf(TriggerName, "updates: unknown update type %q", s)
		}
	}

	req := SetWebhookRequest{
		URL:            hc.WebhookURL(defaultWebhook),
		AllowedUpdates: AllowedUpdates(selected),
		SecretToken:    hc.WebhookSecret(defaultWebhook),
	}
	if err := c.SetWebhook(ctx, req); err != nil {
		return false, err
	}
	hc.Logger().Info("telegram webhook registered",
		"url", req.URL,
		"allowed_updates", req.AllowedUpdates,
		"secret_token", req.SecretToken != "")
	return true, nil
}

// Delete removes the webhook. Failures are logged and reported as false so
// deactivation can proceed.
func (webhookLifecycle) Delete(ctx context.Context, hc workflow.HookContext) (bool, error) {
	c, err := clientFor(ctx, hc)
	if err == nil {
		err = c.DeleteWebhook(ctx)
	}
	if err != nil {
		hc.Logger().Warn("telegram webhook unregister failed", "error", fmt.Sprint(err))
		return false, nil
	}
	return true, nil
}
