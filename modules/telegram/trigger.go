package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// TriggerName is the node type name of the webhook trigger.
const TriggerName = "telegramTrigger"

const defaultWebhook = "default"

// SecretTokenHeader carries the secret_token given to setWebhook on every
// delivery.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Trigger starts a workflow on every Telegram update delivered to its webhook.
type Trigger struct{}

var _ workflow.Trigger = Trigger{}

// Description implements workflow.NodeType.
func (Trigger) Description() workflow.NodeDescription {
	return workflow.NodeDescription{
		DisplayName: "Telegram Trigger",
		Name:        TriggerName,
		Icon:        "file:telegram.svg",
		Group:       []string{"trigger"},
		Version:     1,
		Subtitle:    `={{"Updates: " + $parameter["updates"].join(", ")}}`,
		Description: "Starts the workflow on a Telegram update",
		Defaults:    map[string]string{"name": "Telegram Trigger"},
		Inputs:      []string{},
		Outputs:     []string{"main"},
		Credentials: []workflow.CredentialRef{{Name: CredentialName, Required: true}},
		Webhooks: []workflow.WebhookDescription{{
			Name:         defaultWebhook,
			HTTPMethod:   http.MethodPost,
			ResponseMode: workflow.ResponseOnReceived,
			Path:         "webhook",
		}},
		Properties: []workflow.NodeProperty{
			{
				DisplayName: "Trigger On",
				Name:        "updates",
				Type:        workflow.PropertyMultiOptions,
				Default:     []string{},
				Required:    true,
				Options:     UpdateOptions(),
			},
			{
				DisplayName: "Every uploaded attachment, even if sent in a group, will trigger a separate event. " +
					"You can identify that an attachment belongs to a certain group by media_group_id.",
				Name:    "attachmentNotice",
				Type:    workflow.PropertyNotice,
				Default: "",
			},
			{
				DisplayName: "Additional Fields",
				Name:        "additionalFields",
				Type:        workflow.PropertyCollection,
				Placeholder: "Add Field",
				Default:     map[string]any{},
				Collection: []workflow.NodeProperty{
					{
						DisplayName: "Download Images/Files",
						Name:        "download",
						Type:        workflow.PropertyBoolean,
						Default:     false,
						Description: "Telegram delivers the image in several sizes. By default, just the large image is downloaded. " +
							"To choose another size, use the Image Size option.",
					},
					{
						DisplayName: "Image Size",
						Name:        "imageSize",
						Type:        workflow.PropertyOptions,
						Default:     string(ImageLarge),
						Description: "The size of the image to be downloaded",
						DisplayOptions: &workflow.DisplayOptions{
							Show: map[string][]any{"download": {true}},
						},
						Options: []workflow.PropertyOption{
							{Name: "Small", Value: string(ImageSmall)},
							{Name: "Medium", Value: string(ImageMedium)},
							{Name: "Large", Value: string(ImageLarge)},
							{Name: "Extra Large", Value: string(ImageExtraLarge)},
						},
					},
				},
			},
		},
	}
}

// WebhookMethods implements workflow.Trigger.
func (Trigger) WebhookMethods() map[string]workflow.WebhookLifecycle {
	return map[string]workflow.WebhookLifecycle{defaultWebhook: webhookLifecycle{}}
}

// Webhook converts one delivered update into a single output item.
func (Trigger) Webhook(ctx context.Context, wc workflow.WebhookContext) (workflow.WebhookResponse, error) {
	if want := wc.WebhookSecret(defaultWebhook); want != "" {
		got := wc.Headers().Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			return workflow.WebhookResponse{}, fmt.Errorf("telegram: %w: secret token mismatch", workflow.ErrUnauthorized)
		}
	}

	body := wc.Body()
	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return workflow.WebhookResponse{}, workflow.Configf(TriggerName, "invalid update JSON: %v", err)
	}

	fields := defaultAdditionalFields()
	if err := wc.Parameter("additionalFields", &fields); err != nil {
		return workflow.WebhookResponse{}, workflow.Configf(TriggerName, "additionalFields: %v", err)
	}
	if fields.ImageSize == "" {
		fields.ImageSize = ImageLarge
	}

	var c *Client
	if fields.Download {
		var err error
		if c, err = clientFor(ctx, wc); err != nil {
			return workflow.WebhookResponse{}, err
		}
	}

	item, err := resolveAttachment(ctx, wc, c, &update, body, fields)
	if err != nil {
		return workflow.WebhookResponse{}, err
	}

	wc.Logger().Debug("telegram update received",
		"update_id", update.UpdateID,
		"kind", string(update.Kind()),
		"attachment", item.HasBinary("data"))
	return workflow.SingleOutput(item), nil
}
