package telegram

import (
	"slices"

	"github.com/flemzord/tgflow/pkg/workflow"
)

// UpdateKind names one Telegram update variant, as used in allowed_updates.
type UpdateKind string

// Update kinds the trigger can subscribe to.
const (
	UpdateMessage           UpdateKind = "message"
	UpdateEditedMessage     UpdateKind = "edited_message"
	UpdateChannelPost       UpdateKind = "channel_post"
	UpdateEditedChannelPost UpdateKind = "edited_channel_post"
	UpdateInlineQuery       UpdateKind = "inline_query"
	UpdateCallbackQuery     UpdateKind = "callback_query"
	UpdateShippingQuery     UpdateKind = "shipping_query"
	UpdatePreCheckoutQuery  UpdateKind = "pre_checkout_query"
	UpdatePoll              UpdateKind = "poll"

	// UpdateUnknown is returned by Update.Kind for variants not listed above.
	UpdateUnknown UpdateKind = ""
)

// AllUpdates is the wildcard selection.
const AllUpdates = "*"

type updateOption struct {
	kind        UpdateKind
	name        string
	description string
}

var updateCatalogue = []updateOption{
	{AllUpdates, "*", "All updates"},
	{UpdateCallbackQuery, "Callback Query", "Trigger on new incoming callback query"},
	{UpdateChannelPost, "Channel Post", "Trigger on new incoming channel post of any kind (text, photo, sticker and so on)"},
	{UpdateEditedChannelPost, "Edited Channel Post", "Trigger on new channel post that was edited"},
	{UpdateEditedMessage, "Edited Message", "Trigger on new message that was edited"},
	{UpdateInlineQuery, "Inline Query", "Trigger on new incoming inline query"},
	{UpdateMessage, "Message", "Trigger on new incoming message of any kind (text, photo, sticker and so on)"},
	{UpdatePoll, "Poll", "Trigger on new poll state. Bots receive only updates about stopped polls and polls which are sent by the bot"},
	{UpdatePreCheckoutQuery, "Pre-Checkout Query", "Trigger on new incoming pre-checkout query. Contains full information about checkout"},
	{UpdateShippingQuery, "Shipping Query", "Trigger on new incoming shipping query. Only for invoices with flexible price"},
}

// KnownUpdate reports whether name is a selectable update option.
func KnownUpdate(name string) bool {
	for _, o := range updateCatalogue {
		if string(o.kind) == name {
			return true
		}
	}
	return false
}

// UpdateOptions returns the options of the trigger's updates property.
func UpdateOptions() []workflow.PropertyOption {
	opts := make([]workflow.PropertyOption, 0, len(updateCatalogue))
	for _, o := range updateCatalogue {
		opts = append(opts, workflow.PropertyOption{
			Name:        o.name,
			Value:       string(o.kind),
			Description: o.description,
		})
	}
	return opts
}

// AllowedUpdates converts a selection into the allowed_updates filter.
// A selection containing the wildcard, or an empty one, subscribes to every
// kind and is sent as an empty list.
func AllowedUpdates(selected []string) []string {
	if len(selected) == 0 || slices.Contains(selected, AllUpdates) {
		return []string{}
	}
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
