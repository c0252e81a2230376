package telegram

import "encoding/json"

// APIResponse is the generic envelope returned by every Bot API method.
type APIResponse[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters carries extra error context.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// Update is an incoming webhook payload. Exactly one variant field is set;
// Kind reports which. Variants the trigger never inspects stay raw.
type Update struct {
	UpdateID          int             `json:"update_id"`
	Message           *Message        `json:"message,omitempty"`
	EditedMessage     *Message        `json:"edited_message,omitempty"`
	ChannelPost       *Message        `json:"channel_post,omitempty"`
	EditedChannelPost *Message        `json:"edited_channel_post,omitempty"`
	CallbackQuery     json.RawMessage `json:"callback_query,omitempty"`
	InlineQuery       json.RawMessage `json:"inline_query,omitempty"`
	Poll              json.RawMessage `json:"poll,omitempty"`
	PreCheckoutQuery  json.RawMessage `json:"pre_checkout_query,omitempty"`
	ShippingQuery     json.RawMessage `json:"shipping_query,omitempty"`
}

// Kind returns the active variant of the update.
func (u *Update) Kind() UpdateKind {
	switch {
	case u.ChannelPost != nil:
		return UpdateChannelPost
	case u.Message != nil:
		return UpdateMessage
	case u.EditedMessage != nil:
		return UpdateEditedMessage
	case u.EditedChannelPost != nil:
		return UpdateEditedChannelPost
	case present(u.CallbackQuery):
		return UpdateCallbackQuery
	case present(u.InlineQuery):
		return UpdateInlineQuery
	case present(u.Poll):
		return UpdatePoll
	case present(u.PreCheckoutQuery):
		return UpdatePreCheckoutQuery
	case present(u.ShippingQuery):
		return UpdateShippingQuery
	default:
		return UpdateUnknown
	}
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Message represents a Telegram message or channel post.
type Message struct {
	MessageID int         `json:"message_id"`
	From      *User       `json:"from,omitempty"`
	Chat      Chat        `json:"chat"`
	Date      int         `json:"date"`
	Text      string      `json:"text,omitempty"`
	Caption   string      `json:"caption,omitempty"`
	Photo     []PhotoSize `json:"photo,omitempty"`
	Document  *Document   `json:"document,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// User represents a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// PhotoSize represents one size of a photo. Telegram orders sizes from
// smallest to largest.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

// Document represents a general file.
type Document struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MIMEType     string `json:"mime_type,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
}

// File is the result of getFile.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int    `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// WebhookInfo is the result of getWebhookInfo.
type WebhookInfo struct {
	URL                          string   `json:"url"`
	HasCustomCertificate         bool     `json:"has_custom_certificate"`
	PendingUpdateCount           int      `json:"pending_update_count"`
	IPAddress                    string   `json:"ip_address,omitempty"`
	LastErrorDate                int64    `json:"last_error_date,omitempty"`
	LastErrorMessage             string   `json:"last_error_message,omitempty"`
	LastSynchronizationErrorDate int64    `json:"last_synchronization_error_date,omitempty"`
	MaxConnections               int      `json:"max_connections,omitempty"`
	AllowedUpdates               []string `json:"allowed_updates,omitempty"`
}
