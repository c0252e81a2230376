// Package workflow defines the contracts between the tgflow host and the node
// types it runs: execution records, capability objects handed to nodes, and
// the declarative schema nodes and credentials publish.
package workflow

import "encoding/json"

// Item is one execution output record. JSON holds the record payload verbatim;
// Binary holds named attachments (conventionally a single "data" entry).
type Item struct {
	JSON   json.RawMessage       `json:"json"`
	Binary map[string]BinaryData `json:"binary,omitempty"`
}

// NewItem wraps an already-encoded JSON payload.
func NewItem(payload []byte) Item {
	return Item{JSON: json.RawMessage(payload)}
}

// HasBinary reports whether the item carries the named attachment.
func (i Item) HasBinary(key string) bool {
	_, ok := i.Binary[key]
	return ok
}

// BinaryData is a file attached to an Item.
type BinaryData struct {
	Data          []byte `json:"data,omitempty"`
	MimeType      string `json:"mimeType"`
	FileName      string `json:"fileName,omitempty"`
	FileExtension string `json:"fileExtension,omitempty"`
	// FileSize is human readable ("12 kB").
	FileSize string `json:"fileSize,omitempty"`
}

// WebhookResponse is what a trigger returns for one inbound delivery.
// WorkflowData is indexed by output, then by item.
type WebhookResponse struct {
	WorkflowData [][]Item
}

// SingleOutput builds a WebhookResponse with one output holding items.
func SingleOutput(items ...Item) WebhookResponse {
	return WebhookResponse{WorkflowData: [][]Item{items}}
}
