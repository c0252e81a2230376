package security

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestAuditLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var events []AuditEvent
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	l := NewAuditLogger(AuditLoggerConfig{
		Writer:   &buf,
		Redactor: NewRedactor(),
		OnEvent:  func(e AuditEvent) { events = append(events, e) },
		Now:      func() time.Time { return fixed },
	})

	meta := map[string]string{"url": "https://api.telegram.org/bot" + botToken + "/setWebhook"}
	l.Log(AuditEvent{Type: EventWebhookRegister, WorkflowID: "inbox", Metadata: meta})

	if meta["url"] == RedactPlaceholder || !bytes.Contains([]byte(meta["url"]), []byte(botToken)) {
		t.Error("caller metadata was mutated")
	}
	if len(events) != 1 || !events[0].Timestamp.Equal(fixed) {
		t.Fatalf("events = %+v", events)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode JSONL: %v", err)
	}
	if decoded.Type != EventWebhookRegister || decoded.WorkflowID != "inbox" {
		t.Errorf("decoded = %+v", decoded)
	}
	if bytes.Contains(buf.Bytes(), []byte(botToken)) {
		t.Errorf("token leaked into audit log: %s", buf.String())
	}
}

func TestAuditLogger_NilDiscards(t *testing.T) {
	t.Parallel()

	var l *AuditLogger
	l.Log(AuditEvent{Type: EventAuthFailure})
}
