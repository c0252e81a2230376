package security

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewRedactor()
	r.AddLiteral("super-secret-value")

	logger, err := NewLogger(&buf, "debug", "text", r)
	if err != nil {
		t.Fatal(err)
	}
	logger = logger.With("persistent", "super-secret-value")

	logger.Info("token "+botToken,
		"token", "super-secret-value",
		"safe", "visible",
		"error", fmt.Errorf("wrapped: %w", errors.New("call bot"+botToken+"/getMe")),
		slog.Group("req", "auth", "Bearer abcdefgh12345"),
	)

	output := buf.String()
	for _, leak := range []string{"super-secret-value", botToken, "abcdefgh12345"} {
		if strings.Contains(output, leak) {
			t.Errorf("secret %q found in log output: %s", leak, output)
		}
	}
	if !strings.Contains(output, "visible") {
		t.Errorf("safe value missing from output: %s", output)
	}
	if !strings.Contains(output, RedactPlaceholder) {
		t.Errorf("expected placeholder in output: %s", output)
	}
}

func TestNewLogger_Options(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "json", NewRedactor())
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %s", out)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON output, got: %s", out)
	}

	if _, err := NewLogger(&buf, "loud", "text", NewRedactor()); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := NewLogger(&buf, "info", "xml", NewRedactor()); err == nil {
		t.Error("expected error for bad format")
	}
}
