package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("tenant", "acme").Info("repository created")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "repository created" {
		t.Errorf("unexpected message: %v", entry["msg"])
	}
	if entry["tenant"] != "acme" {
		t.Errorf("unexpected tenant field: %v", entry["tenant"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("debug/info output leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn output missing: %s", out)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(nil).Info("no error attached")
	if strings.Contains(buf.String(), `"error"`) {
		t.Errorf("nil error should not add a field: %s", buf.String())
	}
}

func TestContextPlumbing(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithTenant(ctx, "acme")

	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID = %q", got)
	}
	if got := GetTenant(ctx); got != "acme" {
		t.Errorf("GetTenant = %q", got)
	}

	var buf bytes.Buffer
	ctx = WithLogger(ctx, NewLogger(InfoLevel, &buf))
	FromContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "req-123") || !strings.Contains(out, "acme") {
		t.Errorf("FromContext did not attach context fields: %s", out)
	}
}
