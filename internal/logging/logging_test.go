package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Writer: &buf})

	l.With(String("component", "test")).Info(context.Background(), "chart built",
		Int("bodies", 10), Float("lst", 274.12), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "chart built" || rec["component"] != "test" || rec["error"] != "boom" {
		t.Errorf("unexpected record: %v", rec)
	}
	if rec["bodies"].(float64) != 10 {
		t.Errorf("bodies: got %v", rec["bodies"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Writer: &buf})

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("request id is not a UUID: %q", id)
	}
	again, id2 := EnsureRequestID(ctx)
	if id2 != id || RequestIDFromContext(again) != id {
		t.Errorf("request id changed: %s vs %s", id, id2)
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("expected empty id on bare context")
	}
}

func TestWithRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Writer: &buf})

	ctx, l := WithRequestLogger(context.Background(), base)
	l.Info(ctx, "hello")

	if FromContext(ctx, nil) == nil {
		t.Fatal("expected logger on context")
	}

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["request_id"] != RequestIDFromContext(ctx) {
		t.Errorf("request_id: expected %s, got %v", RequestIDFromContext(ctx), rec["request_id"])
	}
}

// TestLog_AddsRequestIDFromContext covers loggers that were not derived per request.
func TestLog_AddsRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Writer: &buf})

	ctx := ContextWithRequestID(context.Background(), "abc")
	l.Info(ctx, "hello")
	if !strings.Contains(buf.String(), `"request_id":"abc"`) {
		t.Errorf("expected request_id in %s", buf.String())
	}
}

func TestNoop(t *testing.T) {
	l := Noop()
	l.With(String("a", "b")).Error(context.Background(), "dropped")
	if FromContext(context.Background(), nil) == nil {
		t.Error("FromContext should never return nil")
	}
}
