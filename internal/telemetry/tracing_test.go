package telemetry_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/petasbytes/weather-agent/internal/telemetry"
)

func TestTracerProvider_ExportsSpansAsEvents(t *testing.T) {
	path := observe(t)

	tp := telemetry.NewTracerProvider()
	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	_, child := tp.Tracer("test").Start(ctx, "calling geocode API")
	child.SetAttributes(attribute.String("q", "london"), attribute.Int("status_code", 500))
	child.RecordError(errors.New("boom"))
	child.SetStatus(codes.Error, "boom")
	child.End()
	parent.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("expected 2 span lines, got %d", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["event"] != "span" || first["name"] != "calling geocode API" {
		t.Fatalf("unexpected first span: %v", first)
	}
	if first["status"] != "Error" || first["status_description"] != "boom" {
		t.Errorf("unexpected status: %v %v", first["status"], first["status_description"])
	}
	if _, ok := first["parent_span_id"].(string); !ok {
		t.Errorf("child span should carry parent_span_id: %v", first)
	}
	attrs, ok := first["attributes"].(map[string]any)
	if !ok || attrs["q"] != "london" || attrs["status_code"] != float64(500) {
		t.Errorf("unexpected attributes: %v", first["attributes"])
	}
	if evs, ok := first["events"].([]any); !ok || len(evs) != 1 {
		t.Errorf("expected recorded error event, got %v", first["events"])
	}
}

func TestTracerProvider_ObserveOff_NoExport(t *testing.T) {
	telemetry.Configure(telemetry.Config{})
	tp := telemetry.NewTracerProvider()
	_, span := tp.Tracer("test").Start(context.Background(), "quiet")
	if !span.SpanContext().IsValid() {
		t.Fatal("spans should still be recorded with a valid context")
	}
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
