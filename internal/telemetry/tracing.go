package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName tags every span produced by the agent.
const ServiceName = "weather-agent"

// JSONLExporter writes finished spans as "span" events through Emit.
type JSONLExporter struct{}

var _ sdktrace.SpanExporter = JSONLExporter{}

// ExportSpans emits one line per span. Emission failures are reported on
// stderr by Emit and never fail the export.
func (JSONLExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		Emit("span", spanFields(s))
	}
	return nil
}

// Shutdown has nothing to release; each Emit opens and closes the file.
func (JSONLExporter) Shutdown(context.Context) error { return nil }

func spanFields(s sdktrace.ReadOnlySpan) map[string]any {
	attrs := make(map[string]any, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := map[string]any{
		"name":        s.Name(),
		"trace_id":    s.SpanContext().TraceID().String(),
		"span_id":     s.SpanContext().SpanID().String(),
		"duration_ms": s.EndTime().Sub(s.StartTime()).Milliseconds(),
		"status":      s.Status().Code.String(),
		"attributes":  attrs,
	}
	if s.Parent().IsValid() {
		fields["parent_span_id"] = s.Parent().SpanID().String()
	}
	if d := s.Status().Description; d != "" {
		fields["status_description"] = d
	}
	if len(s.Events()) > 0 {
		events := make([]map[string]any, 0, len(s.Events()))
		for _, e := range s.Events() {
			ev := map[string]any{"name": e.Name, "time": e.Time.UTC().Format(time.RFC3339Nano)}
			for _, kv := range e.Attributes {
				ev[string(kv.Key)] = kv.Value.AsInterface()
			}
			events = append(events, ev)
		}
		fields["events"] = events
	}
	return fields
}

// NewTracerProvider returns a provider that samples every span and, when
// observation is enabled, exports them synchronously to the events file.
// Callers must Shutdown the provider to flush.
func NewTracerProvider() *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	}
	if ObserveEnabled() {
		opts = append(opts, sdktrace.WithSyncer(JSONLExporter{}))
	}
	return sdktrace.NewTracerProvider(opts...)
}
