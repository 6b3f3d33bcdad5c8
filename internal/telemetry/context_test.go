package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/petasbytes/weather-agent/internal/telemetry"
)

func TestRunID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithRunID(context.Background(), "run-123")
	got, ok := telemetry.RunIDFromContext(ctx)
	if !ok || got != "run-123" {
		t.Fatalf("want run-123,true; got %q,%v", got, ok)
	}
}

func TestRunID_EmptyIDRejectedOnRead(t *testing.T) {
	ctx := telemetry.WithRunID(context.Background(), "")
	got, ok := telemetry.RunIDFromContext(ctx)
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}

func TestRunID_ParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	child := telemetry.WithRunID(parent, "r1")
	cancel()

	select {
	case <-child.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("child context did not observe parent cancellation")
	}
}

func TestRunID_LastWriteWins(t *testing.T) {
	ctx := telemetry.WithRunID(telemetry.WithRunID(context.Background(), "r1"), "r2")
	got, ok := telemetry.RunIDFromContext(ctx)
	if !ok || got != "r2" {
		t.Fatalf("want r2,true; got %q,%v", got, ok)
	}
}

func TestRunID_MissingValue(t *testing.T) {
	got, ok := telemetry.RunIDFromContext(context.Background())
	if ok || got != "" {
		t.Fatalf("want empty,false; got %q,%v", got, ok)
	}
}
