package telemetry_test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/weather-agent/internal/telemetry"
)

// observe enables emission into a per-test file and returns its path.
func observe(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".agent", "events.jsonl")
	telemetry.Configure(telemetry.Config{ObserveJSON: true, EventsPath: path})
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read events: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestEmit_Gating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	telemetry.Configure(telemetry.Config{ObserveJSON: false, EventsPath: path})
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })

	telemetry.Emit("test_event", map[string]any{"foo": "bar"})
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no events file when observation is off, got err=%v", err)
	}
}

func TestEmit_HappyPath(t *testing.T) {
	path := observe(t)

	telemetry.Emit("test_event", map[string]any{"foo": "bar", "num": 42})

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "test_event" {
		t.Errorf("expected event=test_event, got %v", event["event"])
	}
	if event["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %v", event["foo"])
	}
	if event["num"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected num=42, got %v", event["num"])
	}
	timeStr, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, timeStr); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_MultipleEmissions(t *testing.T) {
	path := observe(t)

	telemetry.Emit("event1", map[string]any{"id": 1})
	telemetry.Emit("event2", map[string]any{"id": 2})
	telemetry.Emit("event3", map[string]any{"id": 3})

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	expected := []string{"event1", "event2", "event3"}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i+1, err)
		}
		if event["event"] != expected[i] {
			t.Errorf("line %d: expected event=%s, got %v", i+1, expected[i], event["event"])
		}
	}
}

func TestEmit_MapIsolation(t *testing.T) {
	observe(t)

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 {
		t.Errorf("expected fields to have 1 key, got %d", len(fields))
	}
	if _, ok := fields["time"]; ok {
		t.Error("fields should not contain 'time' key")
	}
	if _, ok := fields["event"]; ok {
		t.Error("fields should not contain 'event' key")
	}
}

func TestEmit_MarshalError_NoFile(t *testing.T) {
	path := observe(t)

	// NaN cannot be marshaled by encoding/json
	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
}

func TestEmit_NilFields(t *testing.T) {
	path := observe(t)

	telemetry.Emit("nil_fields", nil)

	lines := readLines(t, path)
	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// Expect exactly 2 keys: event and time
	if len(event) != 2 {
		t.Fatalf("expected exactly 2 keys (event,time), got %d: %#v", len(event), event)
	}
}

func TestEmit_ReadOnlyFile_NoPanic(t *testing.T) {
	path := observe(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o444); err != nil {
		t.Fatal(err)
	}

	// Open fails and is reported on stderr.
	telemetry.Emit("x", map[string]any{"a": 1})

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if os.Geteuid() != 0 && fi.Size() != 0 {
		t.Fatalf("expected read-only file size 0, got %d", fi.Size())
	}
}

func TestConfigure_DefaultPath(t *testing.T) {
	telemetry.Configure(telemetry.Config{ObserveJSON: true})
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	if !telemetry.ObserveEnabled() {
		t.Fatal("expected observation enabled")
	}
}
