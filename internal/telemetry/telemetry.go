// Package telemetry records agent events as JSON lines and exports trace spans.
//
// Events and finished spans share one file (default .agent/events.jsonl) and
// are only written when Configure enabled ObserveJSON.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Emit writes a single JSON line to the configured events file when
// observation is enabled. It augments fields with RFC3339Nano time and the
// event name.
func Emit(name string, fields map[string]any) {
	cfg := current()
	if !cfg.ObserveJSON {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}
	if err := appendLine(cfg.EventsPath, b); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
	}
}

func appendLine(path string, b []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
