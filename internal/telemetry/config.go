package telemetry

import "sync"

// DefaultEventsPath is where events land when Configure is given no path.
const DefaultEventsPath = ".agent/events.jsonl"

// Config controls JSONL emission.
type Config struct {
	// ObserveJSON enables writing events to EventsPath.
	ObserveJSON bool
	EventsPath  string
}

var (
	mu     sync.Mutex
	active Config
)

// Configure replaces the process-wide emission settings. The session calls it
// once at startup; tests call it per case.
func Configure(c Config) {
	if c.EventsPath == "" {
		c.EventsPath = DefaultEventsPath
	}
	mu.Lock()
	active = c
	mu.Unlock()
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return active.ObserveJSON
}

func current() Config {
	mu.Lock()
	defer mu.Unlock()
	return active
}
