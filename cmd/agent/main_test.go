package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/weather-agent/internal/config"
	"github.com/petasbytes/weather-agent/internal/logging"
	"github.com/petasbytes/weather-agent/internal/provider"
	"github.com/petasbytes/weather-agent/internal/runner"
	"github.com/petasbytes/weather-agent/internal/telemetry"
)

func testConfig() config.Config {
	return config.Config{
		UseFallbacks: true,
		Strategy:     config.StrategyAuto,
		MaxRetries:   2,
		MaxSteps:     8,
		Query:        config.DefaultQuery,
		GeocodeURL:   "http://geo.invalid/search",
		WeatherURL:   "http://weather.invalid/realtime",
		HTTPTimeout:  5 * time.Second,
		LogLevel:     "info",
	}
}

func TestRun_FallbackLondon(t *testing.T) {
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	var out bytes.Buffer

	err := run(context.Background(), testConfig(), logging.Nop(), &out)
	require.NoError(t, err)

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "Response: "), got)
	assert.Contains(t, got, "Sunny")
	assert.Contains(t, got, "21°C")
	assert.Contains(t, got, "London")
}

func TestRun_WeatherAPI(t *testing.T) {
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	var location string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		location = r.URL.Query().Get("location")
		_, _ = w.Write([]byte(`{"data":{"values":{"temperatureApparent":12.5,"weatherCode":4001}}}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.WeatherAPIKey = "wx"
	cfg.WeatherURL = srv.URL
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), cfg, logging.Nop(), &out))
	assert.Equal(t, "51.5074,-0.1278", location)
	assert.Equal(t, "Response: The weather in London is Rain with a temperature of 12°C.\n", out.String())
}

func TestRun_WeatherOutage_RetriesExhausted(t *testing.T) {
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.WeatherAPIKey = "wx"
	cfg.WeatherURL = srv.URL
	var out bytes.Buffer

	err := run(context.Background(), cfg, logging.Nop(), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, runner.ErrRetriesExhausted), "got %v", err)
	assert.Equal(t, int32(cfg.MaxRetries+1), hits.Load())
	assert.Empty(t, out.String())
}

func TestRun_CancelledContext(t *testing.T) {
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, testConfig(), logging.Nop(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ObserveJSON_WritesEventsAndSpans(t *testing.T) {
	t.Cleanup(func() { telemetry.Configure(telemetry.Config{}) })
	path := filepath.Join(t.TempDir(), "events.jsonl")
	cfg := testConfig()
	cfg.ObserveJSON = true
	cfg.EventsPath = path

	require.NoError(t, run(context.Background(), cfg, logging.Nop(), &bytes.Buffer{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	counts := map[string]int{}
	spans := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		ev, _ := m["event"].(string)
		counts[ev]++
		if ev == "span" {
			name, _ := m["name"].(string)
			spans[name] = true
		}
	}
	assert.Equal(t, 2, counts["tool_exec"])
	assert.Equal(t, 1, counts["run_complete"])
	assert.True(t, spans["agent run"], "spans: %v", spans)
	assert.True(t, spans["running tool"], "spans: %v", spans)
}

func TestNewStrategy(t *testing.T) {
	cfg := testConfig()
	s, err := newStrategy(cfg)
	require.NoError(t, err)
	assert.IsType(t, provider.Rules{}, s)

	cfg.AnthropicAPIKey = "sk-test"
	s, err = newStrategy(cfg)
	require.NoError(t, err)
	assert.IsType(t, &provider.Anthropic{}, s)

	cfg.Strategy = config.StrategyRules
	s, err = newStrategy(cfg)
	require.NoError(t, err)
	assert.IsType(t, provider.Rules{}, s)
}
