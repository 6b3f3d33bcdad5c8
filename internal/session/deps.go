package session

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/petasbytes/weather-agent/internal/cache"
)

// Deps is shared read-only by the tools for the lifetime of one session.
// An empty API key means the credential is not configured.
type Deps struct {
	HTTP          *http.Client
	GeoAPIKey     string
	WeatherAPIKey string
	// ForceFallback makes the coordinate resolver skip the network.
	ForceFallback bool

	GeocodeURL string
	WeatherURL string

	// Cache is optional; nil disables it.
	Cache    cache.Store
	CacheTTL time.Duration

	Logger         *zap.SugaredLogger
	TracerProvider trace.TracerProvider
}

// Log returns the configured logger or a no-op one.
func (d *Deps) Log() *zap.SugaredLogger {
	if d == nil || d.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return d.Logger
}

// Tracer returns a named tracer from the configured provider or a no-op one.
func (d *Deps) Tracer(name string) trace.Tracer {
	if d == nil || d.TracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return d.TracerProvider.Tracer(name)
}

// Client returns the shared HTTP client, or http.DefaultClient when unset.
func (d *Deps) Client() *http.Client {
	if d == nil || d.HTTP == nil {
		return http.DefaultClient
	}
	return d.HTTP
}
