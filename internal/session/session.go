// Package session owns the resources of one agent run: the HTTP client, the
// optional lookup cache and the tracer provider.
//
// Open builds them from configuration; Close releases every one of them and
// must be deferred by the caller so cancellation and error paths still clean up.
package session

import (
	"context"
	"errors"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/petasbytes/weather-agent/internal/cache"
	"github.com/petasbytes/weather-agent/internal/config"
	"github.com/petasbytes/weather-agent/internal/httpclient"
	"github.com/petasbytes/weather-agent/internal/telemetry"
)

// Session holds Deps and the handles needed to release them.
type Session struct {
	Deps *Deps
	tp   *sdktrace.TracerProvider
}

// Open builds the session dependencies. A configured but unreachable cache is
// logged and skipped rather than failing the run.
func Open(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*Session, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	telemetry.Configure(telemetry.Config{ObserveJSON: cfg.ObserveJSON, EventsPath: cfg.EventsPath})
	tp := telemetry.NewTracerProvider()

	d := &Deps{
		HTTP: httpclient.New(httpclient.Options{
			Timeout: cfg.HTTPTimeout,
			Rate:    cfg.HTTPRate,
			Burst:   cfg.HTTPBurst,
		}),
		GeoAPIKey:      cfg.GeoAPIKey,
		WeatherAPIKey:  cfg.WeatherAPIKey,
		ForceFallback:  cfg.UseFallbacks,
		GeocodeURL:     cfg.GeocodeURL,
		WeatherURL:     cfg.WeatherURL,
		CacheTTL:       cfg.CacheTTL,
		Logger:         log,
		TracerProvider: tp,
	}

	if cfg.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			if ctx.Err() != nil {
				_ = tp.Shutdown(context.WithoutCancel(ctx))
				return nil, fmt.Errorf("open session: %w", ctx.Err())
			}
			log.Warnw("geocode cache unavailable, continuing without it", "addr", cfg.RedisAddr, "error", err)
		} else {
			d.Cache = store
		}
	}

	log.Debugw("session open",
		"geo_api_key_set", d.GeoAPIKey != "",
		"weather_api_key_set", d.WeatherAPIKey != "",
		"force_fallback", d.ForceFallback,
		"cache", d.Cache != nil,
	)
	return &Session{Deps: d, tp: tp}, nil
}

// Close releases idle HTTP connections, the cache and flushes spans. It is
// safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	if s == nil || s.Deps == nil {
		return nil
	}
	var errs []error
	if s.Deps.HTTP != nil {
		s.Deps.HTTP.CloseIdleConnections()
	}
	if s.Deps.Cache != nil {
		if err := s.Deps.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
		s.Deps.Cache = nil
	}
	if s.tp != nil {
		if err := s.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
		s.tp = nil
	}
	return errors.Join(errs...)
}
