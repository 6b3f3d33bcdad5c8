package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petasbytes/weather-agent/internal/cache"
	"github.com/petasbytes/weather-agent/internal/config"
	"github.com/petasbytes/weather-agent/internal/session"
)

const (
	tracerName     = "github.com/petasbytes/weather-agent/internal/geo"
	cacheKeyPrefix = "geocode:"
	maxBodyBytes   = 1 << 20
	redacted       = "[redacted]"
)

// ErrNoResults means the geocoding service answered with an empty list.
var ErrNoResults = errors.New("geocode: no results")

// searchResult is one element of the geocoding response array. lat/lon come
// back as strings from geocode.maps.co but numbers are accepted too.
type searchResult struct {
	Lat json.Number `json:"lat"`
	Lon json.Number `json:"lon"`
}

// Resolve returns coordinates for description. Order: static table, default
// when no key is set or fallback is forced, cache, then one remote lookup.
// Remote failures are logged and replaced by Default.
func Resolve(ctx context.Context, d *session.Deps, description string) Coordinate {
	log := d.Log()
	key := Normalize(description)

	if c, ok := fallbacks[key]; ok {
		log.Infow("using fallback coordinates", "location", description)
		return c
	}
	if d == nil || d.GeoAPIKey == "" || d.ForceFallback {
		log.Infow("no geocoding key or fallback forced, using default coordinates",
			"location", description, "force_fallback", d != nil && d.ForceFallback)
		return Default
	}

	if c, ok := fromCache(ctx, d, key); ok {
		log.Debugw("geocode cache hit", "location", description)
		return c
	}

	c, err := search(ctx, d, description)
	if errors.Is(err, ErrNoResults) {
		log.Infow("no geocoding results, using default coordinates", "location", description)
		return Default
	}
	if err != nil {
		log.Warnw("geocoding failed, using default coordinates", "location", description, "error", err)
		return Default
	}

	toCache(ctx, d, key, c)
	return c
}

func search(ctx context.Context, d *session.Deps, description string) (c Coordinate, err error) {
	ctx, span := d.Tracer(tracerName).Start(ctx, "calling geocode API",
		trace.WithAttributes(
			attribute.String("params.q", description),
			attribute.String("params.api_key", redacted),
		))
	defer func() {
		if err != nil && !errors.Is(err, ErrNoResults) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint := d.GeocodeURL
	if endpoint == "" {
		endpoint = config.DefaultGeocodeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", description)
	q.Set("api_key", d.GeoAPIKey)
	req.URL.RawQuery = q.Encode()

	resp, err := d.Client().Do(req)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode: read body: %w", err)
	}
	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.String("response", string(body)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Coordinate{}, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Coordinate{}, fmt.Errorf("geocode: decode: %w", err)
	}
	if len(results) == 0 {
		return Coordinate{}, ErrNoResults
	}

	lat, err := results[0].Lat.Float64()
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode: lat %q: %w", results[0].Lat, err)
	}
	lng, err := results[0].Lon.Float64()
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode: lon %q: %w", results[0].Lon, err)
	}
	c = Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("geocode: coordinate out of range: %s", c)
	}
	return c, nil
}

func fromCache(ctx context.Context, d *session.Deps, key string) (Coordinate, bool) {
	if d.Cache == nil {
		return Coordinate{}, false
	}
	b, err := d.Cache.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			d.Log().Warnw("geocode cache read failed", "key", key, "error", err)
		}
		return Coordinate{}, false
	}
	var c Coordinate
	if err := json.Unmarshal(b, &c); err != nil || !c.Valid() {
		d.Log().Warnw("geocode cache entry unusable", "key", key, "error", err)
		return Coordinate{}, false
	}
	return c, true
}

func toCache(ctx context.Context, d *session.Deps, key string, c Coordinate) {
	if d.Cache == nil {
		return
	}
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := d.Cache.Set(ctx, cacheKeyPrefix+key, b, d.CacheTTL); err != nil {
		d.Log().Warnw("geocode cache write failed", "key", key, "error", err)
	}
}
