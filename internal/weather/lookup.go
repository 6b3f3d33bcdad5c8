package weather

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

	"github.com/petasbytes/weather-agent/internal/config"
	"github.com/petasbytes/weather-agent/internal/geo"
	"github.com/petasbytes/weather-agent/internal/session"
)

const (
	tracerName   = "github.com/petasbytes/weather-agent/internal/weather"
	maxBodyBytes = 1 << 20
	redacted     = "[redacted]"
)

// StatusError reports a non-2xx answer from the weather service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather: unexpected status %d: %s", e.Code, e.Body)
}

type realtimeResponse struct {
	Data struct {
		Values struct {
			TemperatureApparent *float64 `json:"temperatureApparent"`
			WeatherCode         *int     `json:"weatherCode"`
		} `json:"values"`
	} `json:"data"`
}

// Lookup returns current conditions at c. Without a credential it returns
// Dummy and makes no request. A non-2xx status yields *StatusError; malformed
// bodies yield a plain error.
func Lookup(ctx context.Context, d *session.Deps, c geo.Coordinate) (r Report, err error) {
	if d == nil || d.WeatherAPIKey == "" {
		d.Log().Infow("no weather key, using dummy report", "location", c.String())
		return Dummy, nil
	}

	ctx, span := d.Tracer(tracerName).Start(ctx, "calling weather API",
		trace.WithAttributes(
			attribute.String("params.apikey", redacted),
			attribute.String("params.location", c.String()),
			attribute.String("params.units", "metric"),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint := d.WeatherURL
	if endpoint == "" {
		endpoint = config.DefaultWeatherURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Report{}, fmt.Errorf("weather: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("apikey", d.WeatherAPIKey)
	q.Set("location", c.String())
	q.Set("units", "metric")
	req.URL.RawQuery = q.Encode()

	resp, err := d.Client().Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("weather: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Report{}, fmt.Errorf("weather: read body: %w", err)
	}
	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.String("response", string(body)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var rt realtimeResponse
	if err := json.Unmarshal(body, &rt); err != nil {
		return Report{}, fmt.Errorf("weather: decode: %w", err)
	}
	v := rt.Data.Values
	if v.TemperatureApparent == nil {
		return Report{}, errors.New("weather: response missing data.values.temperatureApparent")
	}
	if v.WeatherCode == nil {
		return Report{}, errors.New("weather: response missing data.values.weatherCode")
	}

	r = Report{
		Temperature: FormatTemperature(*v.TemperatureApparent),
		Description: DescribeCode(*v.WeatherCode),
	}
	d.Log().Debugw("weather lookup", "location", c.String(), "code", *v.WeatherCode, "report", r)
	return r, nil
}
