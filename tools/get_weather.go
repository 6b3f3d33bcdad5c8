package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/petasbytes/weather-agent/internal/geo"
	"github.com/petasbytes/weather-agent/internal/session"
	"github.com/petasbytes/weather-agent/internal/weather"
)

type GetWeatherInput struct {
	Lat float64 `json:"lat" jsonschema:"minimum=-90,maximum=90" jsonschema_description:"Latitude of the location."`
	Lng float64 `json:"lng" jsonschema:"minimum=-180,maximum=180" jsonschema_description:"Longitude of the location."`
}

// GetWeather returns the get_weather tool bound to d. A non-2xx answer from
// the weather service is returned as a RetryError; anything else is fatal.
func GetWeather(d *session.Deps) ToolDefinition {
	return New("get_weather",
		"Get the weather at a location.",
		func(ctx context.Context, in GetWeatherInput) (string, error) {
			r, err := weather.Lookup(ctx, d, geo.Coordinate{Lat: in.Lat, Lng: in.Lng})
			var se *weather.StatusError
			if errors.As(err, &se) {
				return "", Retry("weather service unavailable, try again", err)
			}
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(r)
			if err != nil {
				return "", err
			}
			return string(b), nil
		})
}
