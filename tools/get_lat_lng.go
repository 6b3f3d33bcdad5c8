package tools

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/weather-agent/internal/geo"
	"github.com/petasbytes/weather-agent/internal/session"
)

type GetLatLngInput struct {
	LocationDescription string `json:"location_description" jsonschema_description:"A description of a location."`
}

// GetLatLng returns the get_lat_lng tool bound to d. The resolver never
// fails, so the only errors are input errors.
func GetLatLng(d *session.Deps) ToolDefinition {
	return New("get_lat_lng",
		"Get the latitude and longitude of a location.",
		func(ctx context.Context, in GetLatLngInput) (string, error) {
			c := geo.Resolve(ctx, d, in.LocationDescription)
			b, err := json.Marshal(c)
			if err != nil {
				return "", err
			}
			return string(b), nil
		})
}
