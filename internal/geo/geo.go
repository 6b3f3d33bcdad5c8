// Package geo resolves free-text place descriptions to coordinates.
//
// Resolve never fails: table hits, missing credentials, forced fallback and
// every remote failure all end in a usable Coordinate.
package geo

import (
	"fmt"
	"strings"
)

// Coordinate is a point on Earth in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether c lies within geographic range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// String renders c as "lat,lng", the form the weather endpoint expects.
func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lng)
}

// Default is returned whenever no better answer is available.
var Default = Coordinate{Lat: 51.1, Lng: -0.1}

// fallbacks maps normalized place names to known coordinates.
var fallbacks = map[string]Coordinate{
	"london":    {Lat: 51.5074, Lng: -0.1278},
	"wiltshire": {Lat: 51.0632, Lng: -1.9497},
}

// Normalize lowercases and trims a place description.
func Normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Fallback looks up a description in the static table.
func Fallback(description string) (Coordinate, bool) {
	c, ok := fallbacks[Normalize(description)]
	return c, ok
}
