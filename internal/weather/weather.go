// Package weather fetches current conditions for a coordinate.
package weather

import (
	"fmt"
	"math"
)

// Report is the summary handed back to the agent.
type Report struct {
	Temperature string `json:"temperature"`
	Description string `json:"description"`
}

// Dummy is returned when no weather credential is configured.
var Dummy = Report{Temperature: "21°C", Description: "Sunny"}

// descriptions maps tomorrow.io weather codes to descriptions.
var descriptions = map[int]string{
	1000: "Clear, Sunny",
	1100: "Mostly Clear",
	1101: "Partly Cloudy",
	1102: "Mostly Cloudy",
	1001: "Cloudy",
	2000: "Fog",
	2100: "Light Fog",
	4000: "Drizzle",
	4001: "Rain",
	4200: "Light Rain",
	4201: "Heavy Rain",
	5000: "Snow",
	5001: "Flurries",
	5100: "Light Snow",
	5101: "Heavy Snow",
	6000: "Freezing Drizzle",
	6001: "Freezing Rain",
	6200: "Light Freezing Rain",
	6201: "Heavy Freezing Rain",
	7000: "Ice Pellets",
	7101: "Heavy Ice Pellets",
	7102: "Light Ice Pellets",
	8000: "Thunderstorm",
}

// DescribeCode returns the description for code, or "Unknown".
func DescribeCode(code int) string {
	if s, ok := descriptions[code]; ok {
		return s
	}
	return "Unknown"
}

// FormatTemperature rounds c half-to-even and appends the Celsius unit.
func FormatTemperature(c float64) string {
	return fmt.Sprintf("%d°C", int(math.RoundToEven(c)))
}
