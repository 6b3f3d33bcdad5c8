package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/petasbytes/weather-agent/internal/geo"
	"github.com/petasbytes/weather-agent/internal/runner"
	"github.com/petasbytes/weather-agent/internal/weather"
)

const (
	toolGetLatLng  = "get_lat_lng"
	toolGetWeather = "get_weather"
)

var locationPattern = regexp.MustCompile(`(?i)\b(?:in|at|for)\s+([^?.!,;]+)`)

// Rules is an offline runner.Strategy: resolve the place named in the query,
// fetch its weather, then answer in one sentence. It needs no model.
type Rules struct{}

// Location extracts the place from a query such as "What is the weather like
// in London?". It falls back to the whole query when no preposition matches.
func Location(query string) string {
	if m := locationPattern.FindAllStringSubmatch(query, -1); len(m) > 0 {
		if loc := strings.TrimSpace(m[len(m)-1][1]); loc != "" {
			return loc
		}
	}
	return strings.Trim(strings.TrimSpace(query), "?.!")
}

func (Rules) Next(_ context.Context, req runner.Request) (runner.Decision, error) {
	var (
		coord    *geo.Coordinate
		report   *weather.Report
		numCalls int
	)
	for _, step := range req.Steps {
		numCalls += len(step.Decision.Calls)
		for _, r := range step.Results {
			if r.IsError {
				continue
			}
			switch r.Name {
			case toolGetLatLng:
				var c geo.Coordinate
				if err := json.Unmarshal([]byte(r.Content), &c); err != nil {
					return runner.Decision{}, fmt.Errorf("rules: %s result: %w", r.Name, err)
				}
				coord = &c
			case toolGetWeather:
				var w weather.Report
				if err := json.Unmarshal([]byte(r.Content), &w); err != nil {
					return runner.Decision{}, fmt.Errorf("rules: %s result: %w", r.Name, err)
				}
				report = &w
			}
		}
	}

	loc := Location(req.Query)
	id := fmt.Sprintf("rule-%d", numCalls+1)

	switch {
	case coord == nil:
		input, err := json.Marshal(map[string]string{"location_description": loc})
		if err != nil {
			return runner.Decision{}, err
		}
		return runner.Decision{Calls: []runner.ToolCall{{ID: id, Name: toolGetLatLng, Input: input}}}, nil
	case report == nil:
		input, err := json.Marshal(coord)
		if err != nil {
			return runner.Decision{}, err
		}
		return runner.Decision{Calls: []runner.ToolCall{{ID: id, Name: toolGetWeather, Input: input}}}, nil
	default:
		return runner.Decision{
			Text: fmt.Sprintf("The weather in %s is %s with a temperature of %s.", loc, report.Description, report.Temperature),
		}, nil
	}
}

var _ runner.Strategy = Rules{}
