package tools

import "github.com/petasbytes/weather-agent/internal/session"

// Registry returns all tool definitions wired for the agent
func Registry(d *session.Deps) []ToolDefinition {
	return []ToolDefinition{GetLatLng(d), GetWeather(d)}
}
