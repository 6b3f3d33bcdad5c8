// Package tools defines tool contracts and implementations.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - New[T](): typed constructor that validates input against the schema.
//   - RetryError: failures the model may correct by calling again.
//   - Weather tools: get_lat_lng, get_weather.
package tools
