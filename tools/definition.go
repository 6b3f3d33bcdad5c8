package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolDefinition is a tool the model may call. Function receives the raw
// JSON input exactly as the model produced it.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema anthropic.ToolInputSchemaParam
	Function    func(ctx context.Context, input json.RawMessage) (string, error)
}

func reflectSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// GenerateSchema derives the tool input schema from T's struct tags.
func GenerateSchema[T any]() anthropic.ToolInputSchemaParam {
	schema := reflectSchema[T]()
	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
		Required:   schema.Required,
	}
}

// compileSchema turns T's reflected schema into a validator.
func compileSchema[T any](name string) (*validator.Schema, error) {
	raw, err := json.Marshal(reflectSchema[T]())
	if err != nil {
		return nil, err
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	url := "mem://tools/" + name + ".json"
	c := validator.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// New builds a ToolDefinition whose input is validated against T's schema
// and decoded into T before fn runs. Malformed or invalid input is reported
// as a *RetryError. It panics if T's schema does not compile.
func New[T any](name, description string, fn func(ctx context.Context, in T) (string, error)) ToolDefinition {
	sch, err := compileSchema[T](name)
	if err != nil {
		panic(fmt.Sprintf("tools: schema for %s: %v", name, err))
	}
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: GenerateSchema[T](),
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			inst, err := validator.UnmarshalJSON(bytes.NewReader(input))
			if err != nil {
				return "", Retry("input is not valid JSON", err)
			}
			if err := sch.Validate(inst); err != nil {
				return "", Retry("input does not match schema", err)
			}
			var in T
			if err := json.Unmarshal(input, &in); err != nil {
				return "", Retry("input could not be decoded", err)
			}
			return fn(ctx, in)
		},
	}
}

// Lookup returns the definition named name.
func Lookup(defs []ToolDefinition, name string) (*ToolDefinition, bool) {
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i], true
		}
	}
	return nil, false
}
