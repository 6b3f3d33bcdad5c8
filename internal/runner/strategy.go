package runner

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/weather-agent/tools"
)

// Strategy decides the next move given everything that has happened so far.
type Strategy interface {
	Next(ctx context.Context, req Request) (Decision, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, req Request) (Decision, error)

func (f StrategyFunc) Next(ctx context.Context, req Request) (Decision, error) { return f(ctx, req) }

// Request is the full state handed to a Strategy on every step.
type Request struct {
	System string
	Query  string
	Tools  []tools.ToolDefinition
	Steps  []Step
}

// Decision is either final text (no Calls) or one or more tool calls.
// Text may accompany calls.
type Decision struct {
	Text  string
	Calls []ToolCall
}

// Final reports whether d ends the run.
func (d Decision) Final() bool { return len(d.Calls) == 0 }

type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Step pairs a decision with the results of its tool calls, in call order.
type Step struct {
	Decision Decision
	Results  []ToolResult
}
