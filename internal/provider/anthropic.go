package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/weather-agent/internal/runner"
	"github.com/petasbytes/weather-agent/tools"
)

// NewAnthropicClient returns a client for apiKey. Extra options (HTTP client,
// base URL) are appended after the key.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *anthropic.Client {
	c := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &c
}

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const DefaultMaxTokens = 1024

// Anthropic is a runner.Strategy backed by the Messages API. Each call
// replays the whole exchange so the model sees every tool_use paired with
// its tool_result.
type Anthropic struct {
	Client    *anthropic.Client
	Model     anthropic.Model
	MaxTokens int64
}

func NewAnthropic(client *anthropic.Client, model string, maxTokens int64) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Anthropic{Client: client, Model: m, MaxTokens: maxTokens}
}

func toolParams(defs []tools.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// messages renders req as alternating user/assistant turns:
//
//	user(query) -> assistant(text?, tool_use...) -> user(tool_result...) -> ...
func messages(req runner.Request) []anthropic.MessageParam {
	conv := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Query))}
	for _, step := range req.Steps {
		var blocks []anthropic.ContentBlockParamUnion
		if step.Decision.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(step.Decision.Text))
		}
		for _, c := range step.Decision.Calls {
			input := c.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(c.ID, input, c.Name))
		}
		conv = append(conv, anthropic.NewAssistantMessage(blocks...))

		results := make([]anthropic.ContentBlockParamUnion, 0, len(step.Results))
		for _, r := range step.Results {
			results = append(results, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
		}
		conv = append(conv, anthropic.NewUserMessage(results...))
	}
	return conv
}

// Next sends the exchange so far and translates the reply into a Decision.
func (a *Anthropic) Next(ctx context.Context, req runner.Request) (runner.Decision, error) {
	params := anthropic.MessageNewParams{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
		Messages:  messages(req),
		Tools:     toolParams(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return runner.Decision{}, err
	}

	var d runner.Decision
	var text []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				text = append(text, v.Text)
			}
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to the tool implementation
			d.Calls = append(d.Calls, runner.ToolCall{
				ID:    v.ID,
				Name:  v.Name,
				Input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	d.Text = strings.Join(text, "\n")
	return d, nil
}

var _ runner.Strategy = (*Anthropic)(nil)
