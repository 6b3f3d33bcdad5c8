package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/petasbytes/weather-agent/internal/metrics"
	"github.com/petasbytes/weather-agent/internal/telemetry"
	"github.com/petasbytes/weather-agent/tools"
)

// SystemPrompt instructs the model how to answer.
const SystemPrompt = "Be concise, reply with one sentence. " +
	"Use the `get_lat_lng` tool to get the latitude and longitude of the locations, " +
	"then use the `get_weather` tool to get the weather."

const (
	DefaultMaxRetries = 2
	DefaultMaxSteps   = 8

	tracerName = "github.com/petasbytes/weather-agent/internal/runner"
)

var (
	ErrMaxSteps         = errors.New("runner: step limit reached without a final answer")
	ErrRetriesExhausted = errors.New("runner: tool retries exhausted")
	ErrEmptyDecision    = errors.New("runner: strategy returned neither text nor tool calls")
)

type Runner struct {
	Strategy Strategy
	Tools    []tools.ToolDefinition
	// MaxRetries is how many consecutive retryable failures a tool may have
	// before the run fails.
	MaxRetries int
	MaxSteps   int
	Logger     *zap.SugaredLogger
	Tracer     trace.Tracer
}

func New(s Strategy, toolDefs []tools.ToolDefinition) *Runner {
	return &Runner{
		Strategy:   s,
		Tools:      toolDefs,
		MaxRetries: DefaultMaxRetries,
		MaxSteps:   DefaultMaxSteps,
	}
}

// Result is the outcome of a completed run.
type Result struct {
	RunID string
	Text  string
	Steps []Step
}

func (r *Runner) log() *zap.SugaredLogger {
	if r.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return r.Logger
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return r.Tracer
}

// Run answers query, calling tools as the strategy requests.
func (r *Runner) Run(ctx context.Context, query string) (res Result, err error) {
	runID, ok := telemetry.RunIDFromContext(ctx)
	if !ok {
		runID = fmt.Sprintf("run-%d", time.Now().UnixNano())
		ctx = telemetry.WithRunID(ctx, runID)
	}
	res.RunID = runID

	ctx, span := r.tracer().Start(ctx, "agent run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("query", query),
	))
	start := time.Now()
	defer func() {
		fields := map[string]any{
			"run_id":      runID,
			"steps":       len(res.Steps),
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       nil,
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			fields["error"] = err.Error()
		} else {
			for k, v := range metrics.Measure(res.Text).Fields("answer_") {
				fields[k] = v
			}
		}
		telemetry.Emit("run_complete", fields)
		span.End()
	}()

	maxSteps := r.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	req := Request{System: SystemPrompt, Query: query, Tools: r.Tools}
	failures := map[string]int{}

	for i := 0; i < maxSteps; i++ {
		if err := ctx.Err(); err != nil {
			res.Steps = req.Steps
			return res, err
		}
		d, err := r.Strategy.Next(ctx, req)
		if err != nil {
			res.Steps = req.Steps
			return res, fmt.Errorf("strategy: %w", err)
		}
		if d.Final() {
			res.Steps = req.Steps
			if d.Text == "" {
				return res, ErrEmptyDecision
			}
			res.Text = d.Text
			if !metrics.Measure(d.Text).OneSentence() {
				r.log().Debugw("answer is not a single sentence", "run_id", runID)
			}
			r.log().Debugw("run complete", "run_id", runID, "steps", len(req.Steps))
			return res, nil
		}

		step := Step{Decision: d, Results: make([]ToolResult, 0, len(d.Calls))}
		for _, call := range d.Calls {
			out, err := r.execTool(ctx, call)
			if err == nil {
				delete(failures, call.Name)
				step.Results = append(step.Results, ToolResult{CallID: call.ID, Name: call.Name, Content: out})
				continue
			}
			if !tools.IsRetry(err) {
				res.Steps = append(req.Steps, step)
				return res, fmt.Errorf("tool %s: %w", call.Name, err)
			}
			failures[call.Name]++
			r.log().Infow("tool failed, returning error to strategy",
				"run_id", runID, "tool", call.Name, "attempt", failures[call.Name], "error", err)
			if failures[call.Name] > r.MaxRetries {
				res.Steps = append(req.Steps, step)
				return res, fmt.Errorf("%w: %s: %v", ErrRetriesExhausted, call.Name, err)
			}
			step.Results = append(step.Results, ToolResult{CallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true})
		}
		req.Steps = append(req.Steps, step)
	}
	res.Steps = req.Steps
	return res, ErrMaxSteps
}

func (r *Runner) execTool(ctx context.Context, call ToolCall) (out string, err error) {
	ctx, span := r.tracer().Start(ctx, "running tool", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	))
	runID, _ := telemetry.RunIDFromContext(ctx)
	start := time.Now()

	defer func() {
		fields := map[string]any{
			"tool_name":   call.Name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  len(call.Input),
			"output_size": len(out),
			"run_id":      runID,
			"error":       nil,
		}
		// Generic error strings keep raw payloads out of telemetry.
		switch {
		case err == nil:
		case errors.Is(err, errToolNotFound):
			fields["error"] = "tool not found"
		case tools.IsRetry(err):
			fields["error"] = "tool retry"
		default:
			fields["error"] = "tool error"
		}
		telemetry.Emit("tool_exec", fields)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	def, ok := tools.Lookup(r.Tools, call.Name)
	if !ok {
		return "", tools.Retry(fmt.Sprintf("unknown tool %q", call.Name), errToolNotFound)
	}
	return def.Function(ctx, call.Input)
}

var errToolNotFound = errors.New("tool not found")
