// Package runner drives a Strategy through a query and dispatches the tool
// calls it asks for.
//
// Invariant:
//   - every tool call in a step gets exactly one result, in call order, before
//     the strategy is consulted again.
//
// Flow:
//
//	query -> strategy(tool calls) -> tools(results) -> strategy(text)
//
// Tool errors that are *tools.RetryError go back to the strategy as error
// results until a tool exceeds MaxRetries consecutive failures. Any other
// tool error ends the run.
package runner
