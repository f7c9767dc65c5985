package loop

import "context"

type (
	// Sink delivers partial and final conversation output to a downstream
	// consumer (SSE connection, workflow node, message bus). The loop calls
	// Send from its single goroutine, in fold order: text flushed for one
	// iteration never races ahead of text from an earlier one, and tool
	// results arrive in call order.
	//
	// Send errors propagate and abort the conversation; implementations that
	// prefer best-effort delivery should swallow their own failures.
	Sink interface {
		// Send publishes one output payload.
		Send(ctx context.Context, out Output) error
	}

	// SinkFunc adapts a function to the Sink interface.
	SinkFunc func(ctx context.Context, out Output) error

	// Output is the single payload shape pushed through a Sink. Exactly one of
	// the partial fields is set per intermediate emission; the final emission
	// bundles chunk, text and reasoning together. Threshold-flushed payloads
	// carry the entire accumulated value, not a delta, so every emission is
	// idempotent and self-sufficient for a consumer that only keeps the
	// last-seen value.
	Output struct {
		// Chunk is the full accumulated assistant text on threshold flushes and
		// on the final emission.
		Chunk string `json:"chunk,omitempty"`
		// Reasoning is the full accumulated reasoning text.
		Reasoning string `json:"reasoning,omitempty"`
		// ToolResult carries one tool invocation outcome, emitted immediately
		// when the call completes, never threshold-buffered.
		ToolResult *ToolResultOutput `json:"mcpResult,omitempty"`
		// Text is the complete assistant text, set only on the final emission.
		Text string `json:"text,omitempty"`
	}

	// ToolResultOutput is the per-tool-call payload pushed through the sink.
	ToolResultOutput struct {
		// Name is the invoked tool name.
		Name string `json:"name"`
		// Arguments is the decoded argument object the tool was invoked with.
		Arguments any `json:"arguments"`
		// Result is the decoded tool result, or a structured error object when
		// the invocation failed.
		Result any `json:"result"`
	}
)

// Send implements Sink.
func (f SinkFunc) Send(ctx context.Context, out Output) error {
	return f(ctx, out)
}
