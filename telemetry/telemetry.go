// Package telemetry defines the observability seams of the conversation loop:
// a structured logger interface and a tool trace sink fed with one record per
// tool invocation. Both default to no-ops so the core stays silent unless the
// caller wires real implementations (see the clue logger and the OTel sink).
package telemetry

import (
	"context"
	"time"
)

type (
	// Logger abstracts structured leveled logging with key-value pairs.
	// Implementations must be safe for concurrent use.
	Logger interface {
		// Debug emits a debug-level log message with structured key-value pairs.
		Debug(ctx context.Context, msg string, keyvals ...any)
		// Info emits an info-level log message with structured key-value pairs.
		Info(ctx context.Context, msg string, keyvals ...any)
		// Warn emits a warning-level log message with structured key-value pairs.
		Warn(ctx context.Context, msg string, keyvals ...any)
		// Error emits an error-level log message with structured key-value pairs.
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// ToolTrace captures the observable outcome of one tool invocation.
	ToolTrace struct {
		// Tool is the invoked tool name.
		Tool string
		// Arguments is the raw JSON argument payload passed to the tool.
		Arguments string
		// Result is the JSON result payload on success, empty on failure.
		Result string
		// Error is the failure message when Success is false.
		Error string
		// StartTime and EndTime bound the invocation wall-clock interval.
		StartTime time.Time
		EndTime   time.Time
		// Duration is EndTime minus StartTime.
		Duration time.Duration
		// Success reports whether the tool returned without error.
		Success bool
	}

	// ToolTraceSink receives tool traces. Reporting is fire-and-forget: the
	// loop never awaits sink calls and implementations must swallow their own
	// failures rather than surface them to the conversation.
	ToolTraceSink interface {
		// RecordToolTrace reports one completed tool invocation.
		RecordToolTrace(ctx context.Context, t ToolTrace)
	}

	// NoopLogger is a no-op implementation of Logger that discards all log messages.
	NoopLogger struct{}

	// NoopToolTraceSink discards all tool traces.
	NoopToolTraceSink struct{}
)

// NewNoopLogger constructs a Logger that discards all log messages.
// Use this for testing or when logging is not required.
func NewNoopLogger() Logger {
	return NoopLogger{}
}

// NewNoopToolTraceSink constructs a ToolTraceSink that discards all traces.
func NewNoopToolTraceSink() ToolTraceSink {
	return NoopToolTraceSink{}
}

// Debug discards the log message.
func (NoopLogger) Debug(context.Context, string, ...any) {}

// Info discards the log message.
func (NoopLogger) Info(context.Context, string, ...any) {}

// Warn discards the log message.
func (NoopLogger) Warn(context.Context, string, ...any) {}

// Error discards the log message.
func (NoopLogger) Error(context.Context, string, ...any) {}

// RecordToolTrace discards the trace.
func (NoopToolTraceSink) RecordToolTrace(context.Context, ToolTrace) {}
