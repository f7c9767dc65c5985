package loop

import (
	"goa.design/agentloop/model"
	"goa.design/agentloop/telemetry"
	"goa.design/agentloop/tools"
)

const (
	// DefaultMaxIterations bounds the number of model round-trips per Run.
	DefaultMaxIterations = 10

	// DefaultTextFlushThreshold is the number of newly accumulated text
	// characters that triggers an intermediate text emission.
	DefaultTextFlushThreshold = 300

	// DefaultReasoningFlushThreshold is the number of newly accumulated
	// reasoning characters that triggers an intermediate reasoning emission.
	// Reasoning flushes at a finer granularity than text.
	DefaultReasoningFlushThreshold = 150
)

type (
	// UsageMode selects how per-stream token usage snapshots combine into the
	// usage reported for the whole run.
	UsageMode int

	// ToolChoicePolicy computes the tool choice constraint sent with each
	// model request. iteration is zero-based; hasTools reports whether any
	// tool definitions accompany the request.
	ToolChoicePolicy func(iteration int, hasTools bool) model.ToolChoice

	// Option configures a Loop.
	Option func(*Loop)
)

const (
	// UsageModeChained treats each stream's usage as cumulative for the chained
	// response and keeps the last snapshot. This matches providers that carry
	// conversation state server-side via response chaining.
	UsageModeChained UsageMode = iota

	// UsageModePerIteration sums the usage snapshots of all streams. Use this
	// when each request is independently billed, i.e. when the full transcript
	// is resent every iteration.
	UsageModePerIteration
)

// WithRegistry supplies the tool registry consulted for every function call
// the model requests. Without a registry the loop answers tool requests with
// a capability directive instead of executing anything.
func WithRegistry(reg *tools.Registry) Option {
	return func(l *Loop) {
		l.registry = reg
	}
}

// WithTraceSink installs a sink receiving one ToolTrace per tool invocation.
func WithTraceSink(sink telemetry.ToolTraceSink) Option {
	return func(l *Loop) {
		l.traces = sink
	}
}

// WithLogger installs a structured logger for loop diagnostics.
func WithLogger(logger telemetry.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithMaxIterations overrides the model round-trip bound. Values below one
// are ignored.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithTextFlushThreshold overrides the intermediate text emission threshold.
// Values below one are ignored.
func WithTextFlushThreshold(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.textThreshold = n
		}
	}
}

// WithReasoningFlushThreshold overrides the intermediate reasoning emission
// threshold. Values below one are ignored.
func WithReasoningFlushThreshold(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.reasoningThreshold = n
		}
	}
}

// WithToolChoicePolicy overrides the per-iteration tool choice computation.
func WithToolChoicePolicy(policy ToolChoicePolicy) Option {
	return func(l *Loop) {
		if policy != nil {
			l.toolChoice = policy
		}
	}
}

// WithUsageMode selects the usage aggregation strategy.
func WithUsageMode(mode UsageMode) Option {
	return func(l *Loop) {
		l.usageMode = mode
	}
}

// WithResponseChaining toggles server-side conversation state. When enabled
// (the default) follow-up requests reference the previous response id and send
// only the new tool outputs; when disabled the loop resends the accumulated
// transcript every iteration.
func WithResponseChaining(enabled bool) Option {
	return func(l *Loop) {
		l.chaining = enabled
	}
}

// WithForcedFirstToolCall installs a policy requiring the named tool on the
// first iteration and reverting to auto selection afterwards.
func WithForcedFirstToolCall(name tools.Ident) Option {
	return WithToolChoicePolicy(func(iteration int, hasTools bool) model.ToolChoice {
		if iteration == 0 && hasTools {
			return model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: name}
		}
		return defaultToolChoice(iteration, hasTools)
	})
}

// defaultToolChoice lets the model decide whenever tools are present.
func defaultToolChoice(_ int, hasTools bool) model.ToolChoice {
	if hasTools {
		return model.ToolChoice{Mode: model.ToolChoiceModeAuto}
	}
	return model.ToolChoice{}
}
