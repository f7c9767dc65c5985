package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"goa.design/agentloop/model"
	"goa.design/agentloop/telemetry"
	"goa.design/agentloop/tools"
)

// toolOutcome is the result of one tool invocation. content is always a JSON
// string: the serialized handler return value on success, a serialized error
// object otherwise. Failures are values here, never errors: one tool failing
// must not abort sibling calls or the conversation, the model reacts to the
// structured error payload instead.
type toolOutcome struct {
	callID    string
	name      string
	rawArgs   string
	arguments any
	result    any
	content   string
	terminal  bool
	success   bool
	errMsg    string
	start     time.Time
	end       time.Time
}

// executeAll invokes every pending call concurrently and returns one outcome
// per call, index-correlated with the input: outcome i belongs to calls[i]
// regardless of completion order. All calls are dispatched before any is
// awaited.
func (l *Loop) executeAll(ctx context.Context, calls []model.PendingToolCall) []toolOutcome {
	outcomes := make([]toolOutcome, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call model.PendingToolCall) {
			defer wg.Done()
			outcomes[i] = l.executeOne(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return outcomes
}

// executeOne runs a single tool call end to end: decode arguments, resolve the
// handler, invoke it, serialize the outcome. It never returns an error; handler
// errors and panics degrade to structured error payloads.
func (l *Loop) executeOne(ctx context.Context, call model.PendingToolCall) (out toolOutcome) {
	out.callID = call.ID
	if out.callID == "" {
		// Providers normally supply the call id; generate one so the output
		// record can still be correlated when they do not.
		out.callID = "call_" + uuid.NewString()
	}
	out.name = call.Name
	out.rawArgs = call.Arguments
	out.start = time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.setError(fmt.Sprintf("tool panicked: %v", r))
		}
		out.end = time.Now()
		l.reportToolTrace(ctx, out)
	}()

	// Malformed argument JSON degrades to an empty object: conversation
	// continuity wins over strict validation.
	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			args = map[string]any{}
		}
	}
	out.arguments = args

	def, ok := l.registry.Lookup(tools.Ident(call.Name))
	if !ok {
		out.setError("Tool not found")
		return out
	}
	out.terminal = def.Terminal

	res, err := def.Handler(ctx, args)
	if err != nil {
		out.setError(err.Error())
		return out
	}
	b, err := json.Marshal(res)
	if err != nil {
		out.setError(fmt.Sprintf("marshal tool result: %v", err))
		return out
	}
	out.result = res
	out.content = string(b)
	out.success = true
	return out
}

// setError records a structured error payload as the call outcome.
func (out *toolOutcome) setError(msg string) {
	out.success = false
	out.errMsg = msg
	out.result = map[string]any{"error": msg}
	b, err := json.Marshal(out.result)
	if err != nil {
		b = []byte(`{"error":"tool execution failed"}`)
	}
	out.content = string(b)
}

// reportToolTrace forwards the invocation record to the trace sink on a
// detached goroutine. Reporting is fire-and-forget: it is exempt from
// cancellation and its failure never reaches the returned outcome.
func (l *Loop) reportToolTrace(ctx context.Context, out toolOutcome) {
	if l.traces == nil {
		return
	}
	t := telemetry.ToolTrace{
		Tool:      out.name,
		Arguments: out.rawArgs,
		Error:     out.errMsg,
		StartTime: out.start,
		EndTime:   out.end,
		Duration:  out.end.Sub(out.start),
		Success:   out.success,
	}
	if out.success {
		t.Result = out.content
	}
	go func() {
		defer func() {
			_ = recover()
		}()
		l.traces.RecordToolTrace(context.WithoutCancel(ctx), t)
	}()
}
