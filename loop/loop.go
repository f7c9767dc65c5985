// Package loop implements the multi-turn conversation orchestrator: it opens
// model event streams through a transport, folds the events into the
// accumulator, emits incremental output through a sink, executes requested
// tool calls concurrently and feeds their results back to the model until the
// conversation completes or the iteration bound is reached.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"goa.design/agentloop/model"
	"goa.design/agentloop/telemetry"
	"goa.design/agentloop/tools"
)

type (
	// Loop drives multi-turn tool-calling conversations against a streaming
	// completion transport. A Loop is immutable after New and safe for
	// concurrent use; each Run owns its private conversation state.
	Loop struct {
		transport model.Transport
		sink      Sink
		registry  *tools.Registry
		traces    telemetry.ToolTraceSink
		logger    telemetry.Logger

		maxIterations      int
		textThreshold      int
		reasoningThreshold int
		toolChoice         ToolChoicePolicy
		usageMode          UsageMode
		chaining           bool
	}

	// RunInput carries the caller-supplied parameters of one conversation.
	RunInput struct {
		// Model is the provider model identifier.
		Model string
		// Instructions is the system-level instruction text.
		Instructions string
		// Input is the initial transcript, typically system and user messages.
		Input []model.Item
		// MaxOutputTokens caps completion tokens per iteration. Zero means
		// provider default.
		MaxOutputTokens int
		// Reasoning configures provider reasoning output. Nil uses provider
		// defaults.
		Reasoning *model.ReasoningOptions
	}

	// RunOutput is the terminal result of a conversation, returned for both
	// completed and iteration-bounded runs.
	RunOutput struct {
		// Text is the full assistant-visible text across all iterations.
		Text string `json:"text"`
		// Reasoning is the accumulated visible reasoning text.
		Reasoning string `json:"reasoning,omitempty"`
		// Usage is the aggregated token accounting for the run.
		Usage model.Usage `json:"usage"`
		// FinishReason is the terminal condition reported by the last stream.
		FinishReason string `json:"finishReason,omitempty"`
		// ToolCalls lists every executed tool call across all iterations in
		// invocation order, nil when none were executed.
		ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`
		// Status reports how the run ended.
		Status Status `json:"status"`
	}

	// ToolCallRecord is one executed tool call in the run summary.
	ToolCallRecord struct {
		// Name is the invoked tool name.
		Name string `json:"name"`
		// Arguments is the decoded argument object.
		Arguments any `json:"arguments"`
		// Result is the decoded result, or a structured error object on failure.
		Result any `json:"result"`
	}

	// Status is the terminal state of a run.
	Status string
)

const (
	// StatusCompleted means the conversation reached a natural end: a stream
	// with no tool calls, or a terminal tool invocation.
	StatusCompleted Status = "completed"

	// StatusMaxIterations means the iteration bound was reached before a
	// natural end. The accompanying output is best-effort partial state, not
	// an error.
	StatusMaxIterations Status = "max_iterations"
)

// noToolsDirective is appended to the instructions when the model requests a
// tool call but no registry is available, so the turn is not silently dropped.
const noToolsDirective = "\n\nTools are not available in this session. Do not request tool calls; answer directly using the information you already have."

// New constructs a conversation loop over the given transport and output sink.
func New(transport model.Transport, sink Sink, opts ...Option) (*Loop, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	l := &Loop{
		transport:          transport,
		sink:               sink,
		traces:             telemetry.NewNoopToolTraceSink(),
		logger:             telemetry.NewNoopLogger(),
		maxIterations:      DefaultMaxIterations,
		textThreshold:      DefaultTextFlushThreshold,
		reasoningThreshold: DefaultReasoningFlushThreshold,
		toolChoice:         defaultToolChoice,
		usageMode:          UsageModeChained,
		chaining:           true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run executes one conversation to a terminal state. It returns an error only
// for hard failures (stream creation, mid-stream transport errors, sink
// failures); provider-reported error events and iteration exhaustion are
// normal terminal states surfaced through the returned output.
func (l *Loop) Run(ctx context.Context, in RunInput) (*RunOutput, error) {
	if in.Model == "" {
		return nil, errors.New("model is required")
	}

	state := model.NewState()
	transcript := append([]model.Item(nil), in.Input...)
	instructions := in.Instructions
	toolDefs := l.toolDefinitions()
	hasTools := len(toolDefs) > 0

	textEmitter := newEmitter(l.textThreshold, func(ctx context.Context, full string) error {
		return l.sink.Send(ctx, Output{Chunk: full})
	})
	reasoningEmitter := newEmitter(l.reasoningThreshold, func(ctx context.Context, full string) error {
		return l.sink.Send(ctx, Output{Reasoning: full})
	})

	var (
		usage model.Usage
		// chainInput holds only the items produced since the chained response;
		// the full transcript is maintained in parallel and remains valid.
		chainInput []model.Item
		records    []ToolCallRecord
		directed   bool
	)
	status := StatusMaxIterations

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		state = state.BeginIteration()
		if l.usageMode == UsageModePerIteration {
			// Each stream bills independently in this mode: a stream that
			// reports no usage must contribute zero, not the retained snapshot
			// of the previous iteration.
			state.Usage = model.Usage{}
		}
		textEmitter.reset()
		reasoningEmitter.reset()

		req := model.Request{
			Model:           in.Model,
			Instructions:    instructions,
			Tools:           toolDefs,
			ToolChoice:      l.toolChoice(iteration, hasTools),
			MaxOutputTokens: in.MaxOutputTokens,
			Reasoning:       in.Reasoning,
		}
		if l.chaining && state.ResponseID != "" {
			req.PreviousResponseID = state.ChainFrom()
			req.Input = chainInput
		} else {
			req.Input = append([]model.Item(nil), transcript...)
		}
		l.logger.Debug(ctx, "loop iteration",
			"iteration", iteration,
			"model", in.Model,
			"input_items", len(req.Input),
			"chained", req.PreviousResponseID != "",
		)

		stream, err := l.transport.CreateStream(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("create stream: %w", err)
		}
		state, err = l.fold(ctx, stream, state, textEmitter, reasoningEmitter)
		if err != nil {
			return nil, err
		}
		usage = combineUsage(l.usageMode, usage, state.Usage)

		if len(state.ToolCalls) == 0 {
			status = StatusCompleted
			break
		}

		if l.registry.Len() == 0 {
			// Tool requested with nothing to execute it: amend the
			// instructions and let the model answer directly instead of
			// dropping the turn.
			l.logger.Warn(ctx, "tool call requested without a registry",
				"iteration", iteration, "calls", len(state.ToolCalls))
			if !directed {
				instructions += noToolsDirective
				directed = true
			}
			// The pending calls were never answered, so the chained response
			// cannot be continued; discard the id and resend the transcript.
			state.ChainFrom()
			continue
		}

		// Preserve the assistant narration that preceded the calls so replayed
		// history stays coherent.
		var produced []model.Item
		if state.IterationText != "" {
			produced = append(produced, model.NewAssistantMessage(state.IterationText))
		}
		outcomes := l.executeAll(ctx, state.ToolCalls)
		terminal := false
		for _, out := range outcomes {
			produced = append(produced, model.NewFunctionCall(out.callID, out.name, out.rawArgs))
			if err := l.sink.Send(ctx, Output{ToolResult: &ToolResultOutput{
				Name:      out.name,
				Arguments: out.arguments,
				Result:    out.result,
			}}); err != nil {
				return nil, fmt.Errorf("send tool result: %w", err)
			}
			records = append(records, ToolCallRecord{Name: out.name, Arguments: out.arguments, Result: out.result})
			if out.terminal {
				terminal = true
			}
		}
		if terminal {
			l.logger.Debug(ctx, "terminal tool invoked", "iteration", iteration)
			status = StatusCompleted
			break
		}

		var outputs []model.Item
		for _, out := range outcomes {
			outputs = append(outputs, model.NewFunctionCallOutput(out.callID, out.content))
		}
		transcript = append(transcript, produced...)
		transcript = append(transcript, outputs...)
		chainInput = outputs
	}

	if status == StatusMaxIterations {
		l.logger.Warn(ctx, "iteration bound reached", "max_iterations", l.maxIterations)
	}

	// Terminal emission bundles the complete text and reasoning so consumers
	// that only keep the last payload end up with the whole conversation.
	if err := l.sink.Send(ctx, Output{Chunk: state.FullText, Text: state.FullText, Reasoning: state.Reasoning}); err != nil {
		return nil, fmt.Errorf("send final output: %w", err)
	}

	return &RunOutput{
		Text:         state.FullText,
		Reasoning:    state.Reasoning,
		Usage:        usage,
		FinishReason: state.FinishReason,
		ToolCalls:    records,
		Status:       status,
	}, nil
}

// fold consumes the stream to completion, reducing every event into the state
// and driving the threshold emitters off the per-fold growth of the text and
// reasoning accumulators. The stream is always closed before returning.
func (l *Loop) fold(ctx context.Context, stream model.Stream, state model.State, text, reasoning *emitter) (model.State, error) {
	defer func() {
		_ = stream.Close()
	}()
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return state, fmt.Errorf("receive event: %w", err)
		}
		prevText := len(state.FullText)
		prevReasoning := len(state.Reasoning)
		state = model.Reduce(state, ev)
		// Both accumulators grow by appending only, so the byte suffix since
		// the last fold is exactly the new content. Thresholds count
		// characters, not bytes, so multi-byte output does not flush early.
		if n := utf8.RuneCountInString(state.FullText[prevText:]); n > 0 {
			if err := text.emitIfNeeded(ctx, state.FullText, n); err != nil {
				return state, fmt.Errorf("emit text: %w", err)
			}
		}
		if n := utf8.RuneCountInString(state.Reasoning[prevReasoning:]); n > 0 {
			if err := reasoning.emitIfNeeded(ctx, state.Reasoning, n); err != nil {
				return state, fmt.Errorf("emit reasoning: %w", err)
			}
		}
	}
	if err := text.emitFinal(ctx, state.FullText); err != nil {
		return state, fmt.Errorf("emit text: %w", err)
	}
	if err := reasoning.emitFinal(ctx, state.Reasoning); err != nil {
		return state, fmt.Errorf("emit reasoning: %w", err)
	}
	return state, nil
}

// toolDefinitions projects the registry into the schema list sent with every
// request.
func (l *Loop) toolDefinitions() []model.ToolDefinition {
	defs := l.registry.Definitions()
	if len(defs) == 0 {
		return nil
	}
	out := make([]model.ToolDefinition, 0, len(defs))
	for _, def := range defs {
		out = append(out, model.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return out
}

// combineUsage folds one stream's usage snapshot into the run aggregate
// according to the configured mode.
func combineUsage(mode UsageMode, total, snapshot model.Usage) model.Usage {
	if mode == UsageModePerIteration {
		total.InputTokens += snapshot.InputTokens
		total.OutputTokens += snapshot.OutputTokens
		total.TotalTokens += snapshot.TotalTokens
		return total
	}
	// Chained responses report cumulative totals; the last snapshot is the
	// run total.
	return snapshot
}
