// Package model defines the streaming event taxonomy produced by Responses-style
// completion providers and the accumulator state folded from those events. It is
// the provider-agnostic vocabulary shared by the conversation loop and transport
// adapters: adapters translate their wire protocol into Event values, the loop
// folds Events through Reduce without knowing which transport produced them.
package model

import (
	"context"

	"goa.design/agentloop/tools"
)

type (
	// Event is a single typed element of a model output stream. Type carries the
	// provider event kind; the remaining fields are populated per kind (an
	// argument delta carries ItemID and Delta, a lifecycle event carries
	// Response, and so on). Events unmarshal directly from the Responses SSE
	// wire format.
	Event struct {
		// Type is the event kind discriminator, one of the Event* constants.
		// Unknown values are valid: Reduce treats them as no-ops.
		Type string `json:"type"`
		// ItemID identifies the output item this event belongs to. Argument
		// deltas are correlated to pending tool calls through this value, never
		// through the call id.
		ItemID string `json:"item_id,omitempty"`
		// OutputIndex is the position of the item within the response output.
		OutputIndex int `json:"output_index,omitempty"`
		// Delta carries the incremental text fragment for delta events.
		Delta string `json:"delta,omitempty"`
		// Text carries the full text for *.done text events.
		Text string `json:"text,omitempty"`
		// Arguments carries the authoritative final argument JSON for
		// function-call arguments done events.
		Arguments string `json:"arguments,omitempty"`
		// Name carries the tool name when the provider repeats it on argument
		// completion events.
		Name string `json:"name,omitempty"`
		// Refusal carries the full refusal text for refusal done events.
		Refusal string `json:"refusal,omitempty"`
		// Item carries the output item for output_item.* events.
		Item *Item `json:"item,omitempty"`
		// Response carries the response snapshot for response lifecycle events.
		Response *ResponseInfo `json:"response,omitempty"`
	}

	// Item is a discrete output item emitted by the provider, and doubles as the
	// transcript input item format: messages, function calls, function call
	// outputs and reasoning blocks all share this shape on the wire.
	Item struct {
		// Type is the item kind, one of the ItemType* constants.
		Type string `json:"type"`
		// ID is the provider-internal item identifier. For function calls this
		// is the value argument deltas reference, not the call id.
		ID string `json:"id,omitempty"`
		// Status reports the provider item status when present.
		Status string `json:"status,omitempty"`
		// Role is the message role for message items.
		Role string `json:"role,omitempty"`
		// Content is the message content. Inputs use a plain string; providers
		// may emit structured content parts on output items, hence any.
		Content any `json:"content,omitempty"`
		// CallID is the call-correlation identifier for function-call items.
		// Function call outputs must reference this value.
		CallID string `json:"call_id,omitempty"`
		// Name is the tool name for function-call items.
		Name string `json:"name,omitempty"`
		// Arguments is the JSON-encoded argument payload for function-call items.
		Arguments string `json:"arguments,omitempty"`
		// Output is the result payload for function-call-output items.
		Output string `json:"output,omitempty"`
		// EncryptedContent carries opaque reasoning state for reasoning items.
		EncryptedContent string `json:"encrypted_content,omitempty"`
		// Summary carries the visible reasoning summary parts for reasoning items.
		Summary []SummaryPart `json:"summary,omitempty"`
	}

	// SummaryPart is a single reasoning summary fragment on a reasoning item.
	SummaryPart struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	}

	// ResponseInfo is the response snapshot carried by lifecycle events.
	ResponseInfo struct {
		// ID is the provider-assigned response identifier used for chaining.
		ID string `json:"id,omitempty"`
		// Status is the provider response status when present.
		Status string `json:"status,omitempty"`
		// Usage reports token accounting. Providers that chain responses report
		// cumulative totals, not per-iteration deltas.
		Usage *Usage `json:"usage,omitempty"`
		// IncompleteDetails explains why a response stopped early.
		IncompleteDetails *IncompleteDetails `json:"incomplete_details,omitempty"`
		// Error carries provider failure details on failed responses.
		Error *ResponseError `json:"error,omitempty"`
	}

	// IncompleteDetails explains an incomplete response termination.
	IncompleteDetails struct {
		// Reason is the provider-supplied incompletion reason, e.g. "max_output_tokens".
		Reason string `json:"reason,omitempty"`
	}

	// ResponseError carries provider failure details.
	ResponseError struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	}

	// Usage records token counts reported by the provider.
	Usage struct {
		// InputTokens counts tokens consumed by the input prompt and history.
		InputTokens int `json:"input_tokens"`
		// OutputTokens counts tokens produced by the model.
		OutputTokens int `json:"output_tokens"`
		// TotalTokens is the aggregate reported by the provider. Prefer this
		// over summing input and output when available.
		TotalTokens int `json:"total_tokens"`
	}

	// PendingToolCall is a tool invocation detected in the current iteration,
	// assembled incrementally from argument delta events.
	PendingToolCall struct {
		// ID is the call-correlation identifier used when returning the
		// corresponding output to the provider.
		ID string
		// ItemID is the provider-internal item identifier used only to route
		// argument deltas to this call while they stream in fragments.
		ItemID string
		// Name identifies the requested tool.
		Name string
		// Arguments is the JSON-encoded payload. It is only guaranteed to be
		// valid JSON once the arguments-done event for the item has been folded.
		Arguments string
	}

	// ToolDefinition describes a tool schema passed to the provider for
	// function calling.
	ToolDefinition struct {
		// Name is the identifier presented to the model.
		Name tools.Ident
		// Description documents the tool for prompting purposes.
		Description string
		// InputSchema is the JSON Schema describing the tool's input parameters.
		InputSchema any
	}

	// ToolChoice constrains how the provider may use tools for one request.
	ToolChoice struct {
		// Mode selects the tool eligibility policy.
		Mode ToolChoiceMode
		// Name is the forced tool when Mode is ToolChoiceModeTool.
		Name tools.Ident
	}

	// ToolChoiceMode enumerates tool eligibility policies.
	ToolChoiceMode string

	// ReasoningOptions configures provider reasoning output for a request.
	ReasoningOptions struct {
		// Effort selects the provider reasoning effort ("low", "medium", "high").
		Effort string
		// Summary selects the reasoning summary verbosity (typically "auto").
		Summary string
	}

	// Request captures the normalized parameters for one streamed model
	// invocation. Transport adapters translate it into their wire format.
	Request struct {
		// Model identifies the target model using the provider identifier.
		Model string
		// Instructions is the system-level instruction text.
		Instructions string
		// Input is the ordered transcript sent to the provider. When
		// PreviousResponseID is set this holds only the items produced since
		// that response; otherwise it holds the full transcript.
		Input []Item
		// Tools describes the tool schemas exposed to the model.
		Tools []ToolDefinition
		// ToolChoice constrains tool use for this request.
		ToolChoice ToolChoice
		// PreviousResponseID chains this request to a prior response so the
		// provider reconstructs history server-side.
		PreviousResponseID string
		// MaxOutputTokens caps completion tokens. Zero means provider default.
		MaxOutputTokens int
		// Reasoning configures reasoning output. Nil uses provider defaults.
		Reasoning *ReasoningOptions
	}

	// Stream delivers incremental model output. Successive calls to Recv return
	// Event values until io.EOF. Implementations must be safe to call from a
	// single goroutine and release underlying resources on Close.
	Stream interface {
		// Recv returns the next event from the stream.
		Recv() (Event, error)
		// Close closes the stream.
		Close() error
	}

	// Transport opens event streams against a completion provider. The
	// conversation loop consumes an already-authenticated transport and never
	// deals with credentials or wire encoding itself.
	Transport interface {
		// CreateStream sends req to the provider and returns the resulting
		// event stream. Errors are transport-level failures; mid-stream provider
		// failures surface as error-typed events instead.
		CreateStream(ctx context.Context, req Request) (Stream, error)
	}
)

// Tool choice modes understood by transport adapters.
const (
	// ToolChoiceModeAuto lets the model decide whether to call tools.
	ToolChoiceModeAuto ToolChoiceMode = "auto"
	// ToolChoiceModeNone disables tool use for the request.
	ToolChoiceModeNone ToolChoiceMode = "none"
	// ToolChoiceModeRequired forces the model to call at least one tool.
	ToolChoiceModeRequired ToolChoiceMode = "required"
	// ToolChoiceModeTool forces the model to call the named tool.
	ToolChoiceModeTool ToolChoiceMode = "tool"
)

// Item type discriminators.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"
	ItemTypeReasoning          = "reasoning"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleDeveloper = "developer"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Event type constants for the declared stream taxonomy. Reduce recognizes all
// of these; kinds documented as inert are part of the taxonomy so that new
// provider event kinds, not this list, land in the unknown-type catch-all.
const (
	// EventResponseCreated announces the response and carries its identifier.
	EventResponseCreated = "response.created"
	// EventResponseInProgress is an inert lifecycle marker.
	EventResponseInProgress = "response.in_progress"
	// EventResponseQueued is an inert lifecycle marker.
	EventResponseQueued = "response.queued"
	// EventResponseCompleted terminates the response successfully and carries
	// the final usage snapshot.
	EventResponseCompleted = "response.completed"
	// EventResponseFailed terminates the response with a provider failure.
	EventResponseFailed = "response.failed"
	// EventResponseIncomplete terminates the response early (e.g. token limit).
	EventResponseIncomplete = "response.incomplete"

	// EventOutputItemAdded introduces a new output item. Function-call items
	// create pending tool calls.
	EventOutputItemAdded = "response.output_item.added"
	// EventOutputItemDone finalizes an output item; every finalized item is
	// collected for response chaining regardless of kind.
	EventOutputItemDone = "response.output_item.done"

	// EventContentPartAdded is an inert content-part boundary marker.
	EventContentPartAdded = "response.content_part.added"
	// EventContentPartDone is an inert content-part boundary marker.
	EventContentPartDone = "response.content_part.done"

	// EventOutputTextDelta appends assistant-visible text.
	EventOutputTextDelta = "response.output_text.delta"
	// EventOutputTextDone is inert: the text already arrived as deltas.
	EventOutputTextDone = "response.output_text.done"
	// EventOutputTextAnnotationAdded is an inert annotation marker.
	EventOutputTextAnnotationAdded = "response.output_text.annotation.added"

	// EventRefusalDelta appends refusal text, tagged so it is distinguishable
	// in the visible output.
	EventRefusalDelta = "response.refusal.delta"
	// EventRefusalDone marks the response as refused.
	EventRefusalDone = "response.refusal.done"

	// EventFunctionCallArgumentsDelta appends an argument fragment to the
	// pending call identified by the event item id.
	EventFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	// EventFunctionCallArgumentsDone replaces the accumulated fragments with
	// the authoritative final argument string.
	EventFunctionCallArgumentsDone = "response.function_call_arguments.done"

	// EventReasoningSummaryPartAdded is an inert reasoning boundary marker.
	EventReasoningSummaryPartAdded = "response.reasoning_summary_part.added"
	// EventReasoningSummaryPartDone is an inert reasoning boundary marker.
	EventReasoningSummaryPartDone = "response.reasoning_summary_part.done"
	// EventReasoningSummaryTextDelta appends visible reasoning text.
	EventReasoningSummaryTextDelta = "response.reasoning_summary_text.delta"
	// EventReasoningSummaryTextDone is inert: the summary arrived as deltas.
	EventReasoningSummaryTextDone = "response.reasoning_summary_text.done"
	// EventReasoningTextDelta is the internal (non-summary) reasoning channel.
	// It is recognized and deliberately dropped: the raw chain is too verbose
	// for end users and only the summary channel accumulates.
	EventReasoningTextDelta = "response.reasoning_text.delta"
	// EventReasoningTextDone is the internal reasoning completion marker, dropped.
	EventReasoningTextDone = "response.reasoning_text.done"

	// EventWebSearchInProgress is an inert built-in tool progress marker.
	EventWebSearchInProgress = "response.web_search_call.in_progress"
	// EventWebSearchSearching is an inert built-in tool progress marker.
	EventWebSearchSearching = "response.web_search_call.searching"
	// EventWebSearchCompleted is an inert built-in tool progress marker.
	EventWebSearchCompleted = "response.web_search_call.completed"
	// EventFileSearchInProgress is an inert built-in tool progress marker.
	EventFileSearchInProgress = "response.file_search_call.in_progress"
	// EventFileSearchCompleted is an inert built-in tool progress marker.
	EventFileSearchCompleted = "response.file_search_call.completed"

	// EventError is a generic provider error event.
	EventError = "error"
)
