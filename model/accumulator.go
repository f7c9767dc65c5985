package model

type (
	// State is the fold state built incrementally from stream events within and
	// across iterations of a conversation. Reduce threads State by value: each
	// reduction returns the updated state rather than mutating a shared pointer,
	// so callers can snapshot or compare states without aliasing hazards. As a
	// copy-on-write optimization, element updates inside ToolCalls reuse the
	// slice backing array; prior State values must not be relied on after a
	// later fold.
	//
	// Invariants:
	//   - FullText only grows.
	//   - IterationText, ToolCalls and OutputItems reset at every BeginIteration.
	//   - Usage is replaced wholesale, never summed: providers chaining by
	//     response id report cumulative totals and summing would double count.
	//   - ResponseID is retained across iterations until explicitly cleared for
	//     re-chaining (see ChainFrom).
	State struct {
		// FullText is all assistant-visible text emitted so far across the
		// whole conversation.
		FullText string
		// IterationText is the assistant text emitted during the current
		// iteration only. The loop uses it to decide whether an interstitial
		// assistant message precedes tool outputs in the transcript.
		IterationText string
		// Reasoning is the accumulated visible reasoning text, conversation-lifetime.
		Reasoning string
		// ToolCalls are the tool calls detected in the current iteration.
		ToolCalls []PendingToolCall
		// OutputItems are the finalized output items of the current iteration,
		// collected unconditionally so response chaining can reconstruct the
		// turn without replaying history.
		OutputItems []Item
		// ResponseID is the provider identifier of the latest response.
		ResponseID string
		// Usage is the latest usage snapshot reported by the provider.
		Usage Usage
		// FinishReason is the terminal condition reported by the last-processed
		// lifecycle event, empty while the stream is still in progress.
		FinishReason string

		// refusalTagged records that the refusal marker was already written so
		// streamed refusal fragments are tagged exactly once.
		refusalTagged bool
	}
)

// Finish reasons surfaced through State.FinishReason.
const (
	FinishCompleted  = "completed"
	FinishError      = "error"
	FinishRefused    = "refused"
	FinishIncomplete = "incomplete"
)

// refusalTag prefixes refusal text in the visible output so downstream
// consumers can distinguish it from regular assistant text.
const refusalTag = "[refusal] "

// NewState returns the initial accumulator state for a conversation.
func NewState() State {
	return State{}
}

// BeginIteration resets the per-iteration fields before a new stream is folded:
// iteration text, pending tool calls, output items, finish reason and the
// refusal tag marker. Conversation-lifetime fields (FullText, Reasoning,
// ResponseID, Usage) carry over.
func (s State) BeginIteration() State {
	s.IterationText = ""
	s.ToolCalls = nil
	s.OutputItems = nil
	s.FinishReason = ""
	s.refusalTagged = false
	return s
}

// ChainFrom clears the retained response identifier and returns it, so the
// caller can reference it as the previous response of the next request while
// the next stream's created event captures the new identifier.
func (s *State) ChainFrom() string {
	id := s.ResponseID
	s.ResponseID = ""
	return id
}

// Reduce folds one stream event into the accumulator and returns the updated
// state. It is total over the event taxonomy: recognized-but-inert kinds and
// unrecognized kinds both return the state unchanged, so new provider event
// kinds never crash the fold.
func Reduce(s State, ev Event) State {
	switch ev.Type {
	case EventOutputTextDelta:
		s.FullText += ev.Delta
		s.IterationText += ev.Delta

	case EventReasoningSummaryTextDelta:
		s.Reasoning += ev.Delta

	case EventReasoningTextDelta, EventReasoningTextDone:
		// Internal reasoning channel: deliberately dropped, only the summary
		// channel is user-visible.

	case EventOutputItemAdded:
		if ev.Item != nil && ev.Item.Type == ItemTypeFunctionCall {
			s.ToolCalls = append(s.ToolCalls, PendingToolCall{
				ID:        ev.Item.CallID,
				ItemID:    ev.Item.ID,
				Name:      ev.Item.Name,
				Arguments: ev.Item.Arguments,
			})
		}

	case EventFunctionCallArgumentsDelta:
		// Out-of-order or duplicate events must not crash the fold: an unknown
		// item id leaves the state unchanged.
		if i := s.findToolCall(ev.ItemID); i >= 0 {
			s.ToolCalls[i].Arguments += ev.Delta
		}

	case EventFunctionCallArgumentsDone:
		if i := s.findToolCall(ev.ItemID); i >= 0 {
			if ev.Name != "" {
				s.ToolCalls[i].Name = ev.Name
			}
			// The done payload is authoritative: replace the accumulated
			// fragments so any delta drift is corrected and replays are
			// idempotent.
			s.ToolCalls[i].Arguments = ev.Arguments
		}

	case EventOutputItemDone:
		if ev.Item != nil {
			s.OutputItems = append(s.OutputItems, *ev.Item)
			if ev.Item.Type == ItemTypeFunctionCall {
				s = s.finalizeToolCall(*ev.Item)
			}
		}

	case EventResponseCreated:
		if s.ResponseID == "" && ev.Response != nil {
			s.ResponseID = ev.Response.ID
		}

	case EventResponseCompleted:
		s.FinishReason = FinishCompleted
		if ev.Response != nil {
			if ev.Response.Usage != nil {
				s.Usage = *ev.Response.Usage
			}
			if s.ResponseID == "" {
				s.ResponseID = ev.Response.ID
			}
		}

	case EventResponseFailed, EventError:
		s.FinishReason = FinishError

	case EventResponseIncomplete:
		reason := FinishIncomplete
		if ev.Response != nil && ev.Response.IncompleteDetails != nil && ev.Response.IncompleteDetails.Reason != "" {
			reason = ev.Response.IncompleteDetails.Reason
		}
		s.FinishReason = reason

	case EventRefusalDelta:
		if !s.refusalTagged {
			s.FullText += refusalTag
			s.IterationText += refusalTag
			s.refusalTagged = true
		}
		s.FullText += ev.Delta
		s.IterationText += ev.Delta

	case EventRefusalDone:
		s.FinishReason = FinishRefused
		if !s.refusalTagged && ev.Refusal != "" {
			s.FullText += refusalTag + ev.Refusal
			s.IterationText += refusalTag + ev.Refusal
			s.refusalTagged = true
		}

	case EventResponseInProgress, EventResponseQueued,
		EventContentPartAdded, EventContentPartDone,
		EventOutputTextDone, EventOutputTextAnnotationAdded,
		EventReasoningSummaryPartAdded, EventReasoningSummaryPartDone,
		EventReasoningSummaryTextDone,
		EventWebSearchInProgress, EventWebSearchSearching, EventWebSearchCompleted,
		EventFileSearchInProgress, EventFileSearchCompleted:
		// Declared but inert: recognized so they never hit the unknown-type
		// arm, with no observable state change.

	default:
		// Unknown event kind: no-op for forward compatibility with provider
		// protocol additions.
	}
	return s
}

// findToolCall returns the index of the pending call with the given item id,
// or -1 when no call matches.
func (s State) findToolCall(itemID string) int {
	if itemID == "" {
		return -1
	}
	for i := range s.ToolCalls {
		if s.ToolCalls[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// finalizeToolCall backfills a pending call from its finalized item. Providers
// may omit the call id or name on the added event and only settle them on the
// done item; the done item's arguments are authoritative when present.
func (s State) finalizeToolCall(item Item) State {
	i := s.findToolCall(item.ID)
	if i < 0 {
		return s
	}
	if s.ToolCalls[i].ID == "" {
		s.ToolCalls[i].ID = item.CallID
	}
	if s.ToolCalls[i].Name == "" {
		s.ToolCalls[i].Name = item.Name
	}
	if item.Arguments != "" {
		s.ToolCalls[i].Arguments = item.Arguments
	}
	return s
}
