package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func reduceAll(s State, evs ...Event) State {
	for _, ev := range evs {
		s = Reduce(s, ev)
	}
	return s
}

func TestReduceTextDeltasConcatenate(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventOutputTextDelta, Delta: "Hel"},
		Event{Type: EventOutputTextDelta, Delta: "lo "},
		Event{Type: EventOutputTextDelta, Delta: "world"},
	)
	require.Equal(t, "Hello world", s.FullText)
	require.Equal(t, "Hello world", s.IterationText)
}

func TestReduceFullTextSurvivesIterationReset(t *testing.T) {
	s := reduceAll(NewState(), Event{Type: EventOutputTextDelta, Delta: "first"})
	s = s.BeginIteration()
	s = Reduce(s, Event{Type: EventOutputTextDelta, Delta: " second"})
	require.Equal(t, "first second", s.FullText)
	require.Equal(t, " second", s.IterationText)
}

func TestReduceToolCallAssembly(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventOutputItemAdded, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1", CallID: "call_1", Name: "search"}},
		Event{Type: EventFunctionCallArgumentsDelta, ItemID: "item_1", Delta: `{"q":`},
		Event{Type: EventFunctionCallArgumentsDelta, ItemID: "item_1", Delta: `"x"}`},
	)
	require.Len(t, s.ToolCalls, 1)
	require.Equal(t, "call_1", s.ToolCalls[0].ID)
	require.Equal(t, "search", s.ToolCalls[0].Name)
	require.Equal(t, `{"q":"x"}`, s.ToolCalls[0].Arguments)
}

func TestReduceArgumentsDoneIsAuthoritative(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventOutputItemAdded, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1", CallID: "call_1"}},
		Event{Type: EventFunctionCallArgumentsDelta, ItemID: "item_1", Delta: `{"q":"dri`},
		Event{Type: EventFunctionCallArgumentsDone, ItemID: "item_1", Name: "search", Arguments: `{"q":"drift"}`},
	)
	require.Equal(t, `{"q":"drift"}`, s.ToolCalls[0].Arguments)
	require.Equal(t, "search", s.ToolCalls[0].Name)

	// Replaying the done event leaves the state unchanged.
	replayed := Reduce(s, Event{Type: EventFunctionCallArgumentsDone, ItemID: "item_1", Arguments: `{"q":"drift"}`})
	require.Equal(t, s.ToolCalls, replayed.ToolCalls)
}

func TestReduceUnknownItemIDIsNoOp(t *testing.T) {
	before := reduceAll(NewState(),
		Event{Type: EventOutputItemAdded, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1", CallID: "call_1", Name: "search"}},
	)
	after := reduceAll(before,
		Event{Type: EventFunctionCallArgumentsDelta, ItemID: "item_unknown", Delta: `{"a":1}`},
		Event{Type: EventFunctionCallArgumentsDone, ItemID: "item_unknown", Arguments: `{"a":1}`},
	)
	require.Equal(t, before.ToolCalls, after.ToolCalls)
}

func TestReduceItemDoneBackfillsCall(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventOutputItemAdded, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1"}},
		Event{Type: EventFunctionCallArgumentsDelta, ItemID: "item_1", Delta: `{}`},
		Event{Type: EventOutputItemDone, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1", CallID: "call_9", Name: "lookup", Arguments: `{"id":7}`}},
	)
	require.Len(t, s.ToolCalls, 1)
	require.Equal(t, "call_9", s.ToolCalls[0].ID)
	require.Equal(t, "lookup", s.ToolCalls[0].Name)
	require.Equal(t, `{"id":7}`, s.ToolCalls[0].Arguments)
}

func TestReduceCollectsOutputItems(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventOutputItemDone, Item: &Item{Type: ItemTypeReasoning, ID: "rs_1"}},
		Event{Type: EventOutputItemDone, Item: &Item{Type: ItemTypeMessage, ID: "msg_1", Role: RoleAssistant}},
	)
	require.Len(t, s.OutputItems, 2)
	require.Equal(t, ItemTypeReasoning, s.OutputItems[0].Type)
	require.Equal(t, ItemTypeMessage, s.OutputItems[1].Type)
}

func TestReduceUsageReplacedNotSummed(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventResponseCompleted, Response: &ResponseInfo{ID: "resp_1", Usage: &Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}},
	)
	s = s.BeginIteration()
	s = Reduce(s, Event{Type: EventResponseCompleted, Response: &ResponseInfo{ID: "resp_2", Usage: &Usage{InputTokens: 20, OutputTokens: 8, TotalTokens: 28}}})
	require.Equal(t, Usage{InputTokens: 20, OutputTokens: 8, TotalTokens: 28}, s.Usage)
}

func TestReduceResponseIDCapturedOnce(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventResponseCreated, Response: &ResponseInfo{ID: "resp_1"}},
		Event{Type: EventResponseCreated, Response: &ResponseInfo{ID: "resp_2"}},
	)
	require.Equal(t, "resp_1", s.ResponseID)

	// ChainFrom hands the id over and clears it so the next created event wins.
	require.Equal(t, "resp_1", s.ChainFrom())
	require.Empty(t, s.ResponseID)
	s = Reduce(s, Event{Type: EventResponseCreated, Response: &ResponseInfo{ID: "resp_3"}})
	require.Equal(t, "resp_3", s.ResponseID)
}

func TestReduceFinishReasons(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		want string
	}{
		{"completed", Event{Type: EventResponseCompleted, Response: &ResponseInfo{ID: "r"}}, FinishCompleted},
		{"failed", Event{Type: EventResponseFailed}, FinishError},
		{"generic error", Event{Type: EventError}, FinishError},
		{"incomplete with reason", Event{Type: EventResponseIncomplete, Response: &ResponseInfo{IncompleteDetails: &IncompleteDetails{Reason: "max_output_tokens"}}}, "max_output_tokens"},
		{"incomplete without reason", Event{Type: EventResponseIncomplete}, FinishIncomplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Reduce(NewState(), tc.ev)
			require.Equal(t, tc.want, s.FinishReason)
		})
	}
}

func TestReduceRefusalTaggedOnce(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventRefusalDelta, Delta: "I cannot "},
		Event{Type: EventRefusalDelta, Delta: "help with that."},
		Event{Type: EventRefusalDone},
	)
	require.Equal(t, "[refusal] I cannot help with that.", s.FullText)
	require.Equal(t, FinishRefused, s.FinishReason)
}

func TestReduceRefusalDoneWithoutDeltas(t *testing.T) {
	s := Reduce(NewState(), Event{Type: EventRefusalDone, Refusal: "No."})
	require.Equal(t, "[refusal] No.", s.FullText)
	require.Equal(t, FinishRefused, s.FinishReason)
}

func TestReduceReasoningChannels(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventReasoningSummaryTextDelta, Delta: "Considering "},
		Event{Type: EventReasoningSummaryTextDelta, Delta: "options."},
		Event{Type: EventReasoningTextDelta, Delta: "raw internal chain"},
	)
	require.Equal(t, "Considering options.", s.Reasoning)
	require.Empty(t, s.FullText)
}

func TestReduceInertAndUnknownEventsAreNoOps(t *testing.T) {
	base := reduceAll(NewState(), Event{Type: EventOutputTextDelta, Delta: "hi"})
	evs := []Event{
		{Type: EventResponseInProgress},
		{Type: EventContentPartAdded},
		{Type: EventOutputTextDone, Text: "hi"},
		{Type: EventWebSearchSearching},
		{Type: "response.some_future_event", Delta: "x"},
	}
	for _, ev := range evs {
		require.Equal(t, base, Reduce(base, ev), "event %s", ev.Type)
	}
}

func TestBeginIterationResetsPerIterationFields(t *testing.T) {
	s := reduceAll(NewState(),
		Event{Type: EventOutputTextDelta, Delta: "text"},
		Event{Type: EventReasoningSummaryTextDelta, Delta: "why"},
		Event{Type: EventOutputItemAdded, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1", CallID: "c1", Name: "search"}},
		Event{Type: EventOutputItemDone, Item: &Item{Type: ItemTypeFunctionCall, ID: "item_1", CallID: "c1", Name: "search"}},
		Event{Type: EventResponseCreated, Response: &ResponseInfo{ID: "resp_1"}},
		Event{Type: EventResponseCompleted, Response: &ResponseInfo{ID: "resp_1", Usage: &Usage{TotalTokens: 3}}},
	)
	s = s.BeginIteration()
	require.Empty(t, s.IterationText)
	require.Empty(t, s.ToolCalls)
	require.Empty(t, s.OutputItems)
	require.Empty(t, s.FinishReason)
	require.Equal(t, "text", s.FullText)
	require.Equal(t, "why", s.Reasoning)
	require.Equal(t, "resp_1", s.ResponseID)
	require.Equal(t, Usage{TotalTokens: 3}, s.Usage)
}
