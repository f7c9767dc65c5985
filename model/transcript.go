package model

// Transcript constructors. Transcript items reuse the Item wire shape; these
// helpers build the handful of kinds the conversation loop appends between
// iterations. The loop owns the transcript exclusively; Reduce never touches it.

// NewSystemMessage returns a system-role transcript message.
func NewSystemMessage(text string) Item {
	return Item{Type: ItemTypeMessage, Role: RoleSystem, Content: text}
}

// NewUserMessage returns a user-role transcript message.
func NewUserMessage(text string) Item {
	return Item{Type: ItemTypeMessage, Role: RoleUser, Content: text}
}

// NewAssistantMessage returns an assistant-role transcript message. The loop
// appends one for any interstitial text produced before tool calls so replayed
// history preserves the assistant's narration.
func NewAssistantMessage(text string) Item {
	return Item{Type: ItemTypeMessage, Role: RoleAssistant, Content: text}
}

// NewFunctionCall returns a function-call transcript record. callID must be the
// provider call-correlation id so the matching output can reference it.
func NewFunctionCall(callID, name, arguments string) Item {
	if arguments == "" {
		arguments = "{}"
	}
	return Item{Type: ItemTypeFunctionCall, CallID: callID, Name: name, Arguments: arguments}
}

// NewFunctionCallOutput returns a function-call-output transcript record
// linking a call id to its string result payload.
func NewFunctionCallOutput(callID, output string) Item {
	return Item{Type: ItemTypeFunctionCallOutput, CallID: callID, Output: output}
}
