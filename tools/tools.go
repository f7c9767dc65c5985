// Package tools defines the capability registry consumed by the conversation
// loop. A registry maps tool identifiers to handler functions together with the
// metadata the model needs to decide when to invoke them (description, JSON
// input schema) and the metadata the loop needs to decide what an invocation
// means for the conversation (the Terminal flag).
//
// A Registry is populated once at setup time and is read-only afterwards, so a
// single instance may be shared by any number of concurrent conversations as
// long as the individual handlers are themselves reentrant.
package tools

import (
	"context"
	"errors"
	"fmt"
)

type (
	// Ident is the strong type for tool identifiers. Use this type in maps and
	// APIs to avoid mixing tool names with free-form strings and to document
	// intent at call sites.
	Ident string

	// Handler executes a tool invocation. The arguments map holds the JSON
	// object decoded from the model-produced argument payload; it is empty
	// (never nil) when the payload was absent or malformed. The returned value
	// is JSON-serialized and fed back to the model. Errors are converted into
	// structured error results by the loop and never abort the conversation.
	Handler func(ctx context.Context, args map[string]any) (any, error)

	// Definition describes a single registered tool.
	Definition struct {
		// Name is the identifier presented to the model.
		Name Ident

		// Description documents the tool for prompting purposes. The model uses
		// this to understand when and how to invoke the tool.
		Description string

		// InputSchema is the JSON Schema describing the tool's input parameters,
		// typically a map[string]any with "type": "object" and "properties".
		InputSchema any

		// Handler is invoked when the model requests this tool.
		Handler Handler

		// Terminal marks a tool whose invocation ends the conversation. The loop
		// does not feed a terminal tool's result back to the model; it finishes
		// the run once the call completes. Data tools leave this false.
		Terminal bool
	}

	// Registry holds the tools available to a conversation, keyed by name.
	// Registration order is preserved so tool definitions are presented to the
	// model deterministically.
	Registry struct {
		defs  map[Ident]*Definition
		order []Ident
	}
)

// NewRegistry returns an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Ident]*Definition)}
}

// Register adds a tool definition to the registry. It returns an error when the
// definition has no name or handler, or when the name is already registered.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return errors.New("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q: handler is required", def.Name)
	}
	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("tool %q: already registered", def.Name)
	}
	d := def
	r.defs[def.Name] = &d
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name Ident) (*Definition, bool) {
	if r == nil {
		return nil, false
	}
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns all registered definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	if r == nil {
		return nil
	}
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// String returns the string representation of the identifier.
func (id Ident) String() string {
	return string(id)
}
