package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, args map[string]any) (any, error) {
	return args, nil
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Definition{
		Name:        "search",
		Description: "Searches the knowledge base.",
		InputSchema: map[string]any{"type": "object"},
		Handler:     echoHandler,
	}))

	def, ok := reg.Lookup("search")
	require.True(t, ok)
	require.Equal(t, Ident("search"), def.Name)
	require.False(t, def.Terminal)

	_, ok = reg.Lookup("missing")
	require.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()
	require.Error(t, reg.Register(Definition{Handler: echoHandler}))
	require.Error(t, reg.Register(Definition{Name: "search"}))
	require.NoError(t, reg.Register(Definition{Name: "search", Handler: echoHandler}))
	require.Error(t, reg.Register(Definition{Name: "search", Handler: echoHandler}))
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []Ident{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(Definition{Name: name, Handler: echoHandler}))
	}
	defs := reg.Definitions()
	require.Len(t, defs, 3)
	require.Equal(t, Ident("zeta"), defs[0].Name)
	require.Equal(t, Ident("alpha"), defs[1].Name)
	require.Equal(t, Ident("mid"), defs[2].Name)
	require.Equal(t, 3, reg.Len())
}

func TestNilRegistryIsEmpty(t *testing.T) {
	var reg *Registry
	require.Equal(t, 0, reg.Len())
	require.Empty(t, reg.Definitions())
	_, ok := reg.Lookup("search")
	require.False(t, ok)
}
