package capability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryai/gantry/core"
)

func newTestToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	key := core.Key{App: "research", User: "u1", Session: "s1"}
	sess := core.NewSession(key, nil)
	rc := core.NewRunContext(context.Background(), key, "t1", "hi", 10, nil, nil, sess, nil, nil)
	return core.NewToolContext(rc, "database_manager", "call-1")
}

func echoParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":  map[string]any{"type": "string"},
			"times": map[string]any{"type": "integer", "default": float64(1)},
		},
		"required": []string{"text"},
	}
}

func TestFunction_Success(t *testing.T) {
	called := false
	fn := NewFunction("echo", "Echo text", echoParams(), func(_ *core.ToolContext, args map[string]any) (any, error) {
		called = true
		assert.Equal(t, float64(1), args["times"], "defaults applied before handler")
		return args["text"], nil
	})

	result, err := fn.Call(newTestToolContext(t), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "hi", result)
	assert.Equal(t, ReadOnly, fn.Class())
}

func TestFunction_ValidationBlocksHandler(t *testing.T) {
	called := false
	fn := NewFunction("echo", "Echo text", echoParams(), func(_ *core.ToolContext, _ map[string]any) (any, error) {
		called = true
		return nil, nil
	})

	_, err := fn.Call(newTestToolContext(t), map[string]any{"times": 2})
	require.Error(t, err)
	assert.False(t, called, "handler must not run on invalid arguments")

	var capErr *Error
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, core.CodeInvalidToolArguments, capErr.Kind)
}

func TestFunction_ClassifiedErrorPassthrough(t *testing.T) {
	fn := NewFunction("lookup", "Lookup", nil, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, NewNotFound("lookup", "no such record")
	})

	_, err := fn.Call(newTestToolContext(t), nil)
	var capErr *Error
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, core.CodeCapabilityNotFound, capErr.Kind)
}

func TestFunction_UnclassifiedErrorWrapped(t *testing.T) {
	fn := NewFunction("boom", "Boom", nil, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, fmt.Errorf("disk on fire")
	})

	_, err := fn.Call(newTestToolContext(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability boom")
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	fn := NewFunction("echo", "Echo", nil, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, reg.Register(fn))

	got, err := reg.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got.Name())

	_, err = reg.Get("nope")
	var capErr *Error
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, core.CodeCapabilityNotFound, capErr.Kind)
}

func TestRegistry_DuplicateIsConflict(t *testing.T) {
	reg := NewRegistry()
	fn := NewFunction("echo", "Echo", nil, nil)
	require.NoError(t, reg.Register(fn))

	err := reg.Register(fn)
	var capErr *Error
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, core.CodeCapabilityConflict, capErr.Kind)
}

func TestRegistry_ReservedDelegateName(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(NewFunction("delegate_to_agent", "nope", nil, nil))
	assert.Error(t, err)
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(
		NewFunction("a", "first", nil, nil),
		NewFunction("b", "second", echoParams(), nil),
	))

	defs, err := reg.Definitions([]string{"b", "a"})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Name)
	assert.Equal(t, "second", defs[0].Description)
	assert.NotNil(t, defs[0].Parameters)

	_, err = reg.Definitions([]string{"missing"})
	assert.Error(t, err)
}

func TestRegistry_Invoke(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewFunction("echo", "Echo", echoParams(),
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["text"], nil
		})))

	result, capErr := reg.Invoke(newTestToolContext(t), "echo", map[string]any{"text": "hi"})
	require.Nil(t, capErr)
	assert.Equal(t, "hi", result)

	_, capErr = reg.Invoke(newTestToolContext(t), "missing", nil)
	require.NotNil(t, capErr)
	assert.Equal(t, core.CodeCapabilityNotFound, capErr.Kind)

	_, capErr = reg.Invoke(newTestToolContext(t), "echo", map[string]any{})
	require.NotNil(t, capErr)
	assert.Equal(t, core.CodeInvalidToolArguments, capErr.Kind)
}
