package capability

import (
	"errors"
	"fmt"

	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/internal/schema"
)

// HandlerFunc is the signature capability handlers implement. Arguments have
// already been validated against the declared schema and defaults applied.
type HandlerFunc func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// Function adapts a plain Go function into a Capability with a declared JSON
// schema. Validation happens in Call, before the handler runs, so handlers
// can rely on required fields being present with the declared types.
type Function struct {
	name        string
	description string
	parameters  map[string]any
	class       Class
	handler     HandlerFunc
}

// FunctionOption customizes a Function.
type FunctionOption func(*Function)

// WithClass marks the capability as read-only or mutating.
func WithClass(c Class) FunctionOption {
	return func(f *Function) { f.class = c }
}

// NewFunction wraps handler as a schema-validated capability.
func NewFunction(name, description string, parameters map[string]any, handler HandlerFunc, optFns ...FunctionOption) *Function {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	f := &Function{
		name:        name,
		description: description,
		parameters:  parameters,
		class:       ReadOnly,
		handler:     handler,
	}
	for _, fn := range optFns {
		fn(f)
	}
	return f
}

// Name implements Capability.
func (f *Function) Name() string { return f.name }

// Description implements Capability.
func (f *Function) Description() string { return f.description }

// Parameters implements Capability.
func (f *Function) Parameters() map[string]any { return f.parameters }

// Class implements Capability.
func (f *Function) Class() Class { return f.class }

// Call validates args against the declared schema, applies defaults and
// invokes the handler. Validation failures return an Invalid-class error
// without running the handler.
func (f *Function) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(args, f.parameters); err != nil {
		return nil, &Error{
			Capability: f.name,
			Kind:       core.CodeInvalidToolArguments,
			Message:    err.Error(),
		}
	}
	schema.ApplyDefaults(args, f.parameters)

	result, err := f.handler(toolCtx, args)
	if err != nil {
		var capErr *Error
		if errors.As(err, &capErr) {
			return nil, capErr
		}
		return nil, fmt.Errorf("capability %s: %w", f.name, err)
	}
	return result, nil
}
