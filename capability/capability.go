// Package capability implements the typed operation subsystem that lets
// agents invoke structured capabilities (record CRUD, searches, side effects)
// with schema-validated arguments and consistent error classification.
package capability

import (
	"fmt"

	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/internal/schema"
)

// Class partitions capabilities by side effect, so policy text can require
// confirmation before mutating operations. The engine itself never blocks on
// it; enforcement is a policy concern.
type Class int

const (
	// ReadOnly capabilities have no observable side effects.
	ReadOnly Class = iota
	// Mutating capabilities create, update or delete records.
	Mutating
)

// String returns the class label.
func (c Class) String() string {
	if c == Mutating {
		return "mutating"
	}
	return "read-only"
}

// Capability defines a typed, externally implemented operation an agent may
// invoke. Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a proper JSON schema for parameters
//   - Classify failures via *Error so policy text can react
//   - Be safe for concurrent use
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description is provided to the oracle to explain when to invoke it.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Class reports whether the capability mutates external state.
	Class() Class

	// Call executes the capability with validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError re-exports the schema validation error type.
type ValidationError = schema.ValidationError

// Error classifies a capability failure. Kind distinguishes NotFound (unknown
// record), Conflict (duplicate id), Transient (store unavailable) and Invalid
// (argument rejection) so the oracle can ask, report or suggest a retry.
type Error struct {
	Capability string    `json:"capability"`
	Kind       core.Code `json:"kind"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("capability %s [%s]: %s", e.Capability, e.Kind, e.Message)
}

// NewNotFound constructs a NotFound-class capability error.
func NewNotFound(capability, format string, args ...any) *Error {
	return &Error{Capability: capability, Kind: core.CodeCapabilityNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflict constructs a Conflict-class capability error.
func NewConflict(capability, format string, args ...any) *Error {
	return &Error{Capability: capability, Kind: core.CodeCapabilityConflict, Message: fmt.Sprintf(format, args...)}
}

// NewTransient constructs a Transient-class capability error.
func NewTransient(capability, format string, args ...any) *Error {
	return &Error{Capability: capability, Kind: core.CodeCapabilityTransient, Message: fmt.Sprintf(format, args...)}
}

// NewInvalid constructs an InvalidToolArguments-class capability error.
func NewInvalid(capability, format string, args ...any) *Error {
	return &Error{Capability: capability, Kind: core.CodeInvalidToolArguments, Message: fmt.Sprintf(format, args...)}
}
