package agent

import (
	"github.com/gantryai/gantry/internal/prompt"
)

// Policy produces the system instruction for a node. Static policies are
// templates rendered against the session state snapshot; dynamic policies
// compute the text per consultation.
type Policy interface {
	Resolve(state map[string]any) (string, error)
}

// StaticPolicy is a text/template policy rendered against session state.
// Plain strings without template actions pass through unchanged.
type StaticPolicy string

// Resolve implements Policy.
func (p StaticPolicy) Resolve(state map[string]any) (string, error) {
	return prompt.Render(string(p), state)
}

// PolicyFunc adapts a function into a Policy.
type PolicyFunc func(state map[string]any) (string, error)

// Resolve implements Policy.
func (f PolicyFunc) Resolve(state map[string]any) (string, error) {
	return f(state)
}
