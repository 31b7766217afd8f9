package capability

import (
	"errors"
	"sort"
	"sync"

	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/oracle"
)

// Registry maps capability names to implementations. Agents reference
// capabilities by name; the router resolves and invokes them through here.
// Registration happens at assembly time, lookups are concurrent.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: map[string]Capability{}}
}

// Register adds capabilities to the registry. Registering a name twice
// returns a Conflict-class error and leaves the earlier entry in place.
func (r *Registry) Register(caps ...Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range caps {
		if c.Name() == oracle.DelegateToolName {
			return NewConflict(c.Name(), "name is reserved for delegation")
		}
		if _, exists := r.capabilities[c.Name()]; exists {
			return NewConflict(c.Name(), "capability already registered")
		}
		r.capabilities[c.Name()] = c
	}
	return nil
}

// MustRegister registers capabilities and panics on conflict. Intended for
// assembly-time wiring where a duplicate name is a programming error.
func (r *Registry) MustRegister(caps ...Capability) *Registry {
	if err := r.Register(caps...); err != nil {
		panic(err)
	}
	return r
}

// Get returns the named capability, or a NotFound-class error.
func (r *Registry) Get(name string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[name]
	if !ok {
		return nil, NewNotFound(name, "unknown capability")
	}
	return c, nil
}

// Names returns all registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns oracle tool definitions for the named capabilities, in
// the given order. Unknown names return a NotFound-class error.
func (r *Registry) Definitions(names []string) ([]oracle.ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]oracle.ToolDefinition, 0, len(names))
	for _, name := range names {
		c, ok := r.capabilities[name]
		if !ok {
			return nil, NewNotFound(name, "unknown capability")
		}
		defs = append(defs, oracle.ToolDefinition{
			Name:        c.Name(),
			Description: c.Description(),
			Parameters:  c.Parameters(),
		})
	}
	return defs, nil
}

// Invoke resolves and calls a capability in one step. It never retries; the
// caller decides whether a failure becomes an observation or terminates the
// turn. The returned *Error (when present) carries the failure class.
func (r *Registry) Invoke(toolCtx *core.ToolContext, name string, args map[string]any) (any, *Error) {
	c, err := r.Get(name)
	if err != nil {
		var capErr *Error
		errors.As(err, &capErr)
		return nil, capErr
	}
	result, err := c.Call(toolCtx, args)
	if err != nil {
		var capErr *Error
		if errors.As(err, &capErr) {
			return nil, capErr
		}
		return nil, &Error{Capability: name, Kind: core.CodeCapabilityTransient, Message: err.Error()}
	}
	return result, nil
}
