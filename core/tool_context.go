package core

import (
	"context"
	"fmt"

	"github.com/gantryai/gantry/logging"
)

// ToolContext provides a constrained, auditable surface for capability
// implementations invoked by an agent. State writes accumulate in a local
// delta (mirrored into the RunContext for immediate visibility) and are
// attached to the originating function response event.
type ToolContext struct {
	runCtx    *RunContext
	callID    string
	agentName string
	delta     map[string]any

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext, the
// invoking agent and a unique function call id.
func NewToolContext(runCtx *RunContext, agentName, callID string) *ToolContext {
	return &ToolContext{
		runCtx:        runCtx,
		callID:        callID,
		agentName:     agentName,
		loggerAdapter: newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the capability invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// SessionKey returns the session key associated with the invocation.
func (tc *ToolContext) SessionKey() Key { return tc.runCtx.Key }

// TurnID returns the turn id associated with the invocation.
func (tc *ToolContext) TurnID() string { return tc.runCtx.TurnID }

// CallID returns the function call id correlating request and result.
func (tc *ToolContext) CallID() string { return tc.callID }

// AgentName returns the name of the invoking agent.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// Logger returns the logger bound to the invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// GetState retrieves the session state value for the given key.
func (tc *ToolContext) GetState(k string) (any, bool) {
	return tc.runCtx.GetState(k)
}

// SetState records a state mutation both on the run context (for immediate
// visibility) and in the local delta for event attachment.
func (tc *ToolContext) SetState(k string, v any) {
	tc.runCtx.SetState(k, v)
	if tc.delta == nil {
		tc.delta = map[string]any{}
	}
	tc.delta[k] = v
}

// StateDelta returns the state mutations accumulated during the invocation.
func (tc *ToolContext) StateDelta() map[string]any { return tc.delta }

// History returns the session's conversational history for context.
func (tc *ToolContext) History() []Event {
	if tc.runCtx.Session == nil {
		return nil
	}
	return tc.runCtx.Session.Conversation()
}

// ApplyActions merges the accumulated state delta into the provided event.
func (tc *ToolContext) ApplyActions(ev *Event) {
	if len(tc.delta) == 0 {
		return
	}
	if ev.Actions.StateDelta == nil {
		ev.Actions.StateDelta = map[string]any{}
	}
	for k, v := range tc.delta {
		ev.Actions.StateDelta[k] = v
	}
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.runCtx == nil || tc.runCtx.Key == (Key{}) || tc.callID == "" {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}
