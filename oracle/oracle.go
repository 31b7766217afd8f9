// Package oracle defines the decision oracle contract: the opaque reasoning
// service the delegation router consults once per step. Implementations adapt
// LLM providers; tests substitute a Scripted oracle returning deterministic
// decision sequences.
package oracle

import (
	"context"
	"encoding/json"

	"github.com/gantryai/gantry/core"
)

// DelegateToolName is the synthetic function provider adapters expose to let
// models request a handoff to a named child agent. Its invocation never
// reaches the capability registry; adapters map it back to a Delegate
// decision.
const DelegateToolName = "delegate_to_agent"

// ToolDefinition declaratively exposes a callable capability to the oracle.
// Parameters is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ChildRef names a direct child agent the active node may delegate to.
type ChildRef struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Request captures everything the oracle may observe for one decision: the
// active node's resolved policy, its own tool set (no inheritance), its
// direct children, the conversation so far and the session state snapshot.
type Request struct {
	Agent    string           `json:"agent"`
	Policy   string           `json:"policy"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Children []ChildRef       `json:"children,omitempty"`
	History  []core.Event     `json:"history"`
	State    map[string]any   `json:"state,omitempty"`
}

// Decision is the closed set of outcomes an oracle consultation can produce.
// Consumers switch exhaustively over the concrete types.
type Decision interface{ isDecision() }

// Text is a terminal response for the active node.
type Text struct {
	Content string
}

func (Text) isDecision() {}

// ToolCall requests invocation of a named capability with JSON arguments.
// ID correlates the call with its response in history; adapters populate it
// from the provider, the router generates one when absent.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

func (ToolCall) isDecision() {}

// Delegate hands control to a direct child agent by name.
type Delegate struct {
	Target string
}

func (Delegate) isDecision() {}

// Info contains metadata about an oracle implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "scripted", ...
}

// Oracle is the minimal interface the router needs to drive decisions. It is
// treated as fallible and non-deterministic; transport errors surface as
// OracleUnavailable and terminate the turn.
type Oracle interface {
	Decide(ctx context.Context, req Request) (Decision, error)
	Info() Info
}
