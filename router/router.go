// Package router implements the delegation router: the per-turn control loop
// that consults the decision oracle for the active agent, invokes capabilities,
// maintains the delegation frame stack and enforces the call/return
// discipline. Exactly one router loop owns a turn at a time.
package router

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gantryai/gantry/agent"
	"github.com/gantryai/gantry/capability"
	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/oracle"
)

// Router drives turns over a fixed agent hierarchy. The hierarchy, registry
// and oracle are bound at construction and shared by all sessions; per-turn
// state lives entirely in the RunContext and the local frame stack.
type Router struct {
	root     *agent.Node
	registry *capability.Registry
	oracle   oracle.Oracle
}

// New validates the hierarchy against the registry and constructs a Router.
// Every capability a node references must be registered.
func New(root *agent.Node, registry *capability.Registry, o oracle.Oracle) (*Router, error) {
	if root == nil {
		return nil, fmt.Errorf("router: root agent is required")
	}
	if registry == nil {
		registry = capability.NewRegistry()
	}
	if o == nil {
		return nil, fmt.Errorf("router: oracle is required")
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	var nodeErr error
	root.Walk(func(n *agent.Node) {
		for _, tool := range n.Tools {
			if _, err := registry.Get(tool); err != nil && nodeErr == nil {
				nodeErr = fmt.Errorf("router: agent %q references unregistered capability %q", n.Name, tool)
			}
		}
	})
	if nodeErr != nil {
		return nil, nodeErr
	}
	return &Router{root: root, registry: registry, oracle: o}, nil
}

// Root returns the hierarchy root.
func (r *Router) Root() *agent.Node { return r.root }

// Run executes one turn: starting at the root agent it consults the oracle,
// executes capability calls, pushes delegation frames and pops them as agents
// produce terminal text. It returns nil once the last frame pops (the turn's
// terminal response has been emitted) or a fatal *core.TurnError.
func (r *Router) Run(rc *core.RunContext) error {
	stack := []*agent.Node{r.root}

	for len(stack) > 0 {
		if err := rc.Limiter.Take(); err != nil {
			return err
		}

		active := stack[len(stack)-1]
		req, err := r.buildRequest(rc, active)
		if err != nil {
			return err
		}

		rc.LogDebug("consulting oracle", "agent", active.Name, "step", rc.Limiter.Count())
		decision, err := r.oracle.Decide(rc.Context, req)
		if err != nil {
			return core.NewTurnError(core.CodeOracleUnavailable, "oracle failed for agent %s: %v", active.Name, err)
		}

		switch d := decision.(type) {
		case oracle.Text:
			if err := r.finishActivation(rc, active, d.Content); err != nil {
				return err
			}
			stack = stack[:len(stack)-1]

		case oracle.ToolCall:
			if err := r.invokeCapability(rc, active, d); err != nil {
				return err
			}

		case oracle.Delegate:
			target, err := r.delegate(rc, active, d.Target)
			if err != nil {
				return err
			}
			if target != nil {
				stack = append(stack, target)
			}

		default:
			return core.NewTurnError(core.CodeOracleUnavailable, "oracle returned unknown decision type %T", decision)
		}
	}
	return nil
}

// buildRequest assembles the oracle request for the active node: its resolved
// policy, its own capability definitions (children do not inherit them), its
// direct children and the session history plus staged state.
func (r *Router) buildRequest(rc *core.RunContext, active *agent.Node) (oracle.Request, error) {
	state := rc.StateView()
	policy, err := active.Policy.Resolve(state)
	if err != nil {
		return oracle.Request{}, fmt.Errorf("resolve policy for agent %s: %w", active.Name, err)
	}
	defs, err := r.registry.Definitions(active.Tools)
	if err != nil {
		return oracle.Request{}, fmt.Errorf("agent %s: %w", active.Name, err)
	}
	children := make([]oracle.ChildRef, len(active.Children))
	for i, c := range active.Children {
		children[i] = oracle.ChildRef{Name: c.Name, Description: c.Description}
	}
	return oracle.Request{
		Agent:    active.Name,
		Policy:   policy,
		Tools:    defs,
		Children: children,
		History:  rc.History(),
		State:    state,
	}, nil
}

// finishActivation emits the node's terminal text, applying its OutputKey
// state write with the same event. For a non-root node the emitted message
// doubles as the parent's observation once the frame pops.
func (r *Router) finishActivation(rc *core.RunContext, active *agent.Node, text string) error {
	if active.OutputKey != "" && text != "" {
		rc.SetState(active.OutputKey, text)
	}
	ev := core.NewAgentMessageEvent(rc.TurnID, active.Name, text)
	return r.emitAndSync(rc, ev)
}

// invokeCapability runs one capability call for the active node. Argument
// decoding failures, unknown names and classified capability failures all
// become error-marked function responses in history (observations for the
// next consultation); the active node is re-resolved, never popped.
func (r *Router) invokeCapability(rc *core.RunContext, active *agent.Node, call oracle.ToolCall) error {
	callID := call.ID
	if callID == "" {
		callID = core.NewID()
	}
	rawArgs := "{}"
	if len(call.Arguments) > 0 {
		rawArgs = string(call.Arguments)
	}
	if err := r.emitAndSync(rc, core.NewFunctionCallEvent(rc.TurnID, active.Name, callID, call.Name, rawArgs)); err != nil {
		return err
	}

	args := map[string]any{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			invalid := capability.NewInvalid(call.Name, "arguments are not a JSON object: %v", err)
			return r.emitCapabilityError(rc, active, callID, call.Name, invalid)
		}
	}
	if !hasTool(active, call.Name) {
		notFound := capability.NewNotFound(call.Name, "capability not available to agent %s", active.Name)
		return r.emitCapabilityError(rc, active, callID, call.Name, notFound)
	}

	if err := rc.Limiter.Take(); err != nil {
		return err
	}

	toolCtx := core.NewToolContext(rc, active.Name, callID)
	result, capErr := r.registry.Invoke(toolCtx, call.Name, args)
	if capErr != nil {
		rc.LogWarn("capability failed",
			"agent", active.Name, "capability", call.Name, "kind", string(capErr.Kind))
		return r.emitCapabilityError(rc, active, callID, call.Name, capErr)
	}
	return r.emitAndSync(rc, core.NewFunctionResponseEvent(rc.TurnID, active.Name, callID, call.Name, result, nil))
}

// delegate validates and records a handoff. An unknown or non-child target is
// recorded as an error response (a recoverable observation) and returns a nil
// target so the active node is re-resolved.
func (r *Router) delegate(rc *core.RunContext, active *agent.Node, targetName string) (*agent.Node, error) {
	callID := core.NewID()
	args, _ := json.Marshal(map[string]string{"agent": targetName})
	if err := r.emitAndSync(rc, core.NewFunctionCallEvent(rc.TurnID, active.Name, callID, oracle.DelegateToolName, string(args))); err != nil {
		return nil, err
	}

	target := active.Child(targetName)
	if target == nil {
		turnErr := core.NewTurnError(core.CodeUnknownDelegationTarget,
			"agent %s is not a delegation target of %s", targetName, active.Name)
		ev := core.NewFunctionResponseEvent(rc.TurnID, active.Name, callID, oracle.DelegateToolName, nil, turnErr)
		code := string(turnErr.Code)
		msg := turnErr.Message
		ev.ErrorCode = &code
		ev.ErrorMessage = &msg
		if err := r.emitAndSync(rc, ev); err != nil {
			return nil, err
		}
		return nil, nil
	}

	rc.LogInfo("delegating", "from", active.Name, "to", target.Name)
	result := map[string]any{"status": "ok", "agent": target.Name}
	if err := r.emitAndSync(rc, core.NewFunctionResponseEvent(rc.TurnID, active.Name, callID, oracle.DelegateToolName, result, nil)); err != nil {
		return nil, err
	}
	return target, nil
}

// emitCapabilityError records a classified capability failure as an
// error-marked function response.
func (r *Router) emitCapabilityError(rc *core.RunContext, active *agent.Node, callID, name string, capErr *capability.Error) error {
	ev := core.NewFunctionResponseEvent(rc.TurnID, active.Name, callID, name, nil, capErr)
	code := string(capErr.Kind)
	ev.ErrorCode = &code
	ev.ErrorMessage = &capErr.Message
	return r.emitAndSync(rc, ev)
}

// emitAndSync emits an event, waits for the executor to persist it and
// refreshes the session snapshot so the next consultation observes it.
func (r *Router) emitAndSync(rc *core.RunContext, ev core.Event) error {
	if err := rc.EmitEvent(ev); err != nil {
		return err
	}
	if err := rc.WaitForResume(); err != nil {
		return err
	}
	return rc.RefreshSession()
}

func hasTool(n *agent.Node, name string) bool {
	for _, t := range n.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// IsFatal reports whether err should terminate the turn with an error event
// rather than be folded into history as an observation.
func IsFatal(err error) bool {
	var turnErr *core.TurnError
	if errors.As(err, &turnErr) {
		return turnErr.Fatal()
	}
	return err != nil
}
