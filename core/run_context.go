package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/gantryai/gantry/logging"
)

// RunContext carries the mutable, per-turn execution scope passed through the
// delegation router. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (session Key, TurnID)
//   - Input user Content
//   - The emit / resume channels coordinating with the turn executor
//   - The backing SessionStore and a working Session snapshot
//   - A pending StateDelta buffer and the per-turn StepLimiter
//
// State mutations performed via SetState accumulate in StateDelta until an
// emitted event carries them or CommitStateDelta applies them. The frame and
// buffers are exclusively owned by one turn; no concurrent task may mutate
// them.
type RunContext struct {
	Context    context.Context
	Key        Key
	TurnID     string
	UserText   string
	Emit       chan<- Event
	Resume     <-chan struct{}
	Sessions   SessionStore
	Limiter    *StepLimiter
	Session    *Session
	StateDelta map[string]any

	*loggerAdapter
}

// NewRunContext constructs a RunContext with an empty state delta.
func NewRunContext(
	ctx context.Context,
	key Key,
	turnID string,
	userText string,
	maxSteps int,
	emit chan<- Event,
	resume <-chan struct{},
	sess *Session,
	sessions SessionStore,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		Key:           key,
		TurnID:        turnID,
		UserText:      userText,
		Emit:          emit,
		Resume:        resume,
		Session:       sess,
		Sessions:      sessions,
		Limiter:       NewStepLimiter(maxSteps),
		StateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done mirrors context.Context's Done.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// GetState returns a staged (delta) value if present, else the persisted
// session value.
func (rc *RunContext) GetState(k string) (any, bool) {
	if v, ok := rc.StateDelta[k]; ok {
		return v, true
	}
	if rc.Session != nil {
		return rc.Session.GetState(k)
	}
	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (rc *RunContext) SetState(k string, v any) { rc.StateDelta[k] = v }

// ApplyStateDelta merges all pairs from d into the staged StateDelta.
func (rc *RunContext) ApplyStateDelta(d map[string]any) {
	maps.Copy(rc.StateDelta, d)
}

// StateView merges the persisted session state with the staged delta,
// producing the state the oracle should observe mid-turn.
func (rc *RunContext) StateView() map[string]any {
	var view map[string]any
	if rc.Session != nil {
		view = rc.Session.StateSnapshot()
	} else {
		view = map[string]any{}
	}
	maps.Copy(view, rc.StateDelta)
	return view
}

// RefreshSession reloads the session snapshot from the SessionStore.
func (rc *RunContext) RefreshSession() error {
	if rc.Sessions == nil {
		return fmt.Errorf("session store not configured")
	}
	s, err := rc.Sessions.GetOrNone(rc.Key)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("session %s vanished", rc.Key)
	}
	rc.Session = s
	return nil
}

// CommitStateDelta persists the accumulated StateDelta then clears the
// buffer. No-op when there are no staged mutations.
func (rc *RunContext) CommitStateDelta() error {
	if len(rc.StateDelta) == 0 {
		return nil
	}
	if rc.Sessions == nil {
		return fmt.Errorf("session store not configured")
	}
	if err := rc.Sessions.ApplyDelta(rc.Key, rc.StateDelta); err != nil {
		return err
	}
	rc.StateDelta = map[string]any{}
	return nil
}

// History returns all historical events for the session snapshot.
func (rc *RunContext) History() []Event {
	if rc.Session == nil {
		return []Event{}
	}
	return rc.Session.Events()
}

// EmitEvent merges the pending StateDelta into ev.Actions, sends it on the
// Emit channel, then resets the buffer. Returns the cancellation error when
// the context ends before emission.
func (rc *RunContext) EmitEvent(ev Event) error {
	if len(rc.StateDelta) > 0 {
		if ev.Actions.StateDelta == nil {
			ev.Actions.StateDelta = map[string]any{}
		}
		maps.Copy(ev.Actions.StateDelta, rc.StateDelta)
	}
	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
	}
	rc.StateDelta = map[string]any{}
	return nil
}

// WaitForResume blocks until the turn executor acknowledges persistence of
// the last emitted event, or the context is cancelled. If Resume is nil it
// returns immediately.
func (rc *RunContext) WaitForResume() error {
	if rc.Resume == nil {
		return nil
	}
	select {
	case <-rc.Resume:
		return nil
	case <-rc.Context.Done():
		return rc.Context.Err()
	}
}
