// Package runner implements the turn executor: the public entry point that
// accepts a user message for a session, drives the delegation router in a
// goroutine and streams the turn's output events while persisting history.
//
// Event ordering is the persistence handshake: the router blocks after each
// emission until the executor has appended the event and applied its state
// delta, so a crash never leaves an observed-but-unpersisted event.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/logging"
	"github.com/gantryai/gantry/router"
)

// DefaultRole is assigned to new sessions when the caller does not name one.
const DefaultRole = "investigator"

// Options configures a Runner.
type Options struct {
	// MaxSteps bounds oracle consultations plus capability invocations per
	// turn. Zero means core.DefaultMaxSteps.
	MaxSteps int
	// Logger receives structured execution logs. Nil disables logging.
	Logger logging.Logger
}

// Runner executes turns for an application: one agent hierarchy, one session
// store, any number of concurrent sessions. Turns for distinct sessions may
// run concurrently; callers keep at most one in-flight turn per session key.
type Runner struct {
	app      string
	router   *router.Router
	sessions core.SessionStore
	opts     Options
}

// New constructs a Runner for the named application.
func New(app string, rt *router.Router, sessions core.SessionStore, optFns ...func(o *Options)) (*Runner, error) {
	if app == "" {
		return nil, fmt.Errorf("runner: app name is required")
	}
	if rt == nil {
		return nil, fmt.Errorf("runner: router is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("runner: session store is required")
	}
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{app: app, router: rt, sessions: sessions, opts: opts}, nil
}

// AgentName returns the root agent's name.
func (r *Runner) AgentName() string { return r.router.Root().Name }

// RunTurn executes one turn: it resolves (or creates) the session, appends
// the user message and streams output events until the turn terminates. The
// returned channel is closed when the turn is over. Setup failures are
// returned synchronously; mid-turn failures arrive as a terminal ErrorEvent.
func (r *Runner) RunTurn(ctx context.Context, userID, sessionID, message, role string) (<-chan Event, error) {
	if userID == "" || sessionID == "" {
		return nil, fmt.Errorf("runner: user id and session id are required")
	}
	if message == "" {
		return nil, fmt.Errorf("runner: message is required")
	}
	key := core.Key{App: r.app, User: userID, Session: sessionID}

	sess, err := r.getOrCreateSession(key, userID, role)
	if err != nil {
		return nil, err
	}

	turnID := core.NewID()
	if _, err := r.sessions.AppendEvent(key, core.NewUserMessageEvent(turnID, message)); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	sess, err = r.sessions.GetOrNone(key)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s vanished", key)
	}

	turnCtx, cancel := context.WithCancel(ctx)
	emit := make(chan core.Event)
	resume := make(chan struct{})
	out := make(chan Event)

	rc := core.NewRunContext(turnCtx, key, turnID, message, r.opts.MaxSteps, emit, resume, sess, r.sessions, r.opts.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.router.Run(rc)
	}()
	go r.pump(ctx, turnCtx, cancel, key, emit, resume, out, errCh)

	return out, nil
}

// getOrCreateSession resolves the session, creating it with the initial state
// snapshot on first contact. A concurrent create by another turn is absorbed
// by re-reading.
func (r *Runner) getOrCreateSession(key core.Key, userID, role string) (*core.Session, error) {
	sess, err := r.sessions.GetOrNone(key)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	if role == "" {
		role = DefaultRole
	}
	sess, err = r.sessions.Create(key, map[string]any{"name": userID, "role": role})
	if err != nil {
		if core.CodeOf(err) == core.CodeSessionAlreadyExists {
			return r.sessions.GetOrNone(key)
		}
		return nil, err
	}
	return sess, nil
}

// pump persists each emitted event, applies its state delta, translates it to
// output events and acknowledges the router. It owns closing the out channel.
// Sends race against the caller's context (parent), not the turn context,
// so a terminal error can still be delivered after the turn is cancelled.
func (r *Runner) pump(
	parent context.Context,
	turnCtx context.Context,
	cancel context.CancelFunc,
	key core.Key,
	emit <-chan core.Event,
	resume chan<- struct{},
	out chan<- Event,
	errCh <-chan error,
) {
	defer cancel()
	defer close(out)

	for {
		select {
		case ev := <-emit:
			persisted, err := r.sessions.AppendEvent(key, ev)
			if err == nil && len(ev.Actions.StateDelta) > 0 {
				err = r.sessions.ApplyDelta(key, ev.Actions.StateDelta)
			}
			if err != nil {
				// Unblock the router via cancellation, then surface the
				// persistence failure as the terminal outcome.
				cancel()
				<-errCh
				r.send(parent, out, ErrorEvent{
					Code:    string(core.CodeCapabilityTransient),
					Message: fmt.Sprintf("persist event: %v", err),
				})
				return
			}
			for _, outEv := range translate(persisted) {
				if !r.send(parent, out, outEv) {
					cancel()
					<-errCh
					return
				}
			}
			select {
			case resume <- struct{}{}:
			case <-turnCtx.Done():
				<-errCh
				return
			}

		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				code := core.CodeOracleUnavailable
				var turnErr *core.TurnError
				if errors.As(err, &turnErr) {
					code = turnErr.Code
				}
				r.send(parent, out, ErrorEvent{Code: string(code), Message: err.Error()})
			}
			return

		case <-turnCtx.Done():
			<-errCh
			return
		}
	}
}

func (r *Runner) send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// translate maps a persisted history event onto output events.
func translate(ev core.Event) []Event {
	if ev.Content == nil {
		return nil
	}
	var events []Event
	for _, fc := range ev.GetFunctionCalls() {
		events = append(events, ToolStartedEvent{Agent: ev.Author, Name: fc.Name, CallID: fc.ID})
	}
	for _, fr := range ev.GetFunctionResponses() {
		finished := ToolFinishedEvent{Agent: ev.Author, Name: fr.Name, CallID: fr.ID, IsError: fr.Error != ""}
		if ev.ErrorCode != nil {
			finished.IsError = true
			finished.ErrorCode = *ev.ErrorCode
		}
		events = append(events, finished)
	}
	if ev.Content.Role == "assistant" {
		if text := ev.Content.Text(); text != "" {
			events = append(events, TextEvent{Agent: ev.Author, Text: text})
		}
	}
	return events
}
