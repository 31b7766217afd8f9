package core

import (
	"fmt"
	"sync"
	"time"
)

// Key identifies a session by (application, user, session id). The triple is
// unique per deployment; two users never share a session.
type Key struct {
	App     string `json:"app"`
	User    string `json:"user"`
	Session string `json:"session"`
}

// String renders the composite key as app/user/session.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.App, k.User, k.Session)
}

// Session is a conversational container tracking mutable key/value state plus
// an ordered event history. It is safe for concurrent access, though turn
// execution assumes a single writer per session key (see Store).
//
// Contract:
//   - State mutations are last-writer-wins and update the Updated timestamp
//   - AddEvent assigns the next sequence number; history is append-only
//   - Events returns a defensive copy
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	Key     Key            `json:"key"`
	State   map[string]any `json:"state"`
	History []Event        `json:"history"`
	Created time.Time      `json:"created"`
	Updated time.Time      `json:"updated"`
	mu      sync.RWMutex
	nextSeq int64
}

// NewSession creates an empty session for the given key with an initial state
// snapshot. A nil initial state yields an empty map.
func NewSession(key Key, initialState map[string]any) *Session {
	now := time.Now()
	state := map[string]any{}
	for k, v := range initialState {
		state[k] = v
	}
	return &Session{Key: key, State: state, History: []Event{}, Created: now, Updated: now, nextSeq: 1}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now()
}

// MergeState merges the provided key/value pairs into State, last writer wins.
func (s *Session) MergeState(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now()
}

// AddEvent appends an event to the history, assigning the next sequence
// number. The event is returned with its Seq populated.
func (s *Session) AddEvent(ev Event) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.Seq = s.nextSeq
	s.nextSeq++
	s.History = append(s.History, ev)
	s.Updated = time.Now()
	return ev
}

// Events returns a defensive copy of the full history.
func (s *Session) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.History))
	copy(events, s.History)
	return events
}

// Conversation returns events suitable for oracle context: user, assistant
// and tool roles, in append order.
func (s *Session) Conversation() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := map[string]bool{"user": true, "assistant": true, "tool": true}
	res := make([]Event, 0, len(s.History))
	for _, ev := range s.History {
		if ev.Content == nil || !allowed[ev.Content.Role] {
			continue
		}
		res = append(res, ev)
	}
	return res
}

// StateSnapshot returns a shallow copy of the current state map.
func (s *Session) StateSnapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]any, len(s.State))
	for k, v := range s.State {
		snap[k] = v
	}
	return snap
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		Key:     s.Key,
		State:   make(map[string]any, len(s.State)),
		History: make([]Event, len(s.History)),
		Created: s.Created,
		Updated: s.Updated,
		nextSeq: s.nextSeq,
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.History, s.History)
	return clone
}

// SessionStore persists sessions and their evolving state / event history.
//
// GetOrNone followed by a conditional Create is the get-or-create boundary the
// turn executor relies on; implementations must make that race-free for a
// single key. The in-memory and sqlite stores guard with a mutex rather than
// relying on the single-writer-per-session discipline callers are expected to
// keep (one in-flight turn per session).
type SessionStore interface {
	// GetOrNone returns the session for key, or (nil, nil) when absent.
	GetOrNone(key Key) (*Session, error)
	// Create stores a new session with the given initial state. It fails
	// with CodeSessionAlreadyExists when the key is present.
	Create(key Key, initialState map[string]any) (*Session, error)
	// AppendEvent appends an event to the session history and returns it
	// with its assigned sequence number.
	AppendEvent(key Key, ev Event) (Event, error)
	// ApplyDelta merges a key/value delta into the session state.
	ApplyDelta(key Key, delta map[string]any) error
}
