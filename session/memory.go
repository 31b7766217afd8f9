// Package session provides SessionStore implementations: an in-memory store
// for tests and single-process deployments, and a sqlite-backed store for
// durable history.
package session

import (
	"sync"

	"github.com/gantryai/gantry/core"
)

// InMemoryStore keeps sessions in a mutex-guarded map. Sessions are cloned on
// the way out so callers can inspect snapshots without racing appends.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[core.Key]*core.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: map[core.Key]*core.Session{}}
}

// GetOrNone implements core.SessionStore.
func (s *InMemoryStore) GetOrNone(key core.Key) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

// Create implements core.SessionStore. Creating an existing key fails with
// CodeSessionAlreadyExists; the stored session is left untouched.
func (s *InMemoryStore) Create(key core.Key, initialState map[string]any) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[key]; exists {
		return nil, core.NewTurnError(core.CodeSessionAlreadyExists, "session %s already exists", key)
	}
	sess := core.NewSession(key, initialState)
	s.sessions[key] = sess
	return sess.Clone(), nil
}

// AppendEvent implements core.SessionStore.
func (s *InMemoryStore) AppendEvent(key core.Key, ev core.Event) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return core.Event{}, &NotFoundError{Key: key}
	}
	return sess.AddEvent(ev), nil
}

// ApplyDelta implements core.SessionStore.
func (s *InMemoryStore) ApplyDelta(key core.Key, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[key]
	if !ok {
		return &NotFoundError{Key: key}
	}
	sess.MergeState(delta)
	return nil
}

// NotFoundError reports an operation against an absent session key.
type NotFoundError struct {
	Key core.Key
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return "session " + e.Key.String() + " not found"
}
