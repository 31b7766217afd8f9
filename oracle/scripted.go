package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is a deterministic Oracle for tests: it pops decisions from a
// fixed script in order and records every request it observed. Safe for
// concurrent use, though turns consult it sequentially.
type Scripted struct {
	mu       sync.Mutex
	script   []Decision
	pos      int
	requests []Request
	err      error
	errAt    int
}

// NewScripted constructs a scripted oracle replaying the given decisions.
func NewScripted(decisions ...Decision) *Scripted {
	return &Scripted{script: decisions, errAt: -1}
}

// FailAt makes the oracle return err instead of the decision at step n
// (0-based). Used to exercise OracleUnavailable handling.
func (s *Scripted) FailAt(n int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errAt = n
	s.err = err
	return s
}

// Decide implements Oracle.
func (s *Scripted) Decide(_ context.Context, req Request) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	step := s.pos
	s.pos++
	if s.errAt >= 0 && step == s.errAt {
		return nil, s.err
	}
	if step >= len(s.script) {
		return nil, fmt.Errorf("scripted oracle exhausted after %d decisions", len(s.script))
	}
	return s.script[step], nil
}

// Info implements Oracle.
func (s *Scripted) Info() Info { return Info{Name: "scripted", Provider: "scripted"} }

// Requests returns a copy of the requests observed so far, in order.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Steps returns how many decisions were consumed.
func (s *Scripted) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
