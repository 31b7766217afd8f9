package core

import "sync"

// StepLimiter bounds the number of routing steps (oracle consultations and
// capability invocations) within a single turn, guaranteeing termination of
// arbitrarily nested delegation loops.
type StepLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// DefaultMaxSteps is the suggested per-turn step budget.
const DefaultMaxSteps = 10

// NewStepLimiter creates a limiter with the given budget. If max <= 0 the
// default budget is used.
func NewStepLimiter(max int) *StepLimiter {
	if max <= 0 {
		max = DefaultMaxSteps
	}
	return &StepLimiter{max: max}
}

// Take consumes one step, returning a StepLimitExceeded TurnError once the
// budget is exhausted.
func (sl *StepLimiter) Take() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.count++
	if sl.count > sl.max {
		return NewTurnError(CodeStepLimitExceeded, "turn exceeded %d steps", sl.max)
	}
	return nil
}

// Count returns the number of steps taken so far.
func (sl *StepLimiter) Count() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.count
}

// Remaining returns how many steps are left before the limit.
func (sl *StepLimiter) Remaining() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.max - sl.count
}
