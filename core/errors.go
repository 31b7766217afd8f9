package core

import "fmt"

// Code categorizes turn-level failures so callers and policy text can react
// without string matching. Codes are stable wire values.
type Code string

const (
	// CodeInvalidToolArguments marks a tool call whose arguments failed
	// schema validation. Recoverable: fed back to the oracle as an
	// observation, never reaches the underlying operation.
	CodeInvalidToolArguments Code = "INVALID_TOOL_ARGUMENTS"
	// CodeUnknownDelegationTarget marks a delegation to a name that is not a
	// direct child of the active agent. Recoverable.
	CodeUnknownDelegationTarget Code = "UNKNOWN_DELEGATION_TARGET"
	// CodeCapabilityNotFound marks a lookup miss inside a capability (e.g.
	// unknown record id) or an unregistered capability name. Not an engine
	// fault; recoverable.
	CodeCapabilityNotFound Code = "CAPABILITY_NOT_FOUND"
	// CodeCapabilityConflict marks a uniqueness violation (duplicate id).
	CodeCapabilityConflict Code = "CAPABILITY_CONFLICT"
	// CodeCapabilityTransient marks a temporarily unavailable backing store.
	CodeCapabilityTransient Code = "CAPABILITY_TRANSIENT"
	// CodeStepLimitExceeded marks exhaustion of the per-turn step budget.
	// Fatal to the turn.
	CodeStepLimitExceeded Code = "STEP_LIMIT_EXCEEDED"
	// CodeSessionAlreadyExists marks a Create against an existing session key.
	CodeSessionAlreadyExists Code = "SESSION_ALREADY_EXISTS"
	// CodeOracleUnavailable marks a decision oracle transport failure.
	// Fatal to the turn.
	CodeOracleUnavailable Code = "ORACLE_UNAVAILABLE"
)

// TurnError is the uniform error shape crossing component boundaries. The
// Code decides propagation: recoverable codes become observations the oracle
// sees, fatal codes terminate the turn with a single error event.
type TurnError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewTurnError constructs a TurnError with a formatted message.
func NewTurnError(code Code, format string, args ...any) *TurnError {
	return &TurnError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Fatal reports whether the error must terminate the whole turn instead of
// being reported back to the oracle as an observation.
func (e *TurnError) Fatal() bool {
	return e.Code == CodeStepLimitExceeded || e.Code == CodeOracleUnavailable
}

// CodeOf extracts the Code from err, or empty string if err is not a TurnError.
func CodeOf(err error) Code {
	if te, ok := err.(*TurnError); ok {
		return te.Code
	}
	return ""
}
