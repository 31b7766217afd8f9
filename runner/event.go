package runner

// Event is the closed union of turn outputs streamed to callers. Consumers
// switch exhaustively over the concrete types; channel close marks the end of
// the turn. A turn ends with exactly one terminal outcome: the last TextEvent
// before close, or a single ErrorEvent.
type Event interface{ isTurnEvent() }

// TextEvent carries an agent's message text. Intermediate agents produce one
// when finishing an activation; the last TextEvent of a turn is the terminal
// response.
type TextEvent struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

func (TextEvent) isTurnEvent() {}

// ToolStartedEvent signals that an agent began a capability invocation (or a
// delegation handoff, which uses the synthetic delegation function name).
type ToolStartedEvent struct {
	Agent  string `json:"agent"`
	Name   string `json:"name"`
	CallID string `json:"call_id"`
}

func (ToolStartedEvent) isTurnEvent() {}

// ToolFinishedEvent signals completion of a capability invocation. IsError
// marks classified failures that were folded back into the conversation as
// observations.
type ToolFinishedEvent struct {
	Agent     string `json:"agent"`
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	IsError   bool   `json:"is_error"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (ToolFinishedEvent) isTurnEvent() {}

// ErrorEvent terminates a turn that could not produce a response: step budget
// exhaustion, oracle unavailability or a persistence failure.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (ErrorEvent) isTurnEvent() {}
