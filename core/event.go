package core

import (
	"time"

	"github.com/google/uuid"
)

// EventActions encodes side effects attached to an Event. StateDelta is
// applied to the session by the turn executor after the event is persisted.
type EventActions struct {
	StateDelta map[string]any `json:"state_delta,omitempty"`
}

// Event is one entry of a session's history: a user message, an agent
// message, a capability call or a capability result. After emission it should
// be treated as immutable. Seq is assigned by the session on append and is
// strictly increasing within a session.
type Event struct {
	ID           string       `json:"id"`
	TurnID       string       `json:"turn_id"`
	Author       string       `json:"author"` // "user" or an agent name
	Seq          int64        `json:"seq"`
	Timestamp    time.Time    `json:"timestamp"`
	Content      *Content     `json:"content,omitempty"`
	Actions      EventActions `json:"actions"`
	ErrorCode    *string      `json:"error_code,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}

// NewEvent creates a bare event authored by author bound to a turn.
func NewEvent(turnID, author string) Event {
	return Event{
		ID:        NewID(),
		TurnID:    turnID,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessageEvent creates a user-authored text message event.
func NewUserMessageEvent(turnID, message string) Event {
	e := NewEvent(turnID, "user")
	e.Content = &Content{Role: "user", Parts: []Part{TextPart{Text: message}}}
	return e
}

// NewAgentMessageEvent creates an assistant message event authored by the
// named agent.
func NewAgentMessageEvent(turnID, agent, message string) Event {
	e := NewEvent(turnID, agent)
	e.Content = &Content{Role: "assistant", Parts: []Part{TextPart{Text: message}}}
	return e
}

// NewFunctionCallEvent records an agent requesting a capability invocation.
func NewFunctionCallEvent(turnID, agent, callID, name, args string) Event {
	e := NewEvent(turnID, agent)
	e.Content = &Content{
		Role: "assistant",
		Parts: []Part{FunctionCallPart{FunctionCall: FunctionCall{
			ID:        callID,
			Name:      name,
			Arguments: args,
		}}},
	}
	return e
}

// NewFunctionResponseEvent records the completion result (or error) of a
// capability invocation. If err is non-nil its message is copied into the
// response's Error field.
func NewFunctionResponseEvent(turnID, agent, callID, name string, result any, err error) Event {
	e := NewEvent(turnID, agent)
	fr := FunctionResponse{ID: callID, Name: name, Response: result}
	if err != nil {
		fr.Error = err.Error()
	}
	e.Content = &Content{Role: "tool", Parts: []Part{FunctionResponsePart{FunctionResponse: fr}}}
	return e
}

// NewID generates a unique identifier for events, turns and capability calls.
func NewID() string { return uuid.NewString() }

// GetFunctionCalls returns any FunctionCall parts contained within the event
// content preserving their original order.
func (e Event) GetFunctionCalls() []FunctionCall {
	if e.Content == nil {
		return nil
	}
	var calls []FunctionCall
	for _, p := range e.Content.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}

// GetFunctionResponses returns any FunctionResponse parts contained within
// the event content preserving their original order.
func (e Event) GetFunctionResponses() []FunctionResponse {
	if e.Content == nil {
		return nil
	}
	var responses []FunctionResponse
	for _, p := range e.Content.Parts {
		if fr, ok := p.(FunctionResponsePart); ok {
			responses = append(responses, fr.FunctionResponse)
		}
	}
	return responses
}

// IsError reports whether the event carries an error marker.
func (e Event) IsError() bool { return e.ErrorCode != nil }
