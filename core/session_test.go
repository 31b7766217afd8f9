package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testKey() Key {
	return Key{App: "research", User: "u1", Session: "s1"}
}

func TestSession_StateAndClone(t *testing.T) {
	s := NewSession(testKey(), map[string]any{"name": "u1"})

	s.MergeState(map[string]any{"role": "investigator"})
	v, ok := s.GetState("role")
	assert.True(t, ok)
	assert.Equal(t, "investigator", v)

	clone := s.Clone()
	assert.NotSame(t, s, clone)
	clone.SetState("extra", 1)
	_, exists := s.GetState("extra")
	assert.False(t, exists, "original should not see clone mutations")
}

func TestSession_AddEventAssignsSeq(t *testing.T) {
	s := NewSession(testKey(), nil)

	first := s.AddEvent(NewUserMessageEvent("t1", "hi"))
	second := s.AddEvent(NewAgentMessageEvent("t1", "main_coordinator", "hello"))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	all := s.Events()
	assert.Len(t, all, 2)
	all[0].Author = "changed"
	assert.NotEqual(t, "changed", s.Events()[0].Author, "events must be copied on read")
}

func TestSession_ConversationFiltersRoles(t *testing.T) {
	s := NewSession(testKey(), nil)
	s.AddEvent(NewUserMessageEvent("t1", "hi"))
	s.AddEvent(Event{ID: NewID(), TurnID: "t1", Author: "system"}) // no content
	s.AddEvent(NewFunctionResponseEvent("t1", "db", "c1", "list_projects", "ok", nil))

	conv := s.Conversation()
	assert.Len(t, conv, 2)
	assert.Equal(t, "user", conv[0].Content.Role)
	assert.Equal(t, "tool", conv[1].Content.Role)
}

func TestStepLimiter(t *testing.T) {
	sl := NewStepLimiter(2)
	assert.NoError(t, sl.Take())
	assert.NoError(t, sl.Take())

	err := sl.Take()
	assert.Error(t, err)
	assert.Equal(t, CodeStepLimitExceeded, CodeOf(err))
	assert.Equal(t, 3, sl.Count())
}

func TestStepLimiter_DefaultBudget(t *testing.T) {
	sl := NewStepLimiter(0)
	assert.Equal(t, DefaultMaxSteps, sl.Remaining())
}

func TestTurnError_Fatal(t *testing.T) {
	assert.True(t, NewTurnError(CodeStepLimitExceeded, "x").Fatal())
	assert.True(t, NewTurnError(CodeOracleUnavailable, "x").Fatal())
	assert.False(t, NewTurnError(CodeCapabilityNotFound, "x").Fatal())
	assert.False(t, NewTurnError(CodeUnknownDelegationTarget, "x").Fatal())
}

func TestContent_JSONRoundTrip(t *testing.T) {
	original := Content{
		Role: "assistant",
		Parts: []Part{
			TextPart{Text: "checking"},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "c1", Name: "list_projects", Arguments: `{"status_filter":"Active"}`}},
		},
	}

	data, err := json.Marshal(original)
	assert.NoError(t, err)

	var decoded Content
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestContent_JSONRoundTripFunctionResponse(t *testing.T) {
	original := Content{
		Role: "tool",
		Parts: []Part{
			FunctionResponsePart{FunctionResponse: FunctionResponse{
				ID: "c1", Name: "list_projects",
				Response: map[string]any{"status": "success"},
			}},
		},
	}

	data, err := json.Marshal(original)
	assert.NoError(t, err)

	var decoded Content
	assert.NoError(t, json.Unmarshal(data, &decoded))
	resp := decoded.Parts[0].(FunctionResponsePart).FunctionResponse
	assert.Equal(t, "c1", resp.ID)
	assert.Equal(t, map[string]any{"status": "success"}, resp.Response)
}

func TestEvent_FunctionAccessors(t *testing.T) {
	ev := NewFunctionCallEvent("t1", "db", "c1", "list_projects", "{}")
	calls := ev.GetFunctionCalls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "list_projects", calls[0].Name)
	assert.Empty(t, ev.GetFunctionResponses())

	respEv := NewFunctionResponseEvent("t1", "db", "c1", "list_projects", nil, assert.AnError)
	responses := respEv.GetFunctionResponses()
	assert.Len(t, responses, 1)
	assert.Equal(t, assert.AnError.Error(), responses[0].Error)
}
