package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryai/gantry/agent"
	"github.com/gantryai/gantry/oracle"
	"github.com/gantryai/gantry/router"
	"github.com/gantryai/gantry/runner"
	"github.com/gantryai/gantry/session"
)

func newTestServer(t *testing.T, o oracle.Oracle) *httptest.Server {
	t.Helper()
	root := &agent.Node{
		Name:   "main_coordinator",
		Policy: agent.StaticPolicy("coordinate"),
	}
	rt, err := router.New(root, nil, o)
	require.NoError(t, err)
	r, err := runner.New("research", rt, session.NewInMemoryStore())
	require.NoError(t, err)
	srv := httptest.NewServer(New(r, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type wireEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// readSSE parses the data: lines of an event stream body.
func readSSE(t *testing.T, resp *http.Response) []wireEvent {
	t.Helper()
	defer resp.Body.Close()
	var events []wireEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev wireEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func postChat(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestChat_StreamsTurn(t *testing.T) {
	srv := newTestServer(t, oracle.NewScripted(oracle.Text{Content: "Hello researcher!"}))

	resp := postChat(t, srv, `{"user_id":"u1","session_id":"s1","message":"hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readSSE(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, "text", events[0].Type)
	assert.Equal(t, "Hello researcher!", events[0].Data["text"])
	assert.Equal(t, "main_coordinator", events[0].Data["agent"])
}

func TestChat_ErrorSurfacesInBand(t *testing.T) {
	o := oracle.NewScripted().FailAt(0, assert.AnError)
	srv := newTestServer(t, o)

	resp := postChat(t, srv, `{"user_id":"u1","session_id":"s1","message":"hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	events := readSSE(t, resp)
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].Type)
	assert.Equal(t, "ORACLE_UNAVAILABLE", events[0].Data["code"])
}

func TestChat_RejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, oracle.NewScripted())

	resp := postChat(t, srv, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	for _, body := range []string{
		`{"session_id":"s1","message":"hi"}`,
		`{"user_id":"u1","message":"hi"}`,
		`{"user_id":"u1","session_id":"s1"}`,
	} {
		resp := postChat(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Contains(t, payload["error"], "missing")
		resp.Body.Close()
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, oracle.NewScripted())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "main_coordinator", payload["agent_name"])
}
