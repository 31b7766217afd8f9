package gantry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryai/gantry/oracle"
	"github.com/gantryai/gantry/records"
)

func TestRunTurnSync_FullAssistant(t *testing.T) {
	store := records.NewInMemoryStore()
	p, err := store.CreateProject(context.Background(), records.Project{
		Title:  "Coastal Erosion Modeling",
		Status: records.StatusActive,
	})
	require.NoError(t, err)

	// The coordinator hands off to the database manager, which looks the
	// project up and reports back; the coordinator then closes the turn.
	o := oracle.NewScripted(
		oracle.Delegate{Target: "database_manager"},
		oracle.ToolCall{
			Name:      "get_project_details",
			Arguments: json.RawMessage(`{"project_id":"` + p.ID + `"}`),
		},
		oracle.Text{Content: "Coastal Erosion Modeling is Active."},
		oracle.Text{Content: "Your project Coastal Erosion Modeling is currently Active."},
	)

	g, err := New(o, func(opts *Options) {
		opts.RecordStore = store
	})
	require.NoError(t, err)

	reply, err := g.RunTurnSync(context.Background(), "tyler", "s1", "what's the status of my coastal project?", "")
	require.NoError(t, err)
	assert.Equal(t, "Your project Coastal Erosion Modeling is currently Active.", reply)

	reqs := o.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "main_coordinator", reqs[0].Agent)
	assert.Equal(t, "database_manager", reqs[1].Agent)
	assert.Equal(t, "main_coordinator", reqs[3].Agent)
}

func TestRunTurnSync_ErrorEvent(t *testing.T) {
	o := oracle.NewScripted().FailAt(0, assert.AnError)
	g, err := New(o)
	require.NoError(t, err)

	_, err = g.RunTurnSync(context.Background(), "u1", "s1", "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORACLE_UNAVAILABLE")
}

func TestNew_DefaultsAreUsable(t *testing.T) {
	g, err := New(oracle.NewScripted(oracle.Text{Content: "hello"}))
	require.NoError(t, err)
	assert.Equal(t, "main_coordinator", g.Runner().AgentName())
}
