package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryai/gantry/core"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.Create(testKey(), map[string]any{"name": "u1", "role": "investigator"})
	require.NoError(t, err)

	userEv, err := store.AppendEvent(testKey(), core.NewUserMessageEvent("t1", "list projects"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), userEv.Seq)

	callEv := core.NewFunctionCallEvent("t1", "database_manager", "c1", "list_projects", `{}`)
	_, err = store.AppendEvent(testKey(), callEv)
	require.NoError(t, err)

	require.NoError(t, store.ApplyDelta(testKey(), map[string]any{"task_assignment": "listed"}))

	got, err := store.GetOrNone(testKey())
	require.NoError(t, err)
	require.NotNil(t, got)

	v, _ := got.GetState("role")
	assert.Equal(t, "investigator", v)
	v, _ = got.GetState("task_assignment")
	assert.Equal(t, "listed", v)

	events := got.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "user", events[0].Content.Role)
	calls := events[1].GetFunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "list_projects", calls[0].Name)
}

func TestSQLiteStore_CreateDuplicate(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.Create(testKey(), nil)
	require.NoError(t, err)

	_, err = store.Create(testKey(), nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeSessionAlreadyExists, core.CodeOf(err))
}

func TestSQLiteStore_GetOrNoneAbsent(t *testing.T) {
	store := newTestSQLite(t)
	got, err := store.GetOrNone(testKey())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_AppendToMissingSession(t *testing.T) {
	store := newTestSQLite(t)
	_, err := store.AppendEvent(testKey(), core.NewUserMessageEvent("t1", "hi"))
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}
