package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryai/gantry/core"
)

func testKey() core.Key {
	return core.Key{App: "research", User: "u1", Session: "s1"}
}

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Create(testKey(), map[string]any{"name": "u1", "role": "investigator"})
	require.NoError(t, err)
	v, _ := sess.GetState("role")
	assert.Equal(t, "investigator", v)

	got, err := store.GetOrNone(testKey())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testKey(), got.Key)
}

func TestInMemoryStore_GetOrNoneAbsent(t *testing.T) {
	store := NewInMemoryStore()
	got, err := store.GetOrNone(testKey())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryStore_CreateDuplicate(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create(testKey(), nil)
	require.NoError(t, err)

	_, err = store.Create(testKey(), map[string]any{"role": "other"})
	require.Error(t, err)
	assert.Equal(t, core.CodeSessionAlreadyExists, core.CodeOf(err))

	// The original session is untouched.
	got, err := store.GetOrNone(testKey())
	require.NoError(t, err)
	_, exists := got.GetState("role")
	assert.False(t, exists)
}

func TestInMemoryStore_AppendEventAssignsSeq(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create(testKey(), nil)
	require.NoError(t, err)

	first, err := store.AppendEvent(testKey(), core.NewUserMessageEvent("t1", "hi"))
	require.NoError(t, err)
	second, err := store.AppendEvent(testKey(), core.NewAgentMessageEvent("t1", "main_coordinator", "hello"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	got, _ := store.GetOrNone(testKey())
	assert.Len(t, got.Events(), 2)
}

func TestInMemoryStore_AppendToMissingSession(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.AppendEvent(testKey(), core.NewUserMessageEvent("t1", "hi"))
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestInMemoryStore_ApplyDelta(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create(testKey(), map[string]any{"name": "u1"})
	require.NoError(t, err)

	require.NoError(t, store.ApplyDelta(testKey(), map[string]any{"task_assignment": "done"}))

	got, _ := store.GetOrNone(testKey())
	v, ok := got.GetState("task_assignment")
	assert.True(t, ok)
	assert.Equal(t, "done", v)
}

func TestInMemoryStore_ClonesOnRead(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Create(testKey(), nil)
	require.NoError(t, err)

	got, _ := store.GetOrNone(testKey())
	got.SetState("leak", true)

	fresh, _ := store.GetOrNone(testKey())
	_, exists := fresh.GetState("leak")
	assert.False(t, exists, "mutating a returned session must not affect the store")
}
