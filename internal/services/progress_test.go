package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recovery-plan/internal/database"
)

var (
	taskA = database.Task{ID: "flu-1-1", Text: "Rest", Icon: "Bed"}
	taskB = database.Task{ID: "flu-1-2", Text: "Drink water", Icon: "GlassWater"}
)

func TestCompletionSet_Toggle(t *testing.T) {
	set := NewCompletionSet()
	assert.Equal(t, 0, set.Len())

	set.Toggle(taskA)
	set.Toggle(taskB)
	assert.True(t, set.Contains(taskA.ID))
	assert.Equal(t, []database.Task{taskA, taskB}, set.Tasks())

	set.Toggle(taskA)
	assert.False(t, set.Contains(taskA.ID))
	assert.Equal(t, []database.Task{taskB}, set.Tasks())

	set.Toggle(taskA)
	set.Toggle(taskA)
	assert.Equal(t, []database.Task{taskB}, set.Tasks(), "toggle is its own inverse")
}

func TestCompletionSet_DeduplicatesAndCopies(t *testing.T) {
	set := NewCompletionSet(taskA, taskA, taskB)
	assert.Equal(t, 2, set.Len())

	out := set.Tasks()
	out[0].Text = "changed"
	assert.Equal(t, "Rest", set.Tasks()[0].Text)
}

func TestCompletionTracker_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ct := NewCompletionTracker(store, time.Second)
	session := Session{ID: "s1"}

	empty, err := ct.LoadCompletion(ctx, session, "flu", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	set := NewCompletionSet(taskA, taskB)
	require.NoError(t, ct.SaveCompletion(ctx, session, "flu", "2024-03-01", set))

	loaded, err := ct.LoadCompletion(ctx, session, "flu", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []database.Task{taskA, taskB}, loaded.Tasks())

	require.NoError(t, ct.SaveCompletion(ctx, session, "flu", "2024-03-01", NewCompletionSet()))
	cleared, err := ct.LoadCompletion(ctx, session, "flu", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Len(), "saving an empty set clears the day")
}

func TestCompletionTracker_Failures(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ct := NewCompletionTracker(store, time.Second)

	noSession, err := ct.LoadCompletion(ctx, Session{}, "flu", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, noSession.Len())
	assert.ErrorIs(t, ct.SaveCompletion(ctx, Session{}, "flu", "2024-03-01", NewCompletionSet()), ErrSessionUnavailable)
	assert.Zero(t, store.reads+store.writes)

	store.failRead = true
	_, err = ct.LoadCompletion(ctx, Session{ID: "s1"}, "flu", "2024-03-01")
	assert.ErrorIs(t, err, ErrStorageRead)

	store.failWrite = true
	err = ct.SaveCompletion(ctx, Session{ID: "s1"}, "flu", "2024-03-01", NewCompletionSet(taskA))
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.ErrorIs(t, err, errBroken)
}
