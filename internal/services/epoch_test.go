package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewTracker_NewerViewSupersedes(t *testing.T) {
	vt := NewViewTracker()

	ctx1, v1 := vt.Begin(context.Background(), "chat-1")
	assert.True(t, vt.IsCurrent(v1))

	ctx2, v2 := vt.Begin(context.Background(), "chat-1")
	assert.False(t, vt.IsCurrent(v1))
	assert.True(t, vt.IsCurrent(v2))
	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())

	vt.End(v1)
	assert.NoError(t, ctx2.Err(), "ending a stale view leaves the current one alone")

	vt.End(v2)
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
}

func TestViewTracker_ScopesAreIndependent(t *testing.T) {
	vt := NewViewTracker()

	ctxA, a := vt.Begin(context.Background(), "a")
	_, b := vt.Begin(context.Background(), "b")

	assert.True(t, vt.IsCurrent(a))
	assert.True(t, vt.IsCurrent(b))
	assert.NoError(t, ctxA.Err())
}
