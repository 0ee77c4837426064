package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionProvider_GetOrCreateSessionID(t *testing.T) {
	ctx := context.Background()
	sp := NewSessionProvider(time.Second)
	local := newFakeLocal("chat-1")

	first := sp.GetOrCreateSessionID(ctx, local)
	require.NotEmpty(t, first)
	_, err := uuid.Parse(first)
	assert.NoError(t, err, "session id is a UUID")

	second := sp.GetOrCreateSessionID(ctx, local)
	assert.Equal(t, first, second, "session id is stable")

	other := sp.GetOrCreateSessionID(ctx, newFakeLocal("chat-2"))
	assert.NotEqual(t, first, other, "clients get their own session")
}

func TestSessionProvider_StorageFailure(t *testing.T) {
	ctx := context.Background()
	sp := NewSessionProvider(time.Second)

	readFails := newFakeLocal("a")
	readFails.failGet = true
	assert.Equal(t, "", sp.GetOrCreateSessionID(ctx, readFails))

	writeFails := newFakeLocal("b")
	writeFails.failSet = true
	assert.Equal(t, "", sp.GetOrCreateSessionID(ctx, writeFails))

	client := sp.Resolve(ctx, writeFails)
	assert.False(t, client.Session.Available())
}

func TestPlanStartRegistry_WriteOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewPlanStartRegistry(time.Second, time.UTC, clock)
	local := newFakeLocal("c")

	start, err := reg.GetPlanStartDate(ctx, local, "flu")
	require.NoError(t, err)
	assert.True(t, start.Equal(now))

	now = now.AddDate(0, 0, 5)
	again, err := reg.GetPlanStartDate(ctx, local, "flu")
	require.NoError(t, err)
	assert.True(t, again.Equal(start), "start date never moves")

	cold, err := reg.GetPlanStartDate(ctx, local, "common-cold")
	require.NoError(t, err)
	assert.True(t, cold.Equal(now), "each condition has its own start")
}

func TestPlanStartRegistry_Errors(t *testing.T) {
	ctx := context.Background()
	reg := NewPlanStartRegistry(time.Second, time.UTC, nil)

	broken := newFakeLocal("d")
	broken.failSet = true
	_, err := reg.GetPlanStartDate(ctx, broken, "flu")
	assert.ErrorIs(t, err, ErrStorageWrite)

	garbled := newFakeLocal("e")
	garbled.values[planStartKeyPrefix+"flu"] = "yesterday"
	_, err = reg.GetPlanStartDate(ctx, garbled, "flu")
	assert.ErrorIs(t, err, ErrStorageRead)
}

func TestPlanStartRegistry_DayNumber(t *testing.T) {
	start := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	reg := NewPlanStartRegistry(0, time.UTC, nil)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"same day", time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC), 1},
		{"next day", time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC), 2},
		{"day before", time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), 0},
		{"day 100", start.AddDate(0, 0, 99), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.DayNumber(tt.date, start))
		})
	}
}

func TestActiveCondition(t *testing.T) {
	ctx := context.Background()
	local := newFakeLocal("f")

	_, ok, err := GetActiveCondition(ctx, local)
	require.NoError(t, err)
	assert.False(t, ok)

	want := ActiveCondition{Key: "other", Name: "Sore Throat and Cough"}
	require.NoError(t, SetActiveCondition(ctx, local, want))

	got, ok, err := GetActiveCondition(ctx, local)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	local.values[activeConditionKey] = "{}"
	_, _, err = GetActiveCondition(ctx, local)
	assert.ErrorIs(t, err, ErrStorageRead)
}
