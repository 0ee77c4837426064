package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/database"
	"recovery-plan/internal/flows"
)

func newSummarizer(store *fakeStore, narrator *fakeFlows) *ProgressSummarizer {
	return NewProgressSummarizer(store, narrator, catalog.Default(), Timeouts{Store: time.Second, LLM: time.Second})
}

func TestSummarize_EmptyHistorySkipsModel(t *testing.T) {
	narrator := &fakeFlows{}
	ps := newSummarizer(newFakeStore(), narrator)

	got, err := ps.Summarize(context.Background(), "Influenza (Flu)", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "Your Recovery Journey Begins", got.Title)
	assert.Contains(t, got.Summary, "Influenza (Flu)")
	assert.Zero(t, narrator.calls)
}

func TestSummarizeCondition(t *testing.T) {
	store := newFakeStore()
	store.progress[storeKey{"s1", "flu", "2024-03-02"}] = []database.Task{taskA, taskB}
	store.progress[storeKey{"s1", "flu", "2024-03-01"}] = []database.Task{}
	store.progress[storeKey{"s1", "common-cold", "2024-03-01"}] = []database.Task{taskA}
	narrator := &fakeFlows{summary: &flows.ProgressSummary{Title: "Nice", Summary: "s", Benefits: "b", Lookahead: "l"}}
	ps := newSummarizer(store, narrator)

	report, err := ps.SummarizeCondition(context.Background(), Session{ID: "s1"}, "flu", "Influenza (Flu)")
	require.NoError(t, err)
	assert.Equal(t, "Nice", report.Summary.Title)
	assert.Equal(t, 2, report.TotalCompleted)
	require.Len(t, report.History, 2)
	assert.Equal(t, "2024-03-01", report.History[0].PlanDate, "history is oldest first")

	require.Len(t, narrator.summaries, 1)
	assert.Equal(t, 2, narrator.summaries[0].TotalCompletedCount)
}

func TestSummarizeCondition_DaysWithoutTasksCount(t *testing.T) {
	store := newFakeStore()
	store.progress[storeKey{"s1", "flu", "2024-03-01"}] = []database.Task{}
	narrator := &fakeFlows{summary: &flows.ProgressSummary{Title: "t"}}
	ps := newSummarizer(store, narrator)

	_, err := ps.SummarizeCondition(context.Background(), Session{ID: "s1"}, "flu", "Flu")
	require.NoError(t, err)
	assert.Equal(t, 1, narrator.calls, "a saved empty day is still history")
}

func TestSummarizeCondition_Failures(t *testing.T) {
	store := newFakeStore()
	store.failRead = true
	ps := newSummarizer(store, &fakeFlows{})
	_, err := ps.SummarizeCondition(context.Background(), Session{ID: "s1"}, "flu", "Flu")
	assert.ErrorIs(t, err, ErrStorageRead)

	store = newFakeStore()
	store.progress[storeKey{"s1", "flu", "2024-03-01"}] = []database.Task{taskA}
	ps = newSummarizer(store, &fakeFlows{err: errBroken})
	_, err = ps.SummarizeCondition(context.Background(), Session{ID: "s1"}, "flu", "Flu")
	assert.ErrorIs(t, err, ErrGeneration)

	report, err := newSummarizer(newFakeStore(), &fakeFlows{}).SummarizeCondition(context.Background(), Session{}, "flu", "Flu")
	require.NoError(t, err)
	assert.Equal(t, "Your Recovery Journey Begins", report.Summary.Title)
}

func TestConditionsWithProgress(t *testing.T) {
	store := newFakeStore()
	store.progress[storeKey{"s1", "flu", "2024-03-01"}] = []database.Task{taskA}
	store.progress[storeKey{"s1", "other", "2024-03-01"}] = []database.Task{taskA}
	store.progress[storeKey{"s1", "retired-key", "2024-03-01"}] = []database.Task{taskA}
	store.progress[storeKey{"s2", "common-cold", "2024-03-01"}] = []database.Task{taskA}
	ps := newSummarizer(store, &fakeFlows{})

	got, err := ps.ConditionsWithProgress(context.Background(), Session{ID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "flu", got[0].Key)
	assert.Equal(t, "other", got[1].Key)
	assert.Equal(t, "Custom Recovery Plan", got[1].Name)

	none, err := ps.ConditionsWithProgress(context.Background(), Session{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
