package services

import (
	"context"
	"time"

	"recovery-plan/internal/database"
	"recovery-plan/internal/logger"
)

// ProgressStore is the remote store of completion records.
type ProgressStore interface {
	GetProgress(ctx context.Context, sessionID, conditionKey, planDate string) (*database.ProgressRecord, error)
	UpsertProgress(ctx context.Context, rec database.ProgressRecord) error
	ListProgress(ctx context.Context, sessionID, conditionKey string) ([]database.ProgressRecord, error)
	ListProgressConditions(ctx context.Context, sessionID string) ([]string, error)
}

// CompletionSet is the working set of completed tasks for one day. It is
// edited locally and only reaches the store through SaveCompletion.
type CompletionSet struct {
	tasks []database.Task
}

func NewCompletionSet(tasks ...database.Task) *CompletionSet {
	set := &CompletionSet{}
	for _, t := range tasks {
		if !set.Contains(t.ID) {
			set.tasks = append(set.tasks, t)
		}
	}
	return set
}

// Toggle adds the task when absent and removes it when present, by id.
func (c *CompletionSet) Toggle(task database.Task) {
	for i, t := range c.tasks {
		if t.ID == task.ID {
			c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
			return
		}
	}
	c.tasks = append(c.tasks, task)
}

func (c *CompletionSet) Contains(taskID string) bool {
	for _, t := range c.tasks {
		if t.ID == taskID {
			return true
		}
	}
	return false
}

func (c *CompletionSet) Len() int {
	return len(c.tasks)
}

// Tasks returns a copy of the set in insertion order.
func (c *CompletionSet) Tasks() []database.Task {
	out := make([]database.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

type CompletionTracker struct {
	store   ProgressStore
	timeout time.Duration
}

func NewCompletionTracker(store ProgressStore, timeout time.Duration) *CompletionTracker {
	return &CompletionTracker{store: store, timeout: timeout}
}

// LoadCompletion returns the saved set for the day, empty when nothing was
// saved or the session is unavailable.
func (ct *CompletionTracker) LoadCompletion(ctx context.Context, session Session, conditionKey, planDate string) (*CompletionSet, error) {
	if !session.Available() {
		return NewCompletionSet(), nil
	}

	ctx, cancel := withTimeout(ctx, ct.timeout)
	defer cancel()

	rec, err := ct.store.GetProgress(ctx, session.ID, conditionKey, planDate)
	if err != nil {
		return nil, wrap(ErrStorageRead, err)
	}
	if rec == nil {
		return NewCompletionSet(), nil
	}
	return NewCompletionSet(rec.CompletedTasks...), nil
}

// SaveCompletion replaces the stored record for the day with set. Saving an
// empty set is valid and clears the day.
func (ct *CompletionTracker) SaveCompletion(ctx context.Context, session Session, conditionKey, planDate string, set *CompletionSet) error {
	if !session.Available() {
		return ErrSessionUnavailable
	}

	ctx, cancel := withTimeout(ctx, ct.timeout)
	defer cancel()

	if err := ct.store.UpsertProgress(ctx, database.ProgressRecord{
		SessionID:      session.ID,
		ConditionKey:   conditionKey,
		PlanDate:       planDate,
		CompletedTasks: set.Tasks(),
	}); err != nil {
		return wrap(ErrStorageWrite, err)
	}

	logger.Info("💾 Progress saved", "condition", conditionKey, "date", planDate, "completed", set.Len())
	return nil
}
