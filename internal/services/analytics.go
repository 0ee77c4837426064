package services

import (
	"context"
	"fmt"

	"recovery-plan/internal/catalog"
	"recovery-plan/internal/database"
	"recovery-plan/internal/flows"
)

type ProgressNarrator interface {
	SummarizeProgress(ctx context.Context, in flows.SummaryRequest) (*flows.ProgressSummary, error)
}

// ProgressReport is a condition's full history with its narrative.
type ProgressReport struct {
	ConditionKey   string
	ConditionName  string
	History        []flows.DailyProgress
	TotalCompleted int
	Summary        *flows.ProgressSummary
}

type ProgressSummarizer struct {
	store    ProgressStore
	narrator ProgressNarrator
	catalog  *catalog.Catalog
	timeouts Timeouts
}

func NewProgressSummarizer(store ProgressStore, narrator ProgressNarrator, cat *catalog.Catalog, timeouts Timeouts) *ProgressSummarizer {
	return &ProgressSummarizer{
		store:    store,
		narrator: narrator,
		catalog:  cat,
		timeouts: timeouts,
	}
}

// Summarize writes the progress narrative. With no history it returns a fixed
// getting-started text without calling the model. Results are never cached.
func (ps *ProgressSummarizer) Summarize(ctx context.Context, conditionName string, history []flows.DailyProgress, totalCompleted int) (*flows.ProgressSummary, error) {
	if len(history) == 0 {
		return gettingStarted(conditionName), nil
	}

	ctx, cancel := withTimeout(ctx, ps.timeouts.LLM)
	defer cancel()

	summary, err := ps.narrator.SummarizeProgress(ctx, flows.SummaryRequest{
		ConditionName:       conditionName,
		ProgressHistory:     history,
		TotalCompletedCount: totalCompleted,
	})
	if err != nil {
		return nil, wrap(ErrGeneration, err)
	}
	return summary, nil
}

// SummarizeCondition loads every saved day of the condition, oldest first,
// and summarizes it.
func (ps *ProgressSummarizer) SummarizeCondition(ctx context.Context, session Session, conditionKey, conditionName string) (*ProgressReport, error) {
	report := &ProgressReport{ConditionKey: conditionKey, ConditionName: conditionName}

	if session.Available() {
		records, err := ps.listProgress(ctx, session.ID, conditionKey)
		if err != nil {
			return nil, wrap(ErrStorageRead, err)
		}
		for _, rec := range records {
			report.History = append(report.History, flows.DailyProgress{
				PlanDate:       rec.PlanDate,
				CompletedTasks: rec.CompletedTasks,
			})
			report.TotalCompleted += len(rec.CompletedTasks)
		}
	}

	summary, err := ps.Summarize(ctx, conditionName, report.History, report.TotalCompleted)
	if err != nil {
		return nil, err
	}
	report.Summary = summary
	return report, nil
}

// ConditionsWithProgress lists the catalog conditions the session has saved
// progress for.
func (ps *ProgressSummarizer) ConditionsWithProgress(ctx context.Context, session Session) ([]catalog.Condition, error) {
	if !session.Available() {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, ps.timeouts.Store)
	defer cancel()

	keys, err := ps.store.ListProgressConditions(ctx, session.ID)
	if err != nil {
		return nil, wrap(ErrStorageRead, err)
	}

	// Custom plans are listed too; keys no longer in the catalog are not.
	var conditions []catalog.Condition
	for _, key := range keys {
		if cond, ok := ps.catalog.Lookup(key); ok {
			conditions = append(conditions, cond)
		}
	}
	return conditions, nil
}

func (ps *ProgressSummarizer) listProgress(ctx context.Context, sessionID, conditionKey string) ([]database.ProgressRecord, error) {
	ctx, cancel := withTimeout(ctx, ps.timeouts.Store)
	defer cancel()
	return ps.store.ListProgress(ctx, sessionID, conditionKey)
}

func gettingStarted(conditionName string) *flows.ProgressSummary {
	return &flows.ProgressSummary{
		Title:   "Your Recovery Journey Begins",
		Summary: fmt.Sprintf("You haven't completed any tasks for %s yet. Every recovery starts with a single step.", conditionName),
		Benefits: "Completing your daily tasks helps your body heal, builds healthy routines and " +
			"gives you a clear picture of how far you have come.",
		Lookahead: "Open today's plan, tick off what you manage and save your progress. " +
			"Your personalised summary will appear here.",
	}
}
