package flows

import (
	"context"
	"strings"

	"recovery-plan/internal/database"
	"recovery-plan/internal/llm"
)

type DailyProgress struct {
	PlanDate       string
	CompletedTasks []database.Task
}

type SummaryRequest struct {
	ConditionName       string
	ProgressHistory     []DailyProgress
	TotalCompletedCount int
}

type ProgressSummary struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Benefits  string `json:"benefits"`
	Lookahead string `json:"lookahead"`
}

// SummarizeProgress writes a narrative over the completion history, oldest
// day first.
func (r *Runner) SummarizeProgress(ctx context.Context, in SummaryRequest) (*ProgressSummary, error) {
	const flow = "summarizeProgress"

	prompt, err := render(summarizeProgressPrompt, in)
	if err != nil {
		return nil, err
	}

	schema := llm.Object(
		llm.Field("title", llm.String("Short, positive title.")),
		llm.Field("summary", llm.String("Two or three sentences on overall progress.")),
		llm.Field("benefits", llm.String("Why the most recent tasks help recovery.")),
		llm.Field("lookahead", llm.String("What the next stage may involve.")),
	)

	var out ProgressSummary
	if err := r.call(ctx, llm.Request{
		Name:        flow,
		Prompt:      prompt,
		Schema:      schema,
		Temperature: 0.7,
	}, &out); err != nil {
		return nil, err
	}

	for field, value := range map[string]string{
		"title":     out.Title,
		"summary":   out.Summary,
		"benefits":  out.Benefits,
		"lookahead": out.Lookahead,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, malformed(flow, "%s is empty", field)
		}
	}
	return &out, nil
}
