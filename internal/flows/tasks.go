package flows

import (
	"context"
	"fmt"
	"strings"

	"recovery-plan/internal/database"
	"recovery-plan/internal/llm"
)

const (
	MinTasksPerDay = 5
	MaxTasksPerDay = 7
)

type TaskRequest struct {
	ConditionKey  string
	ConditionName string
	DayNumber     int
}

type generatedTasks struct {
	Tasks []database.Task `json:"tasks"`
}

func taskListSchema(icons []string) *llm.Schema {
	task := llm.Object(
		llm.Field("id", llm.String("Identifier in the form <conditionKey>-<dayNumber>-<position>.")),
		llm.Field("text", llm.String("The task description.")),
		llm.Field("icon", llm.String("Icon name for the task.").WithEnum(icons...)),
	)
	return llm.Object(
		llm.Field("tasks", llm.Array("The day's recovery tasks.", task).
			WithItemRange(MinTasksPerDay, MaxTasksPerDay)),
	)
}

// GenerateRecoveryTasks asks the model for one day's task list. The returned
// tasks carry ids of the form {conditionKey}-{dayNumber}-{position}.
func (r *Runner) GenerateRecoveryTasks(ctx context.Context, in TaskRequest) ([]database.Task, error) {
	const flow = "generateRecoveryTasks"

	prompt, err := render(generateTasksPrompt, struct {
		TaskRequest
		Icons []string
	}{in, r.catalog.Icons()})
	if err != nil {
		return nil, err
	}

	var out generatedTasks
	if err := r.call(ctx, llm.Request{
		Name:        flow,
		Prompt:      prompt,
		Schema:      taskListSchema(r.catalog.Icons()),
		Temperature: 0.5,
	}, &out); err != nil {
		return nil, err
	}

	if n := len(out.Tasks); n < MinTasksPerDay || n > MaxTasksPerDay {
		return nil, malformed(flow, "got %d tasks, want %d to %d", n, MinTasksPerDay, MaxTasksPerDay)
	}

	tasks := make([]database.Task, len(out.Tasks))
	for i, t := range out.Tasks {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			return nil, malformed(flow, "task %d has no text", i+1)
		}
		tasks[i] = database.Task{
			ID:   TaskID(in.ConditionKey, in.DayNumber, i+1),
			Text: text,
			Icon: strings.TrimSpace(t.Icon),
		}
	}
	return tasks, nil
}

// TaskID builds the id of the task at 1-based position on a plan day.
func TaskID(conditionKey string, dayNumber, position int) string {
	return fmt.Sprintf("%s-%d-%d", conditionKey, dayNumber, position)
}
