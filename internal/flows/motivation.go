package flows

import (
	"context"
	"strings"

	"recovery-plan/internal/llm"
)

type motivation struct {
	Message string `json:"message"`
}

var motivationSafety = []llm.SafetySetting{
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_LOW_AND_ABOVE"},
}

// MotivationalFeedback writes an encouraging message for a completion rate
// in [0, 1]. Range checks belong to the caller.
func (r *Runner) MotivationalFeedback(ctx context.Context, completionRate float64) (string, error) {
	const flow = "motivationalFeedback"

	prompt, err := render(motivationalFeedbackPrompt, struct {
		CompletionRate float64
		Quotes         []string
	}{completionRate, motivationalQuotes})
	if err != nil {
		return "", err
	}

	var out motivation
	if err := r.call(ctx, llm.Request{
		Name:        flow,
		Prompt:      prompt,
		Schema:      llm.Object(llm.Field("message", llm.String("The motivational message."))),
		Temperature: 0.7,
		Safety:      motivationSafety,
	}, &out); err != nil {
		return "", err
	}

	feedback := strings.TrimSpace(out.Message)
	if feedback == "" {
		return "", malformed(flow, "message is empty")
	}
	return feedback, nil
}
