package services

import (
	"context"
	"fmt"
	"math"
	"time"
)

type FeedbackWriter interface {
	MotivationalFeedback(ctx context.Context, completionRate float64) (string, error)
}

type MotivationService struct {
	writer  FeedbackWriter
	timeout time.Duration
}

func NewMotivationService(writer FeedbackWriter, timeout time.Duration) *MotivationService {
	return &MotivationService{writer: writer, timeout: timeout}
}

// Feedback writes an encouraging message for a completion rate in [0, 1].
func (ms *MotivationService) Feedback(ctx context.Context, completionRate float64) (string, error) {
	if math.IsNaN(completionRate) || completionRate < 0 || completionRate > 1 {
		return "", fmt.Errorf("%w: completion rate %v outside [0, 1]", ErrInvalidInput, completionRate)
	}

	ctx, cancel := withTimeout(ctx, ms.timeout)
	defer cancel()

	text, err := ms.writer.MotivationalFeedback(ctx, completionRate)
	if err != nil {
		return "", wrap(ErrGeneration, err)
	}
	return text, nil
}

// CompletionRate is completed over total, zero for an empty day.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(completed) / float64(total)
	return math.Min(rate, 1)
}
