package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrStorageRead        = errors.New("storage read failed")
	ErrStorageWrite       = errors.New("storage write failed")
	ErrGeneration         = errors.New("generation failed")
	ErrSessionUnavailable = errors.New("session unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)

// wrap joins a sentinel kind with its cause so both match errors.Is.
func wrap(kind, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}

// withTimeout derives a bounded context. A non-positive limit only adds cancel.
func withTimeout(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, limit)
}

// Timeouts bound every store and model call made by the services.
type Timeouts struct {
	Store time.Duration
	LLM   time.Duration
}
