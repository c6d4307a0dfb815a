package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Dosada05/league-bracket/repositories"
)

type RetryOptions struct {
	// Zero means default.
	MaxAttempts int
	// Must be positive. Zero means default.
	Min time.Duration
	// Must be positive. Zero means default.
	Max time.Duration
}

func (o *RetryOptions) FillDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.Min <= 0 {
		o.Min = 20 * time.Millisecond
	}
	if o.Max <= 0 {
		o.Max = 500 * time.Millisecond
	}
	if o.Max < o.Min {
		o.Max = o.Min
	}
}

// retryOnConflict повторяет fn, пока она возвращает repositories.ErrConflict,
// не больше o.MaxAttempts раз, с экспоненциальной задержкой и джиттером.
// Исчерпав попытки, возвращает последнюю ошибку (errors.Is(err, ErrConflict) остается true).
func retryOnConflict(ctx context.Context, o RetryOptions, fn func() error) error {
	o.FillDefaults()
	delay := o.Min
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, repositories.ErrConflict) {
			return err
		}
		if attempt >= o.MaxAttempts {
			return fmt.Errorf("retry limit exceeded after %d attempts: %w", attempt, err)
		}

		jitter := 1.0 + rand.Float64()*0.5
		wait := min(o.Max, time.Duration(float64(delay)*jitter))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(o.Max, delay*2)
	}
}
