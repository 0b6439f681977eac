package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Retry calls fn until it succeeds, attempts run out or ctx is done, waiting
// delay between two attempts. The last error is returned.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		log.Warn().Err(err).Msgf("Attempt %d of %d failed, retrying in %s", attempt, attempts, delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}
