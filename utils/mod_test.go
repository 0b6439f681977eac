package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	flaky := errors.New("flaky")

	t.Run("stopping at the first success", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 5, 0, func(context.Context) error {
			calls++
			if calls < 3 {
				return flaky
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("returning the last error", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 2, time.Millisecond, func(context.Context) error {
			calls++
			return flaky
		})
		require.ErrorIs(t, err, flaky)
		require.Equal(t, 2, calls)
	})

	t.Run("trying at least once", func(t *testing.T) {
		calls := 0
		_ = Retry(context.Background(), 0, 0, func(context.Context) error {
			calls++
			return flaky
		})
		require.Equal(t, 1, calls)
	})

	t.Run("giving up when cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, 10, time.Hour, func(context.Context) error {
			calls++
			cancel()
			return flaky
		})
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, calls)
	})
}

func TestFindIndex(t *testing.T) {
	require.Equal(t, 1, FindIndex([]string{"a", "b"}, "b"))
	require.Equal(t, -1, FindIndex([]string{"a"}, "z"))
}
