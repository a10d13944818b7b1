// internal/github/ratelimit_test.go
package github

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github-repo-tracker/internal/errors"
)

func TestBudget_Wait(t *testing.T) {
	t.Run("proceeds immediately while budget remains", func(t *testing.T) {
		b := newBudget()

		start := time.Now()
		err := b.wait(context.Background(), time.Minute)

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("suspends until reset when exhausted", func(t *testing.T) {
		b := newBudget()
		b.exhaust(time.Now().Add(300 * time.Millisecond))

		start := time.Now()
		err := b.wait(context.Background(), time.Minute)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
	})

	t.Run("claims one slot per caller", func(t *testing.T) {
		b := newBudget()
		b.remaining = 1
		b.reset = time.Now().Add(300 * time.Millisecond)

		start := time.Now()
		require.NoError(t, b.wait(context.Background(), time.Minute))
		assert.Less(t, time.Since(start), 50*time.Millisecond)

		// The single slot is spent; the next caller must suspend until reset.
		require.NoError(t, b.wait(context.Background(), time.Minute))
		assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
	})

	t.Run("fails fast when reset is beyond max wait", func(t *testing.T) {
		b := newBudget()
		b.exhaust(time.Now().Add(10 * time.Second))

		err := b.wait(context.Background(), 100*time.Millisecond)

		var rle *apperrors.RateLimitedError
		require.ErrorAs(t, err, &rle)
		assert.Greater(t, rle.RetryAfter, 5*time.Second)
	})

	t.Run("returns the context error on cancellation", func(t *testing.T) {
		b := newBudget()
		b.exhaust(time.Now().Add(5 * time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		err := b.wait(ctx, time.Minute)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("allows a probe once the reset time has passed", func(t *testing.T) {
		b := newBudget()
		b.exhaust(time.Now().Add(-time.Second))

		err := b.wait(context.Background(), time.Minute)

		require.NoError(t, err)
	})
}
