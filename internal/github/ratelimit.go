// internal/github/ratelimit.go
package github

import (
	"context"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"

	apperrors "github-repo-tracker/internal/errors"
)

// budget tracks the upstream call allowance as reported by the API. It is
// the one piece of state shared by all workers of a sync pass, so every
// read and update goes through the mutex.
type budget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
}

// newBudget starts optimistic: the real allowance is learned from the
// first response.
func newBudget() *budget {
	return &budget{remaining: 5000}
}

// observe records the rate information carried by an API response.
func (b *budget) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remaining = resp.Rate.Remaining
	b.reset = resp.Rate.Reset.Time
}

// exhaust records a rate-limit rejection, forcing all callers to wait for
// the given reset time.
func (b *budget) exhaust(reset time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remaining = 0
	if reset.After(b.reset) {
		b.reset = reset
	}
}

// wait claims one call from the budget, suspending the caller while it is
// exhausted. It returns nil once a call may proceed, a RateLimitedError
// when the time until reset exceeds maxWait, or the context error on
// cancellation. A caller decrements its slot here before issuing the call;
// observe then re-learns the true allowance from the response, so in-flight
// calls can overshoot by at most the worker count.
func (b *budget) wait(ctx context.Context, maxWait time.Duration) error {
	b.mu.Lock()
	if b.remaining > 0 {
		b.remaining--
		b.mu.Unlock()
		return nil
	}
	reset := b.reset
	b.mu.Unlock()

	d := time.Until(reset)
	if d <= 0 {
		// The window has rolled over; proceed as a probe and re-learn the
		// fresh allowance from the response.
		return nil
	}
	if d > maxWait {
		return &apperrors.RateLimitedError{RetryAfter: d}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
