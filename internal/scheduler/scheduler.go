// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github-repo-tracker/internal/syncer"
)

// SyncFunc is the parameterless entry point a trigger invokes. The
// contract is at-least-once per period; overlapping invocations are safe
// because every write underneath is an idempotent upsert.
type SyncFunc func(ctx context.Context) []syncer.TargetResult

// Trigger decides when sync passes run. Run blocks until the context is
// cancelled.
type Trigger interface {
	Run(ctx context.Context, sync SyncFunc)
}

// Ticker is the default Trigger: one pass immediately, then one per
// interval.
type Ticker struct {
	interval time.Duration
	logger   *slog.Logger
}

// NewTicker creates a Ticker firing at the given interval.
func NewTicker(interval time.Duration, logger *slog.Logger) *Ticker {
	return &Ticker{
		interval: interval,
		logger:   logger,
	}
}

// Run invokes sync on startup and then on every tick until cancellation.
func (t *Ticker) Run(ctx context.Context, sync SyncFunc) {
	t.logger.Info("scheduler started", "interval", t.interval.String())
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	sync(ctx) // Initial pass

	for {
		select {
		case <-ticker.C:
			sync(ctx)
		case <-ctx.Done():
			t.logger.Info("scheduler shutting down", "reason", ctx.Err())
			return
		}
	}
}
