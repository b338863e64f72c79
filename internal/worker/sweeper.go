package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/socialchef/lru/internal/sentry"
)

const TypeSweep = "cache:sweep"

// Reclaimer removes expired entries and reports how many it removed.
type Reclaimer interface {
	DeleteExpired() int
}

// Sweeper periodically reclaims expired cache entries. It only frees memory:
// reads already treat expired entries as absent.
type Sweeper struct {
	cache    Reclaimer
	interval time.Duration
	metrics  *WorkerMetrics
}

func NewSweeper(cache Reclaimer, interval time.Duration, metrics *WorkerMetrics) *Sweeper {
	return &Sweeper{
		cache:    cache,
		interval: interval,
		metrics:  metrics,
	}
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// disables sweeping and Run returns immediately.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		slog.Info("Sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Starting sweeper", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Sweeper stopped")
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep and returns the number of entries reclaimed.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	start := time.Now()
	var removed int

	err := traceJob(ctx, TypeSweep, func(ctx context.Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("sweep panicked: %v", p)
			}
		}()

		removed = s.cache.DeleteExpired()
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("sweep.removed", removed))
		return nil
	})

	status := "success"
	if err != nil {
		status = "error"
		slog.ErrorContext(ctx, "Sweep failed", "error", err)
		sentry.CaptureError(err, map[string]string{"task_type": TypeSweep})
	} else if removed > 0 {
		slog.DebugContext(ctx, "Sweep reclaimed expired entries", "removed", removed)
	}

	s.metrics.RecordJob(ctx, TypeSweep, status, time.Since(start).Seconds())
	s.metrics.RecordReclaimed(ctx, removed)
	return removed
}
