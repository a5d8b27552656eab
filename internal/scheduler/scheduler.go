// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rewardvault/internal/service"

	"github.com/robfig/cron/v3"
)

// LeaseKey is the Redis key guarding the accrual sweep.
const LeaseKey = "rewardvault:accrual-sweep"

// Sweeper runs one full accrual pass.
type Sweeper interface {
	ScanAndCredit(ctx context.Context) (*service.SweepSummary, error)
}

// Scheduler triggers the accrual sweep on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	lease    Lease
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a Scheduler. A nil lease falls back to NoopLease. Each run is
// bounded by timeout when it is positive.
func New(sweeper Sweeper, lease Lease, schedule string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if lease == nil {
		lease = NoopLease{}
	}
	logger = logger.With("component", "scheduler")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	return &Scheduler{
		cron:     c,
		sweeper:  sweeper,
		lease:    lease,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("schedule accrual sweep %q: %w", s.schedule, err)
	}
	s.logger.Info("Accrual sweep scheduled", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the cron scheduler. The returned context is done once a running
// sweep has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if _, _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Accrual sweep failed", "error", err)
	}
}

// RunOnce runs a sweep if the lease can be taken. The bool reports whether a
// sweep actually ran.
func (s *Scheduler) RunOnce(ctx context.Context) (*service.SweepSummary, bool, error) {
	token, ok, err := s.lease.Acquire(ctx)
	if err != nil {
		// Crediting is idempotent per device, so an unreachable lease
		// backend degrades to overlapping sweeps instead of none.
		s.logger.Warn("Sweep lease unavailable, running unguarded", "error", err)
		token, ok = "", true
	}
	if !ok {
		s.logger.Info("Accrual sweep skipped, lease held elsewhere")
		return nil, false, nil
	}
	if token != "" {
		defer func() {
			if err := s.lease.Release(context.Background(), token); err != nil {
				s.logger.Warn("Failed to release sweep lease", "error", err)
			}
		}()
	}

	summary, err := s.sweeper.ScanAndCredit(ctx)
	if summary != nil {
		s.logger.Info("Accrual sweep finished",
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"errors", summary.Errors,
			"total_credited", summary.TotalCredited,
			"duration", summary.FinishedAt.Sub(summary.StartedAt))
	}
	if err != nil {
		return summary, true, fmt.Errorf("accrual sweep: %w", err)
	}
	return summary, true, nil
}
