package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic sweeps inside the server on a cron schedule.
// The one-shot `ncod sweep` command covers deployments that prefer an
// external scheduler instead.
type Scheduler struct {
	sweeper  *Sweeper
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool

	hookMu sync.Mutex
	hooks  []sweepHook
}

type sweepHook struct {
	name string
	fn   func(context.Context) error
}

// NewScheduler creates a scheduler that runs the sweeper on the given
// cron schedule (standard 5-field syntax).
func NewScheduler(sweeper *Sweeper, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger.With("component", "retention.scheduler"),
	}
}

// AfterSweep registers fn to run after every scheduled sweep. The job
// registry hooks its pruning here so finished jobs age out on the same
// schedule as the files. Hook failures are logged, never fatal.
func (s *Scheduler) AfterSweep(name string, fn func(context.Context) error) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hooks = append(s.hooks, sweepHook{name: name, fn: fn})
}

// Start begins periodic sweeping. An empty schedule disables the
// scheduler without error. The scheduler stops itself when ctx is
// cancelled.
//
// Common schedules:
//
//   - "0 * * * *"   - hourly, on the hour (the default)
//   - "*/30 * * * *" - every 30 minutes
//   - "0 3 * * *"   - daily at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	// A fresh cron per Start keeps restarts from accumulating entries.
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.run(ctx)
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"targets", len(s.sweeper.Targets()),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// run executes one sweep cycle and then the registered hooks.
func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("starting scheduled sweep")

	results, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error("scheduled sweep aborted",
			"error", err,
		)
		return
	}

	var deleted int
	var reclaimed int64
	for _, r := range results {
		deleted += r.Deleted()
		reclaimed += r.ReclaimedBytes
	}

	if deleted > 0 {
		s.logger.Info("scheduled sweep completed",
			"deleted", deleted,
			"reclaimed_bytes", reclaimed,
		)
	} else {
		s.logger.Debug("scheduled sweep completed, nothing to delete")
	}

	for _, hook := range s.snapshotHooks() {
		if err := hook.fn(ctx); err != nil {
			s.logger.Error("post-sweep task failed",
				"task", hook.name,
				"error", err,
			)
		}
	}
}

// snapshotHooks copies the hook list so a running sweep never holds
// the registration lock.
func (s *Scheduler) snapshotHooks() []sweepHook {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	return append([]sweepHook(nil), s.hooks...)
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // wait for a running sweep to finish
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when the
// scheduler is not running. The readiness endpoint reports this.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
