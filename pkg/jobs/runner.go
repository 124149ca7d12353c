package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/metrics"
)

// ExecuteFunc runs a job's batch and returns the OPeNDAP links and the
// failed product names. A non-nil error means the batch itself could
// not run; per-product failures alone are not an error.
type ExecuteFunc func(ctx context.Context, job *Job) (links, failures []string, err error)

// RunnerOptions contains optional runner dependencies.
type RunnerOptions struct {
	// Logger receives worker logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Collector receives job metrics. Optional.
	Collector *metrics.Collector

	// QueueSize bounds how many accepted jobs may wait for a worker.
	// Default: 64.
	QueueSize int
}

// Runner executes accepted jobs on a bounded pool of workers. The
// reference deployment runs one worker, processing requests serially.
type Runner struct {
	store     *Store
	execute   ExecuteFunc
	workers   int
	queue     chan string
	logger    *slog.Logger
	collector *metrics.Collector

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	active atomic.Int64
}

// NewRunner creates a job runner. workers of zero or less means one.
func NewRunner(store *Store, execute ExecuteFunc, workers int, opts RunnerOptions) *Runner {
	if workers <= 0 {
		workers = 1
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := opts.Collector
	if collector == nil {
		collector = metrics.NewCollector(metrics.Config{}, nil)
	}

	return &Runner{
		store:     store,
		execute:   execute,
		workers:   workers,
		queue:     make(chan string, queueSize),
		logger:    logger.With("component", "jobs.runner"),
		collector: collector,
	}
}

// Start recovers jobs left behind by the previous process and launches
// the workers. The workers stop when ctx is cancelled or Stop is
// called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.recoverLeftoverJobs(runCtx)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.collector.SetJobsQueued(len(r.queue))
	r.collector.SetJobsRunning(0)
	r.logger.Info("job runner started",
		"workers", r.workers,
		"queue_size", cap(r.queue),
	)

	go func() {
		<-runCtx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		r.Stop(stopCtx)
	}()

	return nil
}

// recoverLeftoverJobs fails jobs that were mid-execution when the
// previous process died and re-queues the ones that never started.
func (r *Runner) recoverLeftoverJobs(ctx context.Context) {
	interrupted, err := r.store.ListByStatus(ctx, StatusRunning)
	if err != nil {
		r.logger.Error("cannot list interrupted jobs",
			"error", err,
		)
	}
	for _, job := range interrupted {
		if err := r.store.UpdateStatus(ctx, job.ID, StatusFailed, "interrupted by a service restart"); err != nil {
			r.logger.Error("cannot fail interrupted job",
				"job_id", job.ID,
				"error", err,
			)
			continue
		}
		r.logger.Warn("failed job interrupted by the previous shutdown",
			"job_id", job.ID,
		)
	}

	pending, err := r.store.ListByStatus(ctx, StatusAccepted)
	if err != nil {
		r.logger.Error("cannot list pending jobs",
			"error", err,
		)
		return
	}
	for _, job := range pending {
		select {
		case r.queue <- job.ID:
			r.logger.Info("re-queued pending job",
				"job_id", job.ID,
			)
		default:
			r.logger.Warn("queue full, job stays pending until the next start",
				"job_id", job.ID,
			)
		}
	}
}

// Submit registers a job and queues it for execution. The job gets an
// identifier when it has none. A full queue fails the job and returns
// an error the caller can surface.
func (r *Runner) Submit(ctx context.Context, job *Job) error {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return fmt.Errorf("job runner is not started")
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = StatusAccepted

	if err := r.store.Create(ctx, job); err != nil {
		return err
	}
	r.collector.RecordJobSubmitted(job.ProcessID)

	select {
	case r.queue <- job.ID:
	default:
		if err := r.store.UpdateStatus(ctx, job.ID, StatusFailed, "job queue is full"); err != nil {
			r.logger.Error("cannot fail overflowed job",
				"job_id", job.ID,
				"error", err,
			)
		}
		return fmt.Errorf("job queue is full")
	}

	r.collector.SetJobsQueued(len(r.queue))
	r.logger.Info("job accepted",
		"job_id", job.ID,
		"process", job.ProcessID,
		"products", len(job.Products),
	)
	return nil
}

// worker consumes the queue until the runner stops.
func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.queue:
			r.runJob(ctx, id)
		}
	}
}

// runJob executes one queued job.
func (r *Runner) runJob(ctx context.Context, id string) {
	r.collector.SetJobsQueued(len(r.queue))

	// Registry writes after this point survive a shutdown in progress,
	// so a cancelled batch is still recorded as failed.
	storeCtx := context.WithoutCancel(ctx)

	job, err := r.store.Get(storeCtx, id)
	if err != nil {
		r.logger.Error("queued job cannot be loaded",
			"job_id", id,
			"error", err,
		)
		return
	}
	if job.Status != StatusAccepted {
		r.logger.Debug("skipping job no longer pending",
			"job_id", id,
			"status", job.Status,
		)
		return
	}

	if err := r.store.UpdateStatus(storeCtx, id, StatusRunning, ""); err != nil {
		r.logger.Error("cannot mark job running",
			"job_id", id,
			"error", err,
		)
		return
	}

	r.collector.SetJobsRunning(int(r.active.Add(1)))
	defer func() {
		r.collector.SetJobsRunning(int(r.active.Add(-1)))
	}()

	r.logger.Info("job started",
		"job_id", id,
		"products", len(job.Products),
	)
	start := time.Now()

	links, failures, err := r.execute(ctx, job)
	duration := time.Since(start)

	if err != nil {
		if setErr := r.store.SetResult(storeCtx, id, StatusFailed, links, failures, err.Error()); setErr != nil {
			r.logger.Error("cannot record job failure",
				"job_id", id,
				"error", setErr,
			)
		}
		r.collector.RecordJobFinished(job.ProcessID, "failed", duration)
		r.logger.Error("job failed",
			"job_id", id,
			"duration", duration,
			"error", err,
		)
		return
	}

	message := fmt.Sprintf("served %d products, %d failed", len(links), len(failures))
	if err := r.store.SetResult(storeCtx, id, StatusSuccessful, links, failures, message); err != nil {
		r.logger.Error("cannot record job result",
			"job_id", id,
			"error", err,
		)
	}
	r.collector.RecordJobFinished(job.ProcessID, "successful", duration)
	r.logger.Info("job finished",
		"job_id", id,
		"duration", duration,
		"links", len(links),
		"failures", len(failures),
	)
}

// Stop cancels the workers and waits for the in-flight job to be
// recorded, up to ctx's deadline.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("job runner stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job runner shutdown: %w", ctx.Err())
	}
}

// IsRunning reports whether the workers are active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
