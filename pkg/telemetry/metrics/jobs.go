package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics tracks asynchronous processing jobs.
//
// Metrics:
//   - ncod_jobs_submitted_total: Jobs accepted by process
//   - ncod_jobs_completed_total: Jobs finished by process and status
//   - ncod_jobs_running / ncod_jobs_queued: Current runner occupancy
//   - ncod_job_duration_seconds: Job duration histogram
type JobMetrics struct {
	submittedTotal *prometheus.CounterVec
	completedTotal *prometheus.CounterVec
	running        prometheus.Gauge
	queued         prometheus.Gauge
	duration       *prometheus.HistogramVec
}

// NewJobMetrics creates and registers job metrics with the provided registry.
func NewJobMetrics(cfg Config, registry *prometheus.Registry) *JobMetrics {
	jm := &JobMetrics{
		submittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "jobs_submitted_total",
				Help:      "Total number of jobs accepted for execution",
			},
			[]string{"process"},
		),

		completedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "jobs_completed_total",
				Help:      "Total number of jobs finished by process and status",
			},
			[]string{"process", "status"},
		),

		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "jobs_running",
				Help:      "Number of jobs currently executing",
			},
		),

		queued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "jobs_queued",
				Help:      "Number of jobs waiting for a worker",
			},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "job_duration_seconds",
				Help:      "Duration of finished jobs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"process", "status"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		jm.submittedTotal,
		jm.completedTotal,
		jm.running,
		jm.queued,
		jm.duration,
	)

	return jm
}

// RecordSubmitted records a job accepted for execution.
func (jm *JobMetrics) RecordSubmitted(process string) {
	jm.submittedTotal.WithLabelValues(process).Inc()
}

// RecordFinished records a finished job.
//
// Parameters:
//   - process: Process identifier (e.g. "safe-to-netcdf")
//   - status: Terminal status ("successful", "failed", "dismissed")
//   - duration: Time from start to completion
func (jm *JobMetrics) RecordFinished(process, status string, duration time.Duration) {
	jm.completedTotal.WithLabelValues(process, status).Inc()
	jm.duration.WithLabelValues(process, status).Observe(duration.Seconds())
}

// SetRunning sets the number of currently executing jobs.
func (jm *JobMetrics) SetRunning(n int) {
	jm.running.Set(float64(n))
}

// SetQueued sets the number of jobs waiting for a worker.
func (jm *JobMetrics) SetQueued(n int) {
	jm.queued.Set(float64(n))
}
