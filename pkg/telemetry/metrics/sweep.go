package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics tracks the retention sweeper and the storage trees it walks.
//
// Metrics:
//   - ncod_sweep_runs_total: Sweep runs by target and outcome
//   - ncod_sweep_deleted_files_total: Files removed per target
//   - ncod_sweep_reclaimed_bytes_total: Bytes reclaimed per target
//   - ncod_sweep_remove_errors_total: Failed removals per target
//   - ncod_sweep_duration_seconds: Sweep duration histogram
//   - ncod_sweep_last_run_timestamp_seconds: Wall time of the last run
//   - ncod_storage_files / ncod_storage_bytes / ncod_storage_oldest_file_age_seconds:
//     Usage gauges refreshed during the sweep walk
type SweepMetrics struct {
	// Sweep run outcomes
	runsTotal    *prometheus.CounterVec
	deletedTotal *prometheus.CounterVec
	bytesTotal   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	lastRun      *prometheus.GaugeVec

	// Storage usage observed while walking
	storageFiles    *prometheus.GaugeVec
	storageBytes    *prometheus.GaugeVec
	storageOldestAge *prometheus.GaugeVec
}

// NewSweepMetrics creates and registers sweeper metrics with the provided registry.
func NewSweepMetrics(cfg Config, registry *prometheus.Registry) *SweepMetrics {
	sm := &SweepMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_runs_total",
				Help:      "Total number of retention sweep runs by target and outcome",
			},
			[]string{"target", "status"},
		),

		deletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_deleted_files_total",
				Help:      "Total number of files removed by the retention sweeper",
			},
			[]string{"target"},
		),

		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_reclaimed_bytes_total",
				Help:      "Total bytes reclaimed by the retention sweeper",
			},
			[]string{"target"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_remove_errors_total",
				Help:      "Total number of removals that failed during sweeps",
			},
			[]string{"target"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of retention sweep runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"target"},
		),

		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sweep_last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last completed sweep per target",
			},
			[]string{"target"},
		),

		storageFiles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "storage_files",
				Help:      "Number of files currently present under each storage target",
			},
			[]string{"target"},
		),

		storageBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "storage_bytes",
				Help:      "Bytes currently occupied under each storage target",
			},
			[]string{"target"},
		),

		storageOldestAge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "storage_oldest_file_age_seconds",
				Help:      "Age in seconds of the oldest file under each storage target",
			},
			[]string{"target"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.runsTotal,
		sm.deletedTotal,
		sm.bytesTotal,
		sm.errorsTotal,
		sm.duration,
		sm.lastRun,
		sm.storageFiles,
		sm.storageBytes,
		sm.storageOldestAge,
	)

	return sm
}

// RecordRun records the outcome of one sweep over a target.
//
// Parameters:
//   - target: Sweep target name (e.g. "products", "lustre_products", "logs")
//   - status: Run outcome ("success", "error")
//   - deleted: Number of files removed
//   - reclaimedBytes: Bytes reclaimed by the removals
//   - removeErrors: Number of removals that failed
//   - duration: Wall time of the run
func (sm *SweepMetrics) RecordRun(target, status string, deleted int, reclaimedBytes int64, removeErrors int, duration time.Duration) {
	sm.runsTotal.WithLabelValues(target, status).Inc()
	sm.duration.WithLabelValues(target).Observe(duration.Seconds())
	sm.lastRun.WithLabelValues(target).SetToCurrentTime()

	if deleted > 0 {
		sm.deletedTotal.WithLabelValues(target).Add(float64(deleted))
	}
	if reclaimedBytes > 0 {
		sm.bytesTotal.WithLabelValues(target).Add(float64(reclaimedBytes))
	}
	if removeErrors > 0 {
		sm.errorsTotal.WithLabelValues(target).Add(float64(removeErrors))
	}
}

// UpdateUsage sets the storage usage gauges for a target. The sweeper calls
// this with what it saw during the walk, so the gauges reflect the state
// after removals.
func (sm *SweepMetrics) UpdateUsage(target string, files int, sizeBytes int64, oldestAge time.Duration) {
	sm.storageFiles.WithLabelValues(target).Set(float64(files))
	sm.storageBytes.WithLabelValues(target).Set(float64(sizeBytes))
	sm.storageOldestAge.WithLabelValues(target).Set(oldestAge.Seconds())
}
