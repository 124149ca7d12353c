package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks the product conversion pipeline.
//
// Metrics:
//   - ncod_pipeline_downloads_total: Archive downloads by outcome
//   - ncod_pipeline_download_bytes_total: Bytes fetched from the hub
//   - ncod_pipeline_conversions_total: Conversions by platform and outcome
//   - ncod_pipeline_stage_duration_seconds: Per-stage duration histogram
//   - ncod_pipeline_product_size_bytes: Converted product size histogram
type PipelineMetrics struct {
	// Download outcomes and volume
	downloadsTotal *prometheus.CounterVec
	downloadBytes  prometheus.Counter

	// Conversion outcomes
	conversionsTotal *prometheus.CounterVec

	// Per-stage durations (locate, download, unpack, convert, publish)
	stageDuration *prometheus.HistogramVec

	// Converted product sizes
	productSize *prometheus.HistogramVec
}

// NewPipelineMetrics creates and registers pipeline metrics with the provided registry.
func NewPipelineMetrics(cfg Config, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		downloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_downloads_total",
				Help:      "Total number of archive downloads by outcome",
			},
			[]string{"status"},
		),

		downloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_download_bytes_total",
				Help:      "Total bytes downloaded from the data hub",
			},
		),

		conversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_conversions_total",
				Help:      "Total number of product conversions by platform and outcome",
			},
			[]string{"platform", "status"},
		),

		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"stage"},
		),

		productSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pipeline_product_size_bytes",
				Help:      "Size of converted products in bytes",
				Buckets:   cfg.SizeBuckets,
			},
			[]string{"platform"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		pm.downloadsTotal,
		pm.downloadBytes,
		pm.conversionsTotal,
		pm.stageDuration,
		pm.productSize,
	)

	return pm
}

// RecordDownload records one archive download attempt.
//
// Parameters:
//   - status: Outcome ("success", "error", "skipped" when the archive was
//     already present)
//   - sizeBytes: Bytes transferred, 0 when nothing was fetched
func (pm *PipelineMetrics) RecordDownload(status string, sizeBytes int64) {
	pm.downloadsTotal.WithLabelValues(status).Inc()
	if sizeBytes > 0 {
		pm.downloadBytes.Add(float64(sizeBytes))
	}
}

// RecordConversion records one product conversion attempt.
//
// Parameters:
//   - platform: Product platform ("S1", "S2")
//   - status: Outcome ("success", "error")
func (pm *PipelineMetrics) RecordConversion(platform, status string) {
	pm.conversionsTotal.WithLabelValues(platform, status).Inc()
}

// ObserveStage records the duration of one pipeline stage.
//
// Stages: "locate", "download", "unpack", "convert", "publish", "cleanup".
func (pm *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	pm.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveProductSize records the on-disk size of a converted product.
func (pm *PipelineMetrics) ObserveProductSize(platform string, sizeBytes int64) {
	if sizeBytes > 0 {
		pm.productSize.WithLabelValues(platform).Observe(float64(sizeBytes))
	}
}
