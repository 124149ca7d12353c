package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config controls metric naming and histogram bucketing.
type Config struct {
	// Enabled gates recording. A disabled collector registers its metric
	// families but every Record method is a no-op, so call sites never
	// need a nil check.
	Enabled bool

	// Namespace and Subsystem prefix every metric name.
	// Defaults: "ncod" / "".
	Namespace string
	Subsystem string

	// DurationBuckets are the histogram buckets, in seconds, for sweep,
	// job and pipeline stage durations. Downloads and conversions run
	// for minutes, so the defaults reach an hour.
	DurationBuckets []float64

	// SizeBuckets are the histogram buckets, in bytes, for converted
	// product sizes.
	SizeBuckets []float64
}

// Collector is the single registration point for all Prometheus metrics.
// It owns a private registry and exposes typed recording methods so call
// sites never touch metric vectors directly.
type Collector struct {
	config   Config
	registry *prometheus.Registry

	// Sweeper and storage metrics
	sweepMetrics *SweepMetrics

	// Conversion pipeline metrics
	pipelineMetrics *PipelineMetrics

	// Job runner metrics
	jobMetrics *JobMetrics

	// API server metrics
	httpMetrics *HTTPMetrics

	// Cardinality tracking for the HTTP path label
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh private registry is
// created.
//
// Example:
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	http.Handle("/metrics", collector.Handler())
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "ncod"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Sweeps finish in seconds, downloads and conversions in minutes
		cfg.DurationBuckets = []float64{0.25, 1, 5, 15, 60, 300, 900, 3600}
	}
	if len(cfg.SizeBuckets) == 0 {
		// 1MB to 16GB, covering single-band crops up to full SAFE scenes
		cfg.SizeBuckets = prometheus.ExponentialBuckets(1<<20, 4, 8)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	// Initialize metric subsystems
	c.sweepMetrics = NewSweepMetrics(cfg, registry)
	c.pipelineMetrics = NewPipelineMetrics(cfg, registry)
	c.jobMetrics = NewJobMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

// RecordSweep records the outcome of one retention sweep over a target.
//
// Parameters:
//   - target: Sweep target name ("products", "lustre_products", "logs")
//   - status: Run outcome ("success", "error")
//   - deleted: Number of files removed
//   - reclaimedBytes: Bytes reclaimed
//   - removeErrors: Number of removals that failed
//   - duration: Wall time of the run
//
// Example:
//
//	collector.RecordSweep("products", "success", 12, 48<<20, 0, 3*time.Second)
func (c *Collector) RecordSweep(target, status string, deleted int, reclaimedBytes int64, removeErrors int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.sweepMetrics.RecordRun(target, status, deleted, reclaimedBytes, removeErrors, duration)
}

// UpdateStorageUsage sets the usage gauges for a storage target to what the
// sweeper saw after removals.
func (c *Collector) UpdateStorageUsage(target string, files int, sizeBytes int64, oldestAge time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.sweepMetrics.UpdateUsage(target, files, sizeBytes, oldestAge)
}

// RecordDownload records one archive download attempt.
//
// Parameters:
//   - status: Outcome ("success", "error", "skipped")
//   - sizeBytes: Bytes transferred, 0 when nothing was fetched
func (c *Collector) RecordDownload(status string, sizeBytes int64) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordDownload(status, sizeBytes)
}

// RecordConversion records one product conversion attempt.
//
// Parameters:
//   - platform: Product platform ("S1", "S2")
//   - status: Outcome ("success", "error")
func (c *Collector) RecordConversion(platform, status string) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.RecordConversion(platform, status)
}

// RecordPipelineStage records the duration of one pipeline stage
// ("locate", "download", "unpack", "convert", "publish", "cleanup").
func (c *Collector) RecordPipelineStage(stage string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.ObserveStage(stage, duration)
}

// RecordProductSize records the on-disk size of a converted product.
func (c *Collector) RecordProductSize(platform string, sizeBytes int64) {
	if !c.config.Enabled {
		return
	}

	c.pipelineMetrics.ObserveProductSize(platform, sizeBytes)
}

// RecordJobSubmitted records a job accepted for execution.
func (c *Collector) RecordJobSubmitted(process string) {
	if !c.config.Enabled {
		return
	}

	c.jobMetrics.RecordSubmitted(process)
}

// RecordJobFinished records a job reaching a terminal status.
//
// Parameters:
//   - process: Process identifier (e.g. "safe-to-netcdf")
//   - status: Terminal status ("successful", "failed", "dismissed")
//   - duration: Time from start to completion
func (c *Collector) RecordJobFinished(process, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.jobMetrics.RecordFinished(process, status, duration)
}

// SetJobsRunning sets the number of jobs currently executing.
func (c *Collector) SetJobsRunning(n int) {
	if !c.config.Enabled {
		return
	}

	c.jobMetrics.SetRunning(n)
}

// SetJobsQueued sets the number of jobs waiting for a worker.
func (c *Collector) SetJobsQueued(n int) {
	if !c.config.Enabled {
		return
	}

	c.jobMetrics.SetQueued(n)
}

// RecordHTTPRequest records one served HTTP request. The path must be the
// route pattern, not the raw URL; unexpected patterns beyond the cardinality
// limit are aggregated into "other".
func (c *Collector) RecordHTTPRequest(method, path string, code int, duration time.Duration, responseBytes int) {
	if !c.config.Enabled {
		return
	}

	labelSet := fmt.Sprintf("http:%s:%s", method, path)
	if !c.cardinalityLimiter.Allow(labelSet) {
		path = "other"
	}

	c.httpMetrics.RecordRequest(method, path, code, duration, responseBytes)
}

// IncHTTPInFlight notes a request entering the handler chain.
func (c *Collector) IncHTTPInFlight() {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.IncInFlight()
}

// DecHTTPInFlight notes a request leaving the handler chain.
func (c *Collector) DecHTTPInFlight() {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.DecInFlight()
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of unique label combinations recorded,
// so a client probing arbitrary URLs cannot grow the registry without bound.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
