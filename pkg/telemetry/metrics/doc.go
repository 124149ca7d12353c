// Package metrics provides Prometheus metrics collection for the NetCDF
// on-demand service.
//
// # Overview
//
// The metrics package instruments the retention sweeper, the conversion
// pipeline, the asynchronous job runner and the API server. All metrics
// live in a private registry owned by a single Collector, so tests and
// embedded uses never collide with the global default registry.
//
// # Metric Categories
//
//   - Sweep Metrics: Runs, deleted files, reclaimed bytes, removal errors
//     and per-target storage usage gauges
//   - Pipeline Metrics: Downloads, conversions, per-stage durations and
//     converted product sizes
//   - Job Metrics: Submissions, completions, durations and runner occupancy
//   - HTTP Metrics: Request counts, durations, response sizes and in-flight
//     requests for the API server
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//
//	// Record a completed sweep
//	collector.RecordSweep(
//		"products",       // target
//		"success",        // status
//		12,               // files deleted
//		48<<20,           // bytes reclaimed
//		0,                // removal errors
//		3*time.Second,    // duration
//	)
//
//	// Record pipeline activity
//	collector.RecordDownload("success", 740<<20)
//	collector.RecordConversion("S2", "success")
//	collector.RecordPipelineStage("convert", 4*time.Minute)
//
//	// Expose the endpoint
//	http.Handle("/metrics", collector.Handler())
//
// # Histogram Buckets
//
// The default duration buckets cover the spread between sweeps that finish
// in under a second and conversions that run for most of an hour:
//
//	Durations: 0.25s, 1s, 5s, 15s, 1m, 5m, 15m, 1h
//	Product sizes: 1MB to 16GB, exponential
//
// HTTP requests use the standard prometheus.DefBuckets since API calls are
// short.
//
// # Cardinality
//
// Label values are drawn from small fixed sets (sweep targets, pipeline
// stages, platforms, route patterns). Product names never appear as labels.
// The HTTP path label is additionally guarded by a CardinalityLimiter that
// folds unexpected patterns into "other".
package metrics
