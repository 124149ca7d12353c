// Package telemetry provides observability for the NetCDF on-demand service.
//
// # Components
//
//   - logging: Structured logging with secret redaction and per-run logs
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: Liveness and readiness probes
//
// Each subpackage is wired independently from the telemetry section of the
// configuration; there is no umbrella initializer. The serve command builds
// the logger first, then the collector, tracer and health checker, and hands
// them to the components that need them.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//		Level:  cfg.Telemetry.Logging.Level,
//		Format: cfg.Telemetry.Logging.Format,
//	})
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: cfg.MetricsEnabled()}, nil)
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//
//	checker := health.New(5 * time.Second)
//
// # Secret Protection
//
// Log output passes through a redactor that strips hub and SMTP credentials,
// URL-embedded passwords and authorization headers before anything reaches a
// handler. See pkg/telemetry/logging.
package telemetry
