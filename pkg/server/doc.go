// Package server exposes the conversion service over HTTP in the shape
// of OGC API - Processes.
//
// This package ties together the job registry, the job runner and the
// telemetry stack, and provides server lifecycle management including
// start, graceful shutdown and signal handling.
//
// # Routes
//
// The server exposes the following endpoints:
//
//   - GET / - Landing page with links into the API
//   - GET /conformance - Conformance declaration
//   - GET /openapi - Generated OpenAPI 3.0 document
//   - GET /processes - Process list
//   - GET /processes/{processID} - Process description
//   - POST /processes/{processID}/execution - Execute, sync or async
//   - GET /jobs - Job list, newest first
//   - GET /jobs/{id} - Job status
//   - GET /jobs/{id}/results - Results of a finished job
//   - DELETE /jobs/{id} - Dismiss a pending or running job
//   - GET /health, /health/live, /health/ready, /health/version
//   - GET /metrics - Prometheus metrics
//
// # Execution Modes
//
// POST /processes/safe-to-netcdf/execution runs synchronously by
// default: the batch executes on the request goroutine and the response
// carries the OPeNDAP links inline. A `Prefer: respond-async` header or
// `"mode": "async"` in the body queues the batch on the job runner
// instead and returns 201 with a Location header pointing at the job.
// Both modes leave a record in the job registry.
//
// # Errors
//
// Every non-2xx response is a JSON exception document:
//
//	{"code": "NoSuchJob", "description": "no job with id 42"}
//
// # OpenAPI Regeneration
//
// The OpenAPI document is built from the typed configuration at
// startup, written to server.openapi_path and served from memory at
// /openapi. RegenerateOpenAPI rebuilds it, and the config watcher calls
// it whenever the config file changes on disk.
//
// # Basic Usage
//
//	srv, err := server.NewServer(cfg, store, runner, execute, server.Options{
//	    Logger:    logger,
//	    Collector: collector,
//	    Checker:   checker,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until the context is cancelled or SIGTERM/SIGINT
// arrives, then drains in-flight requests up to the configured shutdown
// timeout. Synchronous executions can run for many minutes, so
// server.write_timeout bounds them.
package server
