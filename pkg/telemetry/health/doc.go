// Package health provides liveness and readiness probes for the NetCDF
// on-demand service.
//
// # Overview
//
// The health package implements Kubernetes-style probes along with a version
// information endpoint. A Checker aggregates per-component checks; the server
// mounts the handlers under /health.
//
// # Endpoints
//
//   - /health: Liveness probe - the process is running
//   - /health/ready: Readiness probe - dependencies are reachable
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//
//	// Register component checks
//	checker.RegisterCheck("storage", health.DirectoryCheck(cfg.Retention.OperationalNetCDFsPath))
//	checker.RegisterCheck("jobstore", health.DatabaseCheck(store.DB()))
//	checker.RegisterCheck("hub", health.ServiceCheck(hubClient))
//
//	// Mount handlers
//	mux.HandleFunc("/health", checker.LivenessHandler())
//	mux.HandleFunc("/health/ready", checker.ReadinessHandler())
//	mux.HandleFunc("/version", health.VersionHandler("1.2.0", commit, buildTime))
//
// # Liveness vs Readiness
//
// Liveness answers "is the process alive" and never touches dependencies, so
// a broken mount cannot make the orchestrator restart a working process.
// Readiness runs every registered check concurrently, each bounded by the
// checker timeout, and reports "degraded" with a 503 as soon as any one
// fails. Typical checks here are the storage roots (network mounts), the
// job store database and the data hub.
//
// # Example Responses
//
// Readiness, degraded:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "storage": {"status": "ok", "duration_ms": 0.2},
//	        "hub": {"status": "unhealthy", "message": "connection refused", "duration_ms": 103.4}
//	    },
//	    "timestamp": "2026-08-20T10:30:00Z"
//	}
package health
