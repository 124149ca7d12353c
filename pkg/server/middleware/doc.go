// Package middleware contains the HTTP middleware chain for the API
// server: request IDs, structured request logging, panic recovery and
// Prometheus instrumentation.
//
// The chain is assembled outermost first as
//
//	Recovery -> RequestID -> Logging -> Metrics -> mux
//
// so every request, including one that panics, leaves a correlated log
// line and a metrics sample.
package middleware
