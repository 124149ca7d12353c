package tracing

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// W3C Trace Context Propagation
//
// Trace context flows between services through the traceparent and
// tracestate headers. A caller that is already tracing a request carries
// its trace ID into the processes API, and the pipeline spans nest under
// the caller's span.
//
// traceparent format: version-trace_id-parent_id-trace_flags
//
//	00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01

// Propagator returns the composite propagator handling both W3C Trace
// Context and W3C Baggage.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// Extract extracts trace context from HTTP headers and returns a context
// with the extracted trace context.
//
// This should be called on the server side when receiving an HTTP request:
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "execute")
//	defer span.End()
//
// If no trace context is found in the headers, the original context is returned.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject injects trace context into HTTP headers.
//
// This should be called on the client side before making an HTTP request:
//
//	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
//	tracing.Inject(ctx, req.Header)
func Inject(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// HTTPMiddleware extracts trace context from incoming requests and exposes
// the IDs in response headers so a job submitter can correlate their request
// with the trace backend.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := Extract(r.Context(), r.Header)

		if span := SpanFromContext(ctx); span.SpanContext().IsValid() {
			w.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidateTraceParent validates the traceparent header format.
// Returns true if the header is valid according to W3C Trace Context spec.
//
// Format: version-trace_id-parent_id-trace_flags
//   - version: 2 hex digits
//   - trace_id: 32 hex digits, not all zero
//   - parent_id: 16 hex digits, not all zero
//   - trace_flags: 2 hex digits
func ValidateTraceParent(traceparent string) bool {
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return false
	}

	version, traceID, parentID, flags := parts[0], parts[1], parts[2], parts[3]

	if len(version) != 2 || !isHexString(version) {
		return false
	}
	if len(traceID) != 32 || !isHexString(traceID) || traceID == strings.Repeat("0", 32) {
		return false
	}
	if len(parentID) != 16 || !isHexString(parentID) || parentID == strings.Repeat("0", 16) {
		return false
	}
	if len(flags) != 2 || !isHexString(flags) {
		return false
	}

	return true
}

func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
