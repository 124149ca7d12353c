package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler builds the sampler from the configured ratio.
//
// TraceIDRatioBased makes the decision from a hash of the trace ID, so every
// service that sees the same trace makes the same decision. A ratio of 1
// samples everything and 0 samples nothing; config validation bounds the
// value to [0, 1].
//
// The sampler is wrapped in ParentBased so a sampling decision made by the
// caller (propagated via traceparent) wins over the local ratio. Either a
// whole trace is recorded or none of it.
func newSampler(ratio float64) sdktrace.Sampler {
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
