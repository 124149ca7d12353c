package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
)

// BenchmarkTracer_Start_Disabled benchmarks noop span creation
func BenchmarkTracer_Start_Disabled(b *testing.B) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "bench")
	if err != nil {
		b.Fatalf("Failed to create tracer: %v", err)
	}
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, span := tracer.Start(ctx, "pipeline.convert")
		span.End()
	}
}

// BenchmarkInject benchmarks header injection
func BenchmarkInject(b *testing.B) {
	ctx := context.Background()
	headers := http.Header{}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		Inject(ctx, headers)
	}
}

// BenchmarkValidateTraceParent benchmarks traceparent validation
func BenchmarkValidateTraceParent(b *testing.B) {
	traceparent := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = ValidateTraceParent(traceparent)
	}
}
