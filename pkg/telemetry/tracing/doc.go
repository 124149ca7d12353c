// Package tracing provides OpenTelemetry distributed tracing for the NetCDF
// on-demand service.
//
// # Overview
//
// The tracing package wires up an OTLP/gRPC exporter, W3C Trace Context
// propagation and domain attribute helpers. Spans cover the stages of the
// conversion pipeline (locate, download, unpack, convert, publish, cleanup)
// and the API request handling around them, so a slow job can be broken down
// into the stage that cost the time.
//
// # Trace Context Propagation
//
// A caller already tracing its own request can submit a job with a
// traceparent header and the pipeline spans nest under the caller's span:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "pipeline.convert")
//	defer span.End()
//
//	tracing.SetProductAttributes(span, product.Name, product.Mission)
//	if err := convert(ctx); err != nil {
//	    tracing.SetErrorAttributes(span, err, "convert")
//	}
//
// # Sampling
//
// The sample_ratio setting drives a ParentBased(TraceIDRatioBased) sampler:
// a ratio of 1 records every trace, 0 records none, and anything between
// samples consistently by trace ID. A sampling decision carried in the
// incoming traceparent always wins over the local ratio.
//
// # Disabled Tracing
//
// With tracing disabled the package hands out noop tracers. Span creation
// still works at every call site and costs almost nothing, so pipeline code
// never checks whether tracing is on.
package tracing
