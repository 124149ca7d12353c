package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	// Extract and Inject go through the global propagator, which New only
	// installs for enabled tracers
	otel.SetTextMapPropagator(Propagator())
}

func sampledContext(t *testing.T) context.Context {
	t.Helper()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	if err != nil {
		t.Fatal(err)
	}
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	if err != nil {
		t.Fatal(err)
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	return trace.ContextWithRemoteSpanContext(context.Background(), sc)
}

// TestInjectExtract_RoundTrip tests header propagation both ways
func TestInjectExtract_RoundTrip(t *testing.T) {
	ctx := sampledContext(t)

	headers := http.Header{}
	Inject(ctx, headers)

	traceparent := headers.Get("traceparent")
	if traceparent == "" {
		t.Fatal("expected traceparent header to be injected")
	}
	if !ValidateTraceParent(traceparent) {
		t.Fatalf("injected traceparent %q is not valid", traceparent)
	}

	extracted := Extract(context.Background(), headers)
	sc := SpanContext(extracted)

	if !sc.IsValid() {
		t.Fatal("expected valid span context after extraction")
	}
	if sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID mismatch: %s", sc.TraceID())
	}
	if !sc.IsSampled() {
		t.Error("expected sampled flag to survive the round trip")
	}
	if !sc.IsRemote() {
		t.Error("expected extracted context to be marked remote")
	}
}

// TestHTTPMiddleware tests trace extraction on incoming requests
func TestHTTPMiddleware(t *testing.T) {
	t.Run("with traceparent", func(t *testing.T) {
		var gotTraceID string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotTraceID = TraceID(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
		rec := httptest.NewRecorder()

		HTTPMiddleware(inner).ServeHTTP(rec, req)

		if gotTraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("handler saw trace ID %q", gotTraceID)
		}
		if rec.Header().Get("X-Trace-ID") != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("response trace ID header = %q", rec.Header().Get("X-Trace-ID"))
		}
	})

	t.Run("without traceparent", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if TraceID(r.Context()) != "" {
				t.Errorf("expected no trace context, got %q", TraceID(r.Context()))
			}
		})

		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		rec := httptest.NewRecorder()

		HTTPMiddleware(inner).ServeHTTP(rec, req)

		if rec.Header().Get("X-Trace-ID") != "" {
			t.Errorf("expected no trace ID header, got %q", rec.Header().Get("X-Trace-ID"))
		}
	})
}

// TestValidateTraceParent tests traceparent format validation
func TestValidateTraceParent(t *testing.T) {
	tests := []struct {
		name        string
		traceparent string
		want        bool
	}{
		{
			name:        "valid",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			want:        true,
		},
		{
			name:        "valid unsampled",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00",
			want:        true,
		},
		{
			name:        "wrong part count",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7",
			want:        false,
		},
		{
			name:        "short trace id",
			traceparent: "00-4bf92f3577b34da6a3ce929d-00f067aa0ba902b7-01",
			want:        false,
		},
		{
			name:        "all zero trace id",
			traceparent: "00-00000000000000000000000000000000-00f067aa0ba902b7-01",
			want:        false,
		},
		{
			name:        "all zero parent id",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01",
			want:        false,
		},
		{
			name:        "non-hex characters",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e47zz-00f067aa0ba902b7-01",
			want:        false,
		},
		{
			name:        "uppercase hex rejected",
			traceparent: "00-4BF92F3577B34DA6A3CE929D0E0E4736-00f067aa0ba902b7-01",
			want:        false,
		},
		{
			name:        "empty",
			traceparent: "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTraceParent(tt.traceparent); got != tt.want {
				t.Errorf("ValidateTraceParent(%q) = %v, want %v", tt.traceparent, got, tt.want)
			}
		})
	}
}
