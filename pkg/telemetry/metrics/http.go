package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks the API server.
//
// Metrics:
//   - ncod_http_requests_total: Requests by method, route and status code
//   - ncod_http_request_duration_seconds: Request duration histogram
//   - ncod_http_response_size_bytes: Response size histogram
//   - ncod_http_requests_in_flight: Requests currently being served
//
// The path label carries the route pattern (e.g. "/jobs/{jobID}"), never the
// raw URL, to keep cardinality bounded.
type HTTPMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	responseSize  *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg Config, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "path", "code"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		responseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
			[]string{"method", "path"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		hm.requestsTotal,
		hm.duration,
		hm.responseSize,
		hm.inFlight,
	)

	return hm
}

// RecordRequest records one served HTTP request.
//
// Parameters:
//   - method: HTTP method
//   - path: Route pattern, not the raw URL
//   - code: Response status code
//   - duration: Time from receipt to last byte
//   - responseBytes: Body bytes written
func (hm *HTTPMetrics) RecordRequest(method, path string, code int, duration time.Duration, responseBytes int) {
	hm.requestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	hm.duration.WithLabelValues(method, path).Observe(duration.Seconds())
	if responseBytes > 0 {
		hm.responseSize.WithLabelValues(method, path).Observe(float64(responseBytes))
	}
}

// IncInFlight notes a request entering the handler chain.
func (hm *HTTPMetrics) IncInFlight() {
	hm.inFlight.Inc()
}

// DecInFlight notes a request leaving the handler chain.
func (hm *HTTPMetrics) DecInFlight() {
	hm.inFlight.Dec()
}
