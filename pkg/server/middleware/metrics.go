package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/metrics"
)

// Metrics instruments every request on the collector: counts, latency,
// response size and an in-flight gauge. It must wrap the mux directly
// so the route pattern the mux stamps on the request is visible here.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			collector.IncHTTPInFlight()
			defer collector.DecHTTPInFlight()

			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			// Unmatched requests carry no pattern; label them by raw
			// path and let the cardinality limiter cap the damage.
			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			} else if _, route, ok := strings.Cut(path, " "); ok {
				path = route
			}
			collector.RecordHTTPRequest(r.Method, path, rw.statusCode, time.Since(start), rw.bytes)
		})
	}
}
