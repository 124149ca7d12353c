package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() Config {
	return Config{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.1, 1, 10, 60},
		SizeBuckets:     []float64{1 << 20, 64 << 20, 1 << 30},
	}
}

// TestNewCollector tests collector creation and defaulting
func TestNewCollector(t *testing.T) {
	t.Run("explicit registry", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		collector := NewCollector(testConfig(), registry)

		if collector == nil {
			t.Fatal("Expected non-nil collector")
		}
		if collector.registry != registry {
			t.Error("Collector registry not set correctly")
		}
	})

	t.Run("nil registry creates one", func(t *testing.T) {
		collector := NewCollector(testConfig(), nil)
		if collector.Registry() == nil {
			t.Fatal("Expected collector to create its own registry")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		collector := NewCollector(Config{Enabled: true}, nil)
		if collector.config.Namespace != "ncod" {
			t.Errorf("Expected default namespace ncod, got %q", collector.config.Namespace)
		}
		if len(collector.config.DurationBuckets) == 0 {
			t.Error("Expected default duration buckets")
		}
		if len(collector.config.SizeBuckets) == 0 {
			t.Error("Expected default size buckets")
		}
	})
}

// TestCollector_RecordSweep tests sweep outcome recording
func TestCollector_RecordSweep(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordSweep("products", "success", 12, 48<<20, 0, 3*time.Second)
	collector.RecordSweep("products", "success", 3, 6<<20, 1, time.Second)
	collector.RecordSweep("logs", "error", 0, 0, 0, 10*time.Millisecond)

	runs := testutil.ToFloat64(collector.sweepMetrics.runsTotal.WithLabelValues("products", "success"))
	if runs != 2 {
		t.Errorf("Expected 2 product sweep runs, got %f", runs)
	}

	deleted := testutil.ToFloat64(collector.sweepMetrics.deletedTotal.WithLabelValues("products"))
	if deleted != 15 {
		t.Errorf("Expected 15 deleted files, got %f", deleted)
	}

	reclaimed := testutil.ToFloat64(collector.sweepMetrics.bytesTotal.WithLabelValues("products"))
	if reclaimed != float64(54<<20) {
		t.Errorf("Expected %d reclaimed bytes, got %f", int64(54<<20), reclaimed)
	}

	removeErrors := testutil.ToFloat64(collector.sweepMetrics.errorsTotal.WithLabelValues("products"))
	if removeErrors != 1 {
		t.Errorf("Expected 1 remove error, got %f", removeErrors)
	}

	errorRuns := testutil.ToFloat64(collector.sweepMetrics.runsTotal.WithLabelValues("logs", "error"))
	if errorRuns != 1 {
		t.Errorf("Expected 1 log sweep error run, got %f", errorRuns)
	}

	lastRun := testutil.ToFloat64(collector.sweepMetrics.lastRun.WithLabelValues("products"))
	if lastRun <= 0 {
		t.Errorf("Expected last run timestamp to be set, got %f", lastRun)
	}
}

// TestCollector_UpdateStorageUsage tests the usage gauges
func TestCollector_UpdateStorageUsage(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.UpdateStorageUsage("products", 120, 9<<30, 40*time.Hour)

	files := testutil.ToFloat64(collector.sweepMetrics.storageFiles.WithLabelValues("products"))
	if files != 120 {
		t.Errorf("Expected 120 files, got %f", files)
	}

	age := testutil.ToFloat64(collector.sweepMetrics.storageOldestAge.WithLabelValues("products"))
	if age != (40 * time.Hour).Seconds() {
		t.Errorf("Expected oldest age %f, got %f", (40 * time.Hour).Seconds(), age)
	}

	// Gauges are absolute, a second update overwrites
	collector.UpdateStorageUsage("products", 80, 6<<30, 12*time.Hour)
	files = testutil.ToFloat64(collector.sweepMetrics.storageFiles.WithLabelValues("products"))
	if files != 80 {
		t.Errorf("Expected 80 files after update, got %f", files)
	}
}

// TestCollector_PipelineMetrics tests pipeline metric recording
func TestCollector_PipelineMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	t.Run("record download", func(t *testing.T) {
		collector.RecordDownload("success", 740<<20)
		collector.RecordDownload("skipped", 0)

		count := testutil.ToFloat64(collector.pipelineMetrics.downloadsTotal.WithLabelValues("success"))
		if count != 1 {
			t.Errorf("Expected 1 successful download, got %f", count)
		}

		bytes := testutil.ToFloat64(collector.pipelineMetrics.downloadBytes)
		if bytes != float64(740<<20) {
			t.Errorf("Expected %d download bytes, got %f", int64(740<<20), bytes)
		}
	})

	t.Run("record conversion", func(t *testing.T) {
		collector.RecordConversion("S2", "success")
		collector.RecordConversion("S1", "error")

		count := testutil.ToFloat64(collector.pipelineMetrics.conversionsTotal.WithLabelValues("S2", "success"))
		if count != 1 {
			t.Errorf("Expected 1 S2 conversion, got %f", count)
		}
	})

	t.Run("record stage duration", func(t *testing.T) {
		collector.RecordPipelineStage("convert", 4*time.Minute)
		collector.RecordPipelineStage("download", 90*time.Second)

		if got := testutil.CollectAndCount(collector.pipelineMetrics.stageDuration); got != 2 {
			t.Errorf("Expected 2 stage series, got %d", got)
		}
	})

	t.Run("record product size", func(t *testing.T) {
		collector.RecordProductSize("S2", 300<<20)
		collector.RecordProductSize("S2", 0) // ignored
		// Just verify it doesn't panic
	})
}

// TestCollector_JobMetrics tests job metric recording
func TestCollector_JobMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordJobSubmitted("safe-to-netcdf")
	collector.RecordJobFinished("safe-to-netcdf", "successful", 5*time.Minute)
	collector.RecordJobFinished("safe-to-netcdf", "failed", 30*time.Second)
	collector.SetJobsRunning(1)
	collector.SetJobsQueued(4)

	submitted := testutil.ToFloat64(collector.jobMetrics.submittedTotal.WithLabelValues("safe-to-netcdf"))
	if submitted != 1 {
		t.Errorf("Expected 1 submitted job, got %f", submitted)
	}

	failed := testutil.ToFloat64(collector.jobMetrics.completedTotal.WithLabelValues("safe-to-netcdf", "failed"))
	if failed != 1 {
		t.Errorf("Expected 1 failed job, got %f", failed)
	}

	running := testutil.ToFloat64(collector.jobMetrics.running)
	if running != 1 {
		t.Errorf("Expected 1 running job, got %f", running)
	}

	queued := testutil.ToFloat64(collector.jobMetrics.queued)
	if queued != 4 {
		t.Errorf("Expected 4 queued jobs, got %f", queued)
	}
}

// TestCollector_HTTPMetrics tests HTTP metric recording
func TestCollector_HTTPMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordHTTPRequest("GET", "/processes", 200, 3*time.Millisecond, 512)
	collector.RecordHTTPRequest("GET", "/processes", 200, 2*time.Millisecond, 512)
	collector.RecordHTTPRequest("POST", "/processes/safe-to-netcdf/execution", 201, 8*time.Millisecond, 256)

	count := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("GET", "/processes", "200"))
	if count != 2 {
		t.Errorf("Expected 2 GET /processes requests, got %f", count)
	}

	collector.IncHTTPInFlight()
	inFlight := testutil.ToFloat64(collector.httpMetrics.inFlight)
	if inFlight != 1 {
		t.Errorf("Expected 1 in-flight request, got %f", inFlight)
	}

	collector.DecHTTPInFlight()
	inFlight = testutil.ToFloat64(collector.httpMetrics.inFlight)
	if inFlight != 0 {
		t.Errorf("Expected 0 in-flight requests, got %f", inFlight)
	}
}

// TestCollector_HTTPPathCardinality tests that unexpected paths fold into "other"
func TestCollector_HTTPPathCardinality(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	collector.RecordHTTPRequest("GET", "/a", 200, time.Millisecond, 0)
	collector.RecordHTTPRequest("GET", "/b", 200, time.Millisecond, 0)
	collector.RecordHTTPRequest("GET", "/c", 200, time.Millisecond, 0)
	collector.RecordHTTPRequest("GET", "/d", 200, time.Millisecond, 0)

	other := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("GET", "other", "200"))
	if other != 2 {
		t.Errorf("Expected 2 requests folded into other, got %f", other)
	}

	kept := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("GET", "/a", "200"))
	if kept != 1 {
		t.Errorf("Expected 1 request on /a, got %f", kept)
	}
}

// TestCollector_Disabled tests that a disabled collector records nothing
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordSweep("products", "success", 5, 1<<20, 0, time.Second)
	collector.RecordDownload("success", 1<<20)
	collector.RecordConversion("S1", "success")
	collector.RecordJobSubmitted("safe-to-netcdf")
	collector.RecordHTTPRequest("GET", "/processes", 200, time.Millisecond, 0)
	collector.IncHTTPInFlight()

	deleted := testutil.ToFloat64(collector.sweepMetrics.deletedTotal.WithLabelValues("products"))
	if deleted != 0 {
		t.Errorf("Expected no deletions recorded while disabled, got %f", deleted)
	}

	inFlight := testutil.ToFloat64(collector.httpMetrics.inFlight)
	if inFlight != 0 {
		t.Errorf("Expected in-flight gauge untouched while disabled, got %f", inFlight)
	}
}

// TestCollector_Handler tests the scrape endpoint
func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordSweep("products", "success", 7, 2<<20, 0, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "test_sweep_deleted_files_total") {
		t.Error("Expected scrape output to contain the sweep deletion counter")
	}
	if !strings.Contains(body, `target="products"`) {
		t.Error("Expected scrape output to carry the target label")
	}
}

// TestCardinalityLimiter tests cardinality limiting
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	// First 3 should be allowed
	if !limiter.Allow("http:GET:/a") {
		t.Error("Expected first label set to be allowed")
	}
	if !limiter.Allow("http:GET:/b") {
		t.Error("Expected second label set to be allowed")
	}
	if !limiter.Allow("http:GET:/c") {
		t.Error("Expected third label set to be allowed")
	}

	// Fourth should be rejected
	if limiter.Allow("http:GET:/d") {
		t.Error("Expected fourth label set to be rejected")
	}

	// Existing labels should still be allowed
	if !limiter.Allow("http:GET:/a") {
		t.Error("Expected existing label set to be allowed")
	}

	// Check count
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

// TestCollector_ConcurrentRecording tests thread-safety
func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	done := make(chan bool)

	// Spawn multiple goroutines recording metrics
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				collector.RecordSweep("products", "success", 1, 1024, 0, time.Millisecond)
				collector.RecordDownload("success", 1024)
				collector.RecordHTTPRequest("GET", "/processes", 200, time.Millisecond, 64)
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Verify we got all sweeps recorded
	deleted := testutil.ToFloat64(collector.sweepMetrics.deletedTotal.WithLabelValues("products"))
	if deleted != 1000 {
		t.Errorf("Expected 1000 deleted files, got %f", deleted)
	}
}
