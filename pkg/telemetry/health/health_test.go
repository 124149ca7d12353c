package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNew tests the creation of a new health checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "default timeout",
			timeout:         0,
			expectedTimeout: 5 * time.Second,
		},
		{
			name:            "custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)

			if checker == nil {
				t.Fatal("expected non-nil checker")
			}

			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}

			if checker.CheckCount() != 0 {
				t.Errorf("expected 0 checks, got %d", checker.CheckCount())
			}
		})
	}
}

// TestRegisterCheck tests registering and replacing health checks.
func TestRegisterCheck(t *testing.T) {
	checker := New(5 * time.Second)

	called := false
	checker.RegisterCheck("storage", func(ctx context.Context) error {
		called = true
		return nil
	})

	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check, got %d", checker.CheckCount())
	}

	check := checker.GetCheck("storage")
	if check == nil {
		t.Fatal("expected non-nil check")
	}

	_ = check(context.Background())
	if !called {
		t.Error("expected check to be called")
	}

	// Registering under the same name replaces
	replaced := false
	checker.RegisterCheck("storage", func(ctx context.Context) error {
		replaced = true
		return nil
	})

	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check after replacement, got %d", checker.CheckCount())
	}

	_ = checker.GetCheck("storage")(context.Background())
	if !replaced {
		t.Error("expected replacement check to be called")
	}
}

// TestUnregisterCheck tests removing health checks.
func TestUnregisterCheck(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("storage", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("hub", func(ctx context.Context) error { return nil })

	checker.UnregisterCheck("storage")

	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check after unregister, got %d", checker.CheckCount())
	}

	if checker.GetCheck("storage") != nil {
		t.Error("expected nil for unregistered check")
	}

	if checker.GetCheck("hub") == nil {
		t.Error("expected remaining check to survive")
	}
}

// TestCheckLiveness tests the liveness check.
func TestCheckLiveness(t *testing.T) {
	checker := New(5 * time.Second)

	status := checker.CheckLiveness(context.Background())

	if status.Status != "ok" {
		t.Errorf("expected status ok, got %q", status.Status)
	}
	if status.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

// TestCheckReadiness tests readiness aggregation.
func TestCheckReadiness(t *testing.T) {
	t.Run("no checks is ready", func(t *testing.T) {
		checker := New(5 * time.Second)

		status := checker.CheckReadiness(context.Background())
		if status.Status != "ready" {
			t.Errorf("expected ready, got %q", status.Status)
		}
	})

	t.Run("all checks passing", func(t *testing.T) {
		checker := New(5 * time.Second)
		checker.RegisterCheck("storage", func(ctx context.Context) error { return nil })
		checker.RegisterCheck("jobstore", func(ctx context.Context) error { return nil })

		status := checker.CheckReadiness(context.Background())

		if status.Status != "ready" {
			t.Errorf("expected ready, got %q", status.Status)
		}
		if len(status.Checks) != 2 {
			t.Fatalf("expected 2 check results, got %d", len(status.Checks))
		}
		if status.Checks["storage"].Status != "ok" {
			t.Errorf("expected storage ok, got %q", status.Checks["storage"].Status)
		}
	})

	t.Run("one failing check degrades", func(t *testing.T) {
		checker := New(5 * time.Second)
		checker.RegisterCheck("storage", func(ctx context.Context) error { return nil })
		checker.RegisterCheck("hub", func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		status := checker.CheckReadiness(context.Background())

		if status.Status != "degraded" {
			t.Errorf("expected degraded, got %q", status.Status)
		}
		if status.Checks["hub"].Status != "unhealthy" {
			t.Errorf("expected hub unhealthy, got %q", status.Checks["hub"].Status)
		}
		if status.Checks["hub"].Message != "connection refused" {
			t.Errorf("expected failure message, got %q", status.Checks["hub"].Message)
		}
		if status.Checks["storage"].Status != "ok" {
			t.Errorf("expected storage still ok, got %q", status.Checks["storage"].Status)
		}
	})

	t.Run("slow check times out", func(t *testing.T) {
		checker := New(50 * time.Millisecond)
		checker.RegisterCheck("hub", func(ctx context.Context) error {
			select {
			case <-time.After(2 * time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		status := checker.CheckReadiness(context.Background())

		if status.Status != "degraded" {
			t.Errorf("expected degraded, got %q", status.Status)
		}
		result := status.Checks["hub"]
		if result.Status != "unhealthy" {
			t.Errorf("expected unhealthy, got %q", result.Status)
		}
	})
}

// TestDirectoryCheck tests the storage root check.
func TestDirectoryCheck(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "existing directory",
			path:    dir,
			wantErr: false,
		},
		{
			name:    "missing directory",
			path:    filepath.Join(dir, "gone"),
			wantErr: true,
		},
		{
			name:    "regular file",
			path:    file,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DirectoryCheck(tt.path)(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("DirectoryCheck(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

type fakeDB struct {
	err error
}

func (f fakeDB) PingContext(ctx context.Context) error { return f.err }

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

// TestDatabaseCheck tests the job store check.
func TestDatabaseCheck(t *testing.T) {
	if err := DatabaseCheck(fakeDB{})(context.Background()); err != nil {
		t.Errorf("expected healthy database, got %v", err)
	}

	wantErr := errors.New("database is locked")
	if err := DatabaseCheck(fakeDB{err: wantErr})(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
}

// TestServiceCheck tests the upstream service check.
func TestServiceCheck(t *testing.T) {
	if err := ServiceCheck(fakePinger{})(context.Background()); err != nil {
		t.Errorf("expected healthy service, got %v", err)
	}

	wantErr := errors.New("503 from hub")
	if err := ServiceCheck(fakePinger{err: wantErr})(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
}

// TestLivenessHandler tests the liveness endpoint.
func TestLivenessHandler(t *testing.T) {
	checker := New(5 * time.Second)
	handler := checker.LivenessHandler()

	t.Run("GET returns ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var status HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if status.Status != "ok" {
			t.Errorf("expected ok, got %q", status.Status)
		}
	})

	t.Run("POST rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("HEAD has no body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodHead, "/health", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("expected empty body, got %d bytes", rec.Body.Len())
		}
	})
}

// TestReadinessHandler tests the readiness endpoint.
func TestReadinessHandler(t *testing.T) {
	t.Run("ready returns 200", func(t *testing.T) {
		checker := New(5 * time.Second)
		checker.RegisterCheck("storage", func(ctx context.Context) error { return nil })

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		checker.ReadinessHandler()(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var status HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if status.Status != "ready" {
			t.Errorf("expected ready, got %q", status.Status)
		}
	})

	t.Run("degraded returns 503", func(t *testing.T) {
		checker := New(5 * time.Second)
		checker.RegisterCheck("hub", func(ctx context.Context) error {
			return errors.New("unreachable")
		})

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		checker.ReadinessHandler()(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}

		var status HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if status.Status != "degraded" {
			t.Errorf("expected degraded, got %q", status.Status)
		}
	})
}

// TestVersionHandler tests the version endpoint.
func TestVersionHandler(t *testing.T) {
	handler := VersionHandler("1.2.0", "abc123", "2026-08-01T00:00:00Z")

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if info.Version != "1.2.0" {
		t.Errorf("expected version 1.2.0, got %q", info.Version)
	}
	if info.Commit != "abc123" {
		t.Errorf("expected commit abc123, got %q", info.Commit)
	}
	if info.GoVersion == "" {
		t.Error("expected go version to be populated")
	}
}
