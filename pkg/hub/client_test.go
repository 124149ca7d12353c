package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
)

const testProduct = "S1A_EW_GRDM_1SDH_20260815T043043_20260815T043143_054321_069D1A_4F21"

func newTestClient(serverURL string, retries int) *Client {
	c := NewClient(config.HubConfig{
		URL:             serverURL,
		User:            "alice",
		Password:        "secret",
		Timeout:         5 * time.Second,
		DownloadTimeout: 5 * time.Second,
		MaxRetries:      retries,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.retryDelay = time.Millisecond
	return c
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantUUID string
		wantErr  error
	}{
		{
			name:     "single match as object",
			response: `{"feed":{"opensearch:totalResults":"1","entry":{"id":"aa11bb22-cc33","title":"` + testProduct + `"}}}`,
			wantUUID: "aa11bb22-cc33",
		},
		{
			name:     "single match as array",
			response: `{"feed":{"opensearch:totalResults":"1","entry":[{"id":"aa11bb22-cc33","title":"` + testProduct + `"}]}}`,
			wantUUID: "aa11bb22-cc33",
		},
		{
			name:     "no match",
			response: `{"feed":{"opensearch:totalResults":"0"}}`,
			wantErr:  ErrNotFound,
		},
		{
			name:     "ambiguous match",
			response: `{"feed":{"opensearch:totalResults":"2","entry":[{"id":"aa11"},{"id":"bb22"}]}}`,
			wantErr:  ErrAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("path = %q, want /search", r.URL.Path)
				}
				if got := r.URL.Query().Get("q"); got != "filename:"+testProduct+"*" {
					t.Errorf("q = %q, want filename:%s*", got, testProduct)
				}
				if got := r.URL.Query().Get("format"); got != "json" {
					t.Errorf("format = %q, want json", got)
				}
				user, pass, ok := r.BasicAuth()
				if !ok || user != "alice" || pass != "secret" {
					t.Errorf("basic auth = %q/%q/%v, want alice/secret", user, pass, ok)
				}
				fmt.Fprint(w, tt.response)
			}))
			defer server.Close()

			uuid, err := newTestClient(server.URL, 0).Resolve(context.Background(), testProduct)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if uuid != tt.wantUUID {
				t.Errorf("Resolve() = %q, want %q", uuid, tt.wantUUID)
			}
		})
	}
}

func TestResolve_RetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"feed":{"entry":{"id":"aa11bb22-cc33"}}}`)
	}))
	defer server.Close()

	uuid, err := newTestClient(server.URL, 3).Resolve(context.Background(), testProduct)
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if uuid != "aa11bb22-cc33" {
		t.Errorf("Resolve() = %q, want aa11bb22-cc33", uuid)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("hub saw %d requests, want 3", got)
	}
}

func TestResolve_AuthFailureNotRetried(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 3).Resolve(context.Background(), testProduct)
	if err == nil {
		t.Fatal("Resolve() with 401 returned nil error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Resolve() error = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", statusErr.StatusCode)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("hub saw %d requests, want 1 (no retry on 4xx)", got)
	}
}

func TestResolve_RetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 2).Resolve(context.Background(), testProduct)
	if err == nil {
		t.Fatal("Resolve() with persistent 500 returned nil error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Resolve() error = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
}

func TestDownload(t *testing.T) {
	var requests atomic.Int32
	archive := []byte("PK\x03\x04 pretend zip payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		wantPath := "/odata/v1/Products('aa11bb22-cc33')/$value"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	client := newTestClient(server.URL, 0)

	dest, err := client.Download(context.Background(), "aa11bb22-cc33", testProduct, dir)
	if err != nil {
		t.Fatalf("Download() failed: %v", err)
	}
	if want := filepath.Join(dir, testProduct+".zip"); dest != want {
		t.Errorf("Download() = %q, want %q", dest, want)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if string(got) != string(archive) {
		t.Errorf("archive content = %q, want %q", got, archive)
	}

	// No partial files left behind.
	partials, err := filepath.Glob(filepath.Join(dir, "*.partial-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(partials) != 0 {
		t.Errorf("partial files left behind: %v", partials)
	}

	// A present archive is reused without touching the hub.
	if _, err := client.Download(context.Background(), "aa11bb22-cc33", testProduct, dir); err != nil {
		t.Fatalf("second Download() failed: %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("hub saw %d requests, want 1 (second call skips)", got)
	}
}

func TestDownload_HubError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such product", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := newTestClient(server.URL, 0).Download(context.Background(), "missing-uuid", testProduct, dir)
	if err == nil {
		t.Fatal("Download() with 404 returned nil error")
	}

	if _, statErr := os.Stat(filepath.Join(dir, testProduct+".zip")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("failed download left an archive file behind")
	}
}

func TestPing(t *testing.T) {
	t.Run("healthy hub", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"feed":{"opensearch:totalResults":"100"}}`)
		}))
		defer server.Close()

		if err := newTestClient(server.URL, 0).Ping(context.Background()); err != nil {
			t.Errorf("Ping() failed: %v", err)
		}
	})

	t.Run("unavailable hub", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		if err := newTestClient(server.URL, 0).Ping(context.Background()); err == nil {
			t.Error("Ping() against 503 returned nil error")
		}
	})
}
