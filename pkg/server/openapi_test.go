package server

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
)

func TestBuildOpenAPI(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ListenAddress = "0.0.0.0:8080"

	doc := BuildOpenAPI(cfg, "1.4.0")

	info, _ := doc["info"].(map[string]any)
	if info["version"] != "1.4.0" {
		t.Errorf("info.version = %v, want 1.4.0", info["version"])
	}

	servers, _ := doc["servers"].([]any)
	if len(servers) != 1 {
		t.Fatalf("servers = %v", servers)
	}
	if url := servers[0].(map[string]any)["url"]; url != "http://0.0.0.0:8080" {
		t.Errorf("server url = %v", url)
	}

	paths, _ := doc["paths"].(map[string]any)
	for _, want := range []string{
		"/", "/conformance", "/openapi",
		"/processes", "/processes/{processID}", "/processes/{processID}/execution",
		"/jobs", "/jobs/{jobID}", "/jobs/{jobID}/results",
		"/health", "/health/live", "/health/ready", "/health/version",
		"/metrics",
	} {
		if _, ok := paths[want]; !ok {
			t.Errorf("paths missing %s", want)
		}
	}

	// Dismissal is a delete on the job resource.
	jobPath, _ := paths["/jobs/{jobID}"].(map[string]any)
	if _, ok := jobPath["delete"]; !ok {
		t.Error("DELETE /jobs/{jobID} not described")
	}

	execution, _ := paths["/processes/{processID}/execution"].(map[string]any)
	post, _ := execution["post"].(map[string]any)
	if post["requestBody"] == nil {
		t.Error("Execution request body not described")
	}
}

func TestBuildOpenAPIDefaultVersion(t *testing.T) {
	doc := BuildOpenAPI(&config.Config{}, "")

	info, _ := doc["info"].(map[string]any)
	if info["version"] != "dev" {
		t.Errorf("info.version = %v, want dev", info["version"])
	}
}

func TestMarshalOpenAPI(t *testing.T) {
	data, err := MarshalOpenAPI(BuildOpenAPI(&config.Config{}, "dev"))
	if err != nil {
		t.Fatalf("MarshalOpenAPI failed: %v", err)
	}

	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("Document should end with a newline")
	}

	var round map[string]any
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("Document is not valid JSON: %v", err)
	}
	if round["openapi"] != "3.0.3" {
		t.Errorf("openapi = %v, want 3.0.3", round["openapi"])
	}
}

func TestWriteOpenAPI(t *testing.T) {
	t.Run("creates nested directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "api", "openapi.json")

		if err := WriteOpenAPI(path, []byte("{}\n")); err != nil {
			t.Fatalf("WriteOpenAPI failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Artifact missing: %v", err)
		}
		if string(data) != "{}\n" {
			t.Errorf("Content = %q", data)
		}
	})

	t.Run("replaces an existing artifact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.json")

		if err := WriteOpenAPI(path, []byte("first")); err != nil {
			t.Fatalf("First write failed: %v", err)
		}
		if err := WriteOpenAPI(path, []byte("second")); err != nil {
			t.Fatalf("Second write failed: %v", err)
		}

		data, _ := os.ReadFile(path)
		if string(data) != "second" {
			t.Errorf("Content = %q, want the replacement", data)
		}

		// No temp droppings left behind.
		entries, _ := os.ReadDir(filepath.Dir(path))
		if len(entries) != 1 {
			t.Errorf("Directory should hold only the artifact, got %d entries", len(entries))
		}
	})
}
