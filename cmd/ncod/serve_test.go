package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/hub"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/jobs"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/notify"
)

func TestExecuteFuncPipelineDisabled(t *testing.T) {
	disabled := false
	config.SetConfig(&config.Config{
		Pipeline: config.PipelineConfig{Enabled: &disabled},
	})
	t.Cleanup(func() { config.SetConfig(nil) })

	execute := newExecuteFunc(nil, nil, nil, nil, discardLogger())

	_, _, err := execute(context.Background(), &jobs.Job{Products: []string{"S1A_TEST"}})
	if err == nil || !strings.Contains(err.Error(), "pipeline is disabled") {
		t.Errorf("expected pipeline disabled error, got %v", err)
	}
}

func TestExecuteFuncSkipsUnsupportedProducts(t *testing.T) {
	cfg := &config.Config{
		TmpProductsDir: t.TempDir(),
		TmpLogsDir:     t.TempDir(),
	}
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })

	logger := discardLogger()
	mailer, err := notify.NewMailer(config.NotifyConfig{}, logger)
	if err != nil {
		t.Fatalf("NewMailer() returned error: %v", err)
	}
	hubClient := hub.NewClient(config.HubConfig{URL: "http://127.0.0.1:0"}, logger)

	execute := newExecuteFunc(hubClient, nil, nil, mailer, logger)

	links, failures, err := execute(context.Background(), &jobs.Job{
		Products: []string{"NOAA_NOT_A_SAFE_PRODUCT"},
	})
	if err != nil {
		t.Fatalf("execute returned error: %v", err)
	}
	if len(links) != 0 || len(failures) != 0 {
		t.Errorf("unsupported product should be skipped, got links=%v failures=%v", links, failures)
	}

	// The run log records the skip for the notification email.
	entries, err := os.ReadDir(cfg.TmpLogsDir)
	if err != nil {
		t.Fatalf("failed to read run log dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d run log files, want 1", len(entries))
	}
	content, err := os.ReadFile(filepath.Join(cfg.TmpLogsDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}
	if !strings.Contains(string(content), "does not begin with S1 or S2") {
		t.Errorf("run log should record the skipped product, got:\n%s", content)
	}
}
