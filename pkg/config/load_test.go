package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfigFile(t, `
tmp_products_dir: "/tmp/ncod/products"
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
lustre_NetCDFs_path: "/lustre/archive/netcdf"
product_keep_hours: 24
lustre_keep_unit: "days"
logs_keep_days: 7
operational_products_keep_days: 14
tmp_products_keep_days: 3

hub:
  url: "https://colhub.met.no"
  user: "ncod"
  password: "secret"
  timeout: "20s"

server:
  listen_address: "0.0.0.0:5000"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.TmpProductsDir != "/tmp/ncod/products" {
		t.Errorf("expected tmp products dir %q, got %q", "/tmp/ncod/products", cfg.TmpProductsDir)
	}
	if cfg.ProductKeepHours != 24 {
		t.Errorf("expected product_keep_hours 24, got %d", cfg.ProductKeepHours)
	}
	if cfg.LustreKeepUnit != UnitDays {
		t.Errorf("expected lustre_keep_unit %q, got %q", UnitDays, cfg.LustreKeepUnit)
	}
	if cfg.LogsKeepDays != 7 {
		t.Errorf("expected logs_keep_days 7, got %d", cfg.LogsKeepDays)
	}
	if cfg.Hub.URL != "https://colhub.met.no" {
		t.Errorf("expected hub URL %q, got %q", "https://colhub.met.no", cfg.Hub.URL)
	}
	if cfg.Hub.Timeout != 20*time.Second {
		t.Errorf("expected hub timeout %v, got %v", 20*time.Second, cfg.Hub.Timeout)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:5000" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:5000", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24
logs_keep_days: 7

pipeline:
  enabled: false
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Retention.Schedule != DefaultSweepSchedule {
		t.Errorf("expected default sweep schedule %q, got %q", DefaultSweepSchedule, cfg.Retention.Schedule)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if cfg.ThreddsBase != DefaultThreddsBase {
		t.Errorf("expected default thredds base %q, got %q", DefaultThreddsBase, cfg.ThreddsBase)
	}
	if cfg.Jobs.Workers != DefaultJobsWorkers {
		t.Errorf("expected default workers %d, got %d", DefaultJobsWorkers, cfg.Jobs.Workers)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected default log level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
  invalid yaml here: [
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_MissingRequiredKeys(t *testing.T) {
	// tmp_logs_dir and logs_keep_days are absent from the document.
	configPath := writeConfigFile(t, `
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24

pipeline:
  enabled: false
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for missing required keys")
	}

	if !errors.Is(err, ErrKeyMissing) {
		t.Errorf("expected ErrKeyMissing in error chain, got: %v", err)
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}

	missing := map[string]bool{}
	for _, fe := range validationErr.Errors {
		if errors.Is(fe, ErrKeyMissing) {
			missing[fe.Field] = true
		}
	}
	for _, field := range []string{"tmp_logs_dir", "logs_keep_days"} {
		if !missing[field] {
			t.Errorf("expected missing-key error for %q, got: %v", field, validationErr.Errors)
		}
	}
}

func TestLoadConfig_MissingKeyReportedOnce(t *testing.T) {
	// logs_keep_days is absent, which also fails the positive-value rule.
	// The missing-key error must win and appear exactly once.
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24

pipeline:
  enabled: false
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for missing logs_keep_days")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}

	count := 0
	for _, fe := range validationErr.Errors {
		if fe.Field == "logs_keep_days" {
			count++
			if !errors.Is(fe, ErrKeyMissing) {
				t.Errorf("expected ErrKeyMissing for logs_keep_days, got: %v", fe)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one error for logs_keep_days, got %d: %v", count, validationErr.Errors)
	}
}

func TestLoadConfig_PresentZeroValueIsValueError(t *testing.T) {
	// product_keep_hours is present but zero. That is a value error, not a
	// missing key.
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 0
logs_keep_days: 7

pipeline:
  enabled: false
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for zero product_keep_hours")
	}
	if errors.Is(err, ErrKeyMissing) {
		t.Errorf("zero value should not report ErrKeyMissing: %v", err)
	}
	if !strings.Contains(err.Error(), "product_keep_hours") {
		t.Errorf("expected product_keep_hours in error, got: %v", err)
	}
}

func TestLoadConfig_PipelineRequiresHubKeys(t *testing.T) {
	// Pipeline defaults to enabled, so the hub credentials and the extra
	// retention keys become required.
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24
logs_keep_days: 7
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for missing pipeline keys")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}

	missing := map[string]bool{}
	for _, fe := range validationErr.Errors {
		if errors.Is(fe, ErrKeyMissing) {
			missing[fe.Field] = true
		}
	}
	for _, field := range []string{
		"hub.url",
		"hub.user",
		"hub.password",
		"tmp_products_dir",
		"operational_products_keep_days",
		"tmp_products_keep_days",
	} {
		if !missing[field] {
			t.Errorf("expected missing-key error for %q, got: %v", field, validationErr.Errors)
		}
	}
}

func TestLoadConfig_LustreRequiresUnit(t *testing.T) {
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
lustre_NetCDFs_path: "/lustre/archive/netcdf"
product_keep_hours: 24
logs_keep_days: 7

pipeline:
  enabled: false
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected error for missing lustre_keep_unit")
	}
	if !errors.Is(err, ErrKeyMissing) {
		t.Errorf("expected ErrKeyMissing for lustre_keep_unit, got: %v", err)
	}
	if !strings.Contains(err.Error(), "lustre_keep_unit") {
		t.Errorf("expected lustre_keep_unit in error, got: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24
logs_keep_days: 7

server:
  listen_address: "127.0.0.1:5000"

pipeline:
  enabled: false

telemetry:
  logging:
    level: "info"
`)

	os.Setenv("NCOD_SERVER_LISTEN_ADDRESS", "0.0.0.0:9090")
	os.Setenv("NCOD_PRODUCT_KEEP_HOURS", "48")
	os.Setenv("NCOD_TELEMETRY_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("NCOD_SERVER_LISTEN_ADDRESS")
		os.Unsetenv("NCOD_PRODUCT_KEEP_HOURS")
		os.Unsetenv("NCOD_TELEMETRY_LOGGING_LEVEL")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q from env, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.ProductKeepHours != 48 {
		t.Errorf("expected product_keep_hours 48 from env, got %d", cfg.ProductKeepHours)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q from env, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_EnvSatisfiesRequiredKey(t *testing.T) {
	// hub.password is deliberately absent from the file and supplied through
	// the environment instead.
	configPath := writeConfigFile(t, `
tmp_products_dir: "/tmp/ncod/products"
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24
logs_keep_days: 7
operational_products_keep_days: 14
tmp_products_keep_days: 3

hub:
  url: "https://colhub.met.no"
  user: "ncod"
`)

	os.Setenv("NCOD_HUB_PASSWORD", "env-secret")
	defer os.Unsetenv("NCOD_HUB_PASSWORD")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Hub.Password != "env-secret" {
		t.Errorf("expected hub password from env, got %q", cfg.Hub.Password)
	}

	// Without env overrides the same file must fail on the absent key.
	if _, err := LoadConfig(configPath); !errors.Is(err, ErrKeyMissing) {
		t.Errorf("expected ErrKeyMissing without env overrides, got: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_TypedParsing(t *testing.T) {
	configPath := writeConfigFile(t, `
tmp_logs_dir: "/tmp/ncod/logs"
operational_NetCDFs_path: "/lustre/operational/netcdf"
product_keep_hours: 24
logs_keep_days: 7

pipeline:
  enabled: false
`)

	os.Setenv("NCOD_SERVER_READ_TIMEOUT", "120s")
	os.Setenv("NCOD_JOBS_WORKERS", "4")
	os.Setenv("NCOD_TELEMETRY_METRICS_ENABLED", "false")
	defer func() {
		os.Unsetenv("NCOD_SERVER_READ_TIMEOUT")
		os.Unsetenv("NCOD_JOBS_WORKERS")
		os.Unsetenv("NCOD_TELEMETRY_METRICS_ENABLED")
	}()

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ReadTimeout != 120*time.Second {
		t.Errorf("expected read timeout %v, got %v", 120*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Jobs.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Jobs.Workers)
	}
	if cfg.MetricsEnabled() {
		t.Error("expected metrics disabled via env override")
	}
}
