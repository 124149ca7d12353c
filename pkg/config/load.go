package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, checks that every required key is present in
// the document, validates the result, and returns all problems together in
// a single ValidationError. Absent required keys are reported as
// ErrKeyMissing field errors; a key that is present but holds a zero or
// invalid value is reported as a plain value error instead.
func LoadConfig(path string) (*Config, error) {
	return load(path, false)
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention NCOD_SECTION_FIELD (e.g. NCOD_HUB_PASSWORD overrides
// hub.password) and always take precedence over file-based configuration.
// A .env file in the working directory is loaded first, when present.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Check required keys (an override satisfies a key absent from the file)
//  5. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, envOverrides bool) (*Config, error) {
	if envOverrides {
		// Missing .env is the normal case outside development.
		_ = godotenv.Load()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if envOverrides {
		applyEnvOverrides(&cfg)
	}

	keyErrs := checkRequiredKeys(data, &cfg, envOverrides)
	valErrs := fieldErrors(Validate(&cfg))

	if merged := mergeFieldErrors(keyErrs, valErrs); len(merged) > 0 {
		return nil, ValidationError{Errors: merged}
	}

	return &cfg, nil
}

// requiredKeys returns the dotted keys that must be present in the document
// for the given configuration. The pipeline and lustre sections pull in
// their keys only when active.
func requiredKeys(cfg *Config) []string {
	keys := []string{
		"tmp_logs_dir",
		"operational_NetCDFs_path",
		"product_keep_hours",
		"logs_keep_days",
	}

	if cfg.PipelineEnabled() {
		keys = append(keys,
			"hub.url",
			"hub.user",
			"hub.password",
			"tmp_products_dir",
			"operational_products_keep_days",
			"tmp_products_keep_days",
		)
	}

	if cfg.LustreNetCDFsPath != "" {
		keys = append(keys, "lustre_keep_unit")
	}

	return keys
}

// checkRequiredKeys reports an ErrKeyMissing field error for every required
// key absent from the raw document. With envOverrides set, a key supplied
// through its NCOD_ environment variable counts as present.
func checkRequiredKeys(data []byte, cfg *Config, envOverrides bool) []FieldError {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// Parse errors were already reported by the typed unmarshal.
		return nil
	}

	var errs []FieldError
	for _, key := range requiredKeys(cfg) {
		if keyPresent(raw, key) {
			continue
		}
		if envOverrides && os.Getenv(envVarForKey(key)) != "" {
			continue
		}
		errs = append(errs, missingKey(key))
	}
	return errs
}

// keyPresent walks the raw document along a dotted key path.
func keyPresent(raw map[string]any, dotted string) bool {
	cur := any(raw)
	for _, part := range strings.Split(dotted, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		v, ok := m[part]
		if !ok {
			return false
		}
		cur = v
	}
	return true
}

// envVarForKey maps a dotted config key to its override environment
// variable, e.g. "hub.password" -> "NCOD_HUB_PASSWORD".
func envVarForKey(key string) string {
	return "NCOD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// fieldErrors extracts the field errors from a Validate result.
func fieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	if verr, ok := err.(ValidationError); ok {
		return verr.Errors
	}
	return []FieldError{{Field: "", Message: err.Error()}}
}

// mergeFieldErrors combines missing-key errors with value errors, dropping
// value errors for fields already reported as missing so a single absent
// key yields exactly one error.
func mergeFieldErrors(keyErrs, valErrs []FieldError) []FieldError {
	if len(keyErrs) == 0 {
		return valErrs
	}

	missing := make(map[string]bool, len(keyErrs))
	for _, fe := range keyErrs {
		missing[fe.Field] = true
	}

	merged := make([]FieldError, 0, len(keyErrs)+len(valErrs))
	merged = append(merged, keyErrs...)
	for _, fe := range valErrs {
		if !missing[fe.Field] {
			merged = append(merged, fe)
		}
	}
	return merged
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format NCOD_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Hub overrides
	if val := os.Getenv("NCOD_HUB_URL"); val != "" {
		cfg.Hub.URL = val
	}
	if val := os.Getenv("NCOD_HUB_USER"); val != "" {
		cfg.Hub.User = val
	}
	if val := os.Getenv("NCOD_HUB_PASSWORD"); val != "" {
		cfg.Hub.Password = val
	}
	if val := os.Getenv("NCOD_HUB_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Hub.Timeout = d
		}
	}
	if val := os.Getenv("NCOD_HUB_DOWNLOAD_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Hub.DownloadTimeout = d
		}
	}
	if val := os.Getenv("NCOD_HUB_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Hub.MaxRetries = i
		}
	}

	// Path and retention overrides
	if val := os.Getenv("NCOD_TMP_PRODUCTS_DIR"); val != "" {
		cfg.TmpProductsDir = val
	}
	if val := os.Getenv("NCOD_TMP_LOGS_DIR"); val != "" {
		cfg.TmpLogsDir = val
	}
	if val := os.Getenv("NCOD_OPERATIONAL_NETCDFS_PATH"); val != "" {
		cfg.OperationalNetCDFsPath = val
	}
	if val := os.Getenv("NCOD_LUSTRE_NETCDFS_PATH"); val != "" {
		cfg.LustreNetCDFsPath = val
	}
	if val := os.Getenv("NCOD_PRODUCT_KEEP_HOURS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.ProductKeepHours = i
		}
	}
	if val := os.Getenv("NCOD_LUSTRE_KEEP_UNIT"); val != "" {
		cfg.LustreKeepUnit = val
	}
	if val := os.Getenv("NCOD_LOGS_KEEP_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.LogsKeepDays = i
		}
	}
	if val := os.Getenv("NCOD_OPERATIONAL_PRODUCTS_KEEP_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.OperationalKeepDays = i
		}
	}
	if val := os.Getenv("NCOD_TMP_PRODUCTS_KEEP_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.TmpKeepDays = i
		}
	}
	if val := os.Getenv("NCOD_THREDDS_BASE"); val != "" {
		cfg.ThreddsBase = val
	}

	// Retention overrides
	if val := os.Getenv("NCOD_RETENTION_SCHEDULE"); val != "" {
		cfg.Retention.Schedule = val
	}

	// Pipeline overrides
	if val := os.Getenv("NCOD_PIPELINE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Pipeline.Enabled = &b
		}
	}
	if val := os.Getenv("NCOD_PIPELINE_CONVERTER_COMMAND"); val != "" {
		cfg.Pipeline.ConverterCommand = val
	}
	if val := os.Getenv("NCOD_PIPELINE_CONVERT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Pipeline.ConvertTimeout = d
		}
	}
	if val := os.Getenv("NCOD_PIPELINE_COMPRESSION_LEVEL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Pipeline.CompressionLevel = i
		}
	}

	// Jobs overrides
	if val := os.Getenv("NCOD_JOBS_DB_PATH"); val != "" {
		cfg.Jobs.DBPath = val
	}
	if val := os.Getenv("NCOD_JOBS_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Jobs.Workers = i
		}
	}
	if val := os.Getenv("NCOD_JOBS_KEEP_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Jobs.KeepDays = i
		}
	}

	// Server overrides
	if val := os.Getenv("NCOD_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("NCOD_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("NCOD_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("NCOD_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("NCOD_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}
	if val := os.Getenv("NCOD_SERVER_OPENAPI_PATH"); val != "" {
		cfg.Server.OpenAPIPath = val
	}
	if val := os.Getenv("NCOD_SERVER_WATCH_CONFIG"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.WatchConfig = &b
		}
	}

	// Notify overrides
	if val := os.Getenv("NCOD_NOTIFY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Notify.Enabled = b
		}
	}
	if val := os.Getenv("NCOD_NOTIFY_HOST"); val != "" {
		cfg.Notify.Host = val
	}
	if val := os.Getenv("NCOD_NOTIFY_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Notify.Port = i
		}
	}
	if val := os.Getenv("NCOD_NOTIFY_FROM"); val != "" {
		cfg.Notify.From = val
	}
	if val := os.Getenv("NCOD_NOTIFY_USERNAME"); val != "" {
		cfg.Notify.Username = val
	}
	if val := os.Getenv("NCOD_NOTIFY_PASSWORD"); val != "" {
		cfg.Notify.Password = val
	}

	// Telemetry overrides
	if val := os.Getenv("NCOD_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("NCOD_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("NCOD_TELEMETRY_LOGGING_FILE"); val != "" {
		cfg.Telemetry.Logging.File = val
	}
	if val := os.Getenv("NCOD_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("NCOD_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv("NCOD_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("NCOD_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("NCOD_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}
