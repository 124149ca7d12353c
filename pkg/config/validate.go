package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrKeyMissing is the sentinel wrapped by every FieldError that reports an
// absent required configuration key. Callers can test for it at any nesting
// level with errors.Is(err, config.ErrKeyMissing).
var ErrKeyMissing = errors.New("required configuration key missing")

// Retention units accepted by lustre_keep_unit.
const (
	UnitHours = "hours"
	UnitDays  = "days"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "hub.url").
	Field string

	// Message is a human-readable error message.
	Message string

	// Err is an optional wrapped sentinel (e.g. ErrKeyMissing).
	Err error
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel error, if any.
func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the individual field errors so that errors.Is can reach
// wrapped sentinels such as ErrKeyMissing.
func (e ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// missingKey builds the FieldError reported for an absent required key.
func missingKey(field string) FieldError {
	return FieldError{
		Field:   field,
		Message: "required key is absent",
		Err:     ErrKeyMissing,
	}
}

// Validate validates the configuration values and returns a ValidationError
// if any rule fails. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// Validate checks values only; detection of absent required keys (as opposed
// to keys present with a zero value) happens in LoadConfig, which sees the
// raw document.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePaths(cfg)...)
	errs = append(errs, validateRetention(cfg)...)
	errs = append(errs, validateHub(cfg)...)
	errs = append(errs, validatePipeline(&cfg.Pipeline)...)
	errs = append(errs, validateJobs(&cfg.Jobs)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePaths validates the storage path settings.
func validatePaths(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.TmpLogsDir == "" {
		errs = append(errs, FieldError{
			Field:   "tmp_logs_dir",
			Message: "must be a non-empty path",
		})
	}
	if cfg.OperationalNetCDFsPath == "" {
		errs = append(errs, FieldError{
			Field:   "operational_NetCDFs_path",
			Message: "must be a non-empty path",
		})
	}
	if cfg.PipelineEnabled() && cfg.TmpProductsDir == "" {
		errs = append(errs, FieldError{
			Field:   "tmp_products_dir",
			Message: "must be a non-empty path when the pipeline is enabled",
		})
	}

	if _, err := url.Parse(cfg.ThreddsBase); err != nil || !strings.HasPrefix(cfg.ThreddsBase, "http") {
		errs = append(errs, FieldError{
			Field:   "thredds_base",
			Message: "must be an absolute http(s) URL",
		})
	}

	return errs
}

// validateRetention validates the retention thresholds and units.
func validateRetention(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.ProductKeepHours <= 0 {
		errs = append(errs, FieldError{
			Field:   "product_keep_hours",
			Message: "must be a positive number of hours",
		})
	}
	if cfg.LogsKeepDays <= 0 {
		errs = append(errs, FieldError{
			Field:   "logs_keep_days",
			Message: "must be a positive number of days",
		})
	}

	if cfg.LustreNetCDFsPath != "" {
		switch cfg.LustreKeepUnit {
		case UnitHours, UnitDays:
		case "":
			errs = append(errs, FieldError{
				Field:   "lustre_keep_unit",
				Message: "must be set to hours or days when lustre_NetCDFs_path is configured",
			})
		default:
			errs = append(errs, FieldError{
				Field:   "lustre_keep_unit",
				Message: fmt.Sprintf("unknown unit %q (expected hours or days)", cfg.LustreKeepUnit),
			})
		}
	} else if cfg.LustreKeepUnit != "" && cfg.LustreKeepUnit != UnitHours && cfg.LustreKeepUnit != UnitDays {
		errs = append(errs, FieldError{
			Field:   "lustre_keep_unit",
			Message: fmt.Sprintf("unknown unit %q (expected hours or days)", cfg.LustreKeepUnit),
		})
	}

	if cfg.PipelineEnabled() {
		if cfg.OperationalKeepDays <= 0 {
			errs = append(errs, FieldError{
				Field:   "operational_products_keep_days",
				Message: "must be a positive number of days",
			})
		}
		if cfg.TmpKeepDays <= 0 {
			errs = append(errs, FieldError{
				Field:   "tmp_products_keep_days",
				Message: "must be a positive number of days",
			})
		}
		if cfg.OperationalKeepDays > 0 && cfg.TmpKeepDays >= cfg.OperationalKeepDays {
			errs = append(errs, FieldError{
				Field:   "tmp_products_keep_days",
				Message: "must be less than operational_products_keep_days",
			})
		}
	}

	return errs
}

// validateHub validates the hub settings. Credentials are only required
// when the pipeline is enabled; sweeps alone never contact the hub.
func validateHub(cfg *Config) []FieldError {
	var errs []FieldError

	if !cfg.PipelineEnabled() {
		return errs
	}

	hub := &cfg.Hub
	if hub.URL == "" {
		errs = append(errs, FieldError{
			Field:   "hub.url",
			Message: "hub URL is required when the pipeline is enabled",
		})
	} else if u, err := url.Parse(hub.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, FieldError{
			Field:   "hub.url",
			Message: fmt.Sprintf("invalid URL %q (expected http or https)", hub.URL),
		})
	}

	if hub.User == "" {
		errs = append(errs, FieldError{
			Field:   "hub.user",
			Message: "hub user is required when the pipeline is enabled",
		})
	}
	if hub.Password == "" {
		errs = append(errs, FieldError{
			Field:   "hub.password",
			Message: "hub password is required when the pipeline is enabled",
		})
	}

	if hub.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "hub.timeout",
			Message: "timeout must be positive",
		})
	}
	if hub.DownloadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "hub.download_timeout",
			Message: "download timeout must be positive",
		})
	}
	if hub.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "hub.max_retries",
			Message: "max retries must be non-negative",
		})
	}

	return errs
}

// validatePipeline validates the pipeline settings.
func validatePipeline(cfg *PipelineConfig) []FieldError {
	var errs []FieldError

	if cfg.ConvertTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "pipeline.convert_timeout",
			Message: "convert timeout must be positive",
		})
	}
	if cfg.CompressionLevel < 0 || cfg.CompressionLevel > 9 {
		errs = append(errs, FieldError{
			Field:   "pipeline.compression_level",
			Message: "compression level must be between 0 and 9",
		})
	}

	return errs
}

// validateJobs validates the job registry settings.
func validateJobs(cfg *JobsConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 1 {
		errs = append(errs, FieldError{
			Field:   "jobs.workers",
			Message: "at least one worker is required",
		})
	}
	if cfg.KeepDays <= 0 {
		errs = append(errs, FieldError{
			Field:   "jobs.keep_days",
			Message: "must be a positive number of days",
		})
	}
	if cfg.DBPath == "" {
		errs = append(errs, FieldError{
			Field:   "jobs.db_path",
			Message: "database path is required",
		})
	}

	return errs
}

// validateServer validates the HTTP server settings.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	if cfg.OpenAPIPath == "" {
		errs = append(errs, FieldError{
			Field:   "server.openapi_path",
			Message: "OpenAPI artifact path is required",
		})
	}

	return errs
}

// validateNotify validates the notification settings.
func validateNotify(cfg *NotifyConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Host == "" {
		errs = append(errs, FieldError{
			Field:   "notify.host",
			Message: "SMTP host is required when notification is enabled",
		})
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "notify.port",
			Message: "SMTP port must be between 1 and 65535",
		})
	}
	if cfg.From == "" {
		errs = append(errs, FieldError{
			Field:   "notify.from",
			Message: "sender address is required when notification is enabled",
		})
	}

	return errs
}

// validateTelemetry validates the telemetry settings.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (expected debug, info, warn or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (expected json, text or console)", cfg.Logging.Format),
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0 and 1",
		})
	}

	return errs
}
