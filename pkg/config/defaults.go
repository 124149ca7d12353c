package config

import "time"

// Default values for configuration fields.
const (
	// Hub defaults
	DefaultHubTimeout         = 30 * time.Second
	DefaultHubDownloadTimeout = 1 * time.Hour
	DefaultHubMaxRetries      = 3

	// THREDDS defaults
	DefaultThreddsBase = "https://nbstds.met.no/thredds/dodsC"

	// Retention defaults
	DefaultSweepSchedule = "0 * * * *"

	// Pipeline defaults
	DefaultConverterCommand = "safe_to_netcdf"
	DefaultConvertTimeout   = 30 * time.Minute
	DefaultCompressionLevel = 1

	// Jobs defaults
	DefaultJobsDBPath   = "data/jobs.db"
	DefaultJobsWorkers  = 1
	DefaultJobsKeepDays = 30

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:5000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 45 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultOpenAPIPath     = "data/openapi.json"

	// Notify defaults
	DefaultSMTPPort = 25

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingMaxSizeMB  = 100
	DefaultLoggingMaxBackups = 3
	DefaultLoggingMaxAgeDays = 28
	DefaultMetricsPath       = "/metrics"
	DefaultTracingSampling   = 1.0
)

// ApplyDefaults fills in default values for all configuration fields that
// were not set. Required fields (paths, retention values, hub credentials)
// deliberately have no defaults; their absence is reported by LoadConfig.
func ApplyDefaults(cfg *Config) {
	// Hub defaults
	if cfg.Hub.Timeout == 0 {
		cfg.Hub.Timeout = DefaultHubTimeout
	}
	if cfg.Hub.DownloadTimeout == 0 {
		cfg.Hub.DownloadTimeout = DefaultHubDownloadTimeout
	}
	if cfg.Hub.MaxRetries == 0 {
		cfg.Hub.MaxRetries = DefaultHubMaxRetries
	}

	// THREDDS defaults
	if cfg.ThreddsBase == "" {
		cfg.ThreddsBase = DefaultThreddsBase
	}

	// Retention defaults
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultSweepSchedule
	}

	// Pipeline defaults
	if cfg.Pipeline.ConverterCommand == "" {
		cfg.Pipeline.ConverterCommand = DefaultConverterCommand
	}
	if cfg.Pipeline.ConvertTimeout == 0 {
		cfg.Pipeline.ConvertTimeout = DefaultConvertTimeout
	}
	if cfg.Pipeline.CompressionLevel == 0 {
		cfg.Pipeline.CompressionLevel = DefaultCompressionLevel
	}

	// Jobs defaults
	if cfg.Jobs.DBPath == "" {
		cfg.Jobs.DBPath = DefaultJobsDBPath
	}
	if cfg.Jobs.Workers == 0 {
		cfg.Jobs.Workers = DefaultJobsWorkers
	}
	if cfg.Jobs.KeepDays == 0 {
		cfg.Jobs.KeepDays = DefaultJobsKeepDays
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.OpenAPIPath == "" {
		cfg.Server.OpenAPIPath = DefaultOpenAPIPath
	}

	// Notify defaults
	if cfg.Notify.Port == 0 {
		cfg.Notify.Port = DefaultSMTPPort
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.MaxSizeMB == 0 {
		cfg.Telemetry.Logging.MaxSizeMB = DefaultLoggingMaxSizeMB
	}
	if cfg.Telemetry.Logging.MaxBackups == 0 {
		cfg.Telemetry.Logging.MaxBackups = DefaultLoggingMaxBackups
	}
	if cfg.Telemetry.Logging.MaxAgeDays == 0 {
		cfg.Telemetry.Logging.MaxAgeDays = DefaultLoggingMaxAgeDays
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampling
	}
}
