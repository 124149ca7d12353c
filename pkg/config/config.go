package config

import "time"

// Config is the root configuration for the NetCDF-on-demand service.
// It is loaded from config/config.yml, a file shared with the operational
// tooling around the NBS archive, so the historical flat keys are kept
// verbatim at the top level alongside the structured service sections.
type Config struct {
	// Hub is the Colhub (DHuS) archive endpoint and credentials used to
	// resolve and download SAFE products.
	Hub HubConfig `yaml:"hub"`

	// TmpProductsDir is the working directory for downloaded archives and
	// on-demand NetCDF copies. Required when the pipeline is enabled.
	TmpProductsDir string `yaml:"tmp_products_dir"`

	// TmpLogsDir is the directory holding per-run log files. The log
	// retention sweep deletes aged *.log files from here. Required.
	TmpLogsDir string `yaml:"tmp_logs_dir"`

	// OperationalNetCDFsPath is the root of the operational NetCDF archive
	// (TYPE/year/month/day[/beam] layout). The product retention sweep
	// deletes aged *.nc files from here. Required.
	OperationalNetCDFsPath string `yaml:"operational_NetCDFs_path"`

	// LustreNetCDFsPath is an optional second NetCDF root on lustre
	// storage, swept with the same keep value as the operational root.
	LustreNetCDFsPath string `yaml:"lustre_NetCDFs_path"`

	// ProductKeepHours is the maximum age, in hours, of *.nc files under
	// OperationalNetCDFsPath before a sweep removes them. Required.
	ProductKeepHours int `yaml:"product_keep_hours"`

	// LustreKeepUnit is the unit applied to ProductKeepHours for the
	// lustre sweep: "hours" or "days". The two historical sweep scripts
	// disagreed on this by a factor of 24, so the unit must be stated
	// explicitly; it is required whenever LustreNetCDFsPath is set.
	LustreKeepUnit string `yaml:"lustre_keep_unit"`

	// LogsKeepDays is the maximum age, in days, of *.log files under
	// TmpLogsDir before a sweep removes them. Required.
	LogsKeepDays int `yaml:"logs_keep_days"`

	// OperationalKeepDays is how long NetCDF files stay in the operational
	// archive. Together with TmpKeepDays it decides whether an existing
	// operational file is copied into tmp storage or served from the NBS
	// route directly. Required when the pipeline is enabled.
	OperationalKeepDays int `yaml:"operational_products_keep_days"`

	// TmpKeepDays is how long on-demand NetCDF copies stay in tmp storage.
	// Required when the pipeline is enabled.
	TmpKeepDays int `yaml:"tmp_products_keep_days"`

	// ThreddsBase is the base URL of the THREDDS server publishing the
	// NetCDF files over OPeNDAP.
	// Default: https://nbstds.met.no/thredds/dodsC
	ThreddsBase string `yaml:"thredds_base"`

	// Retention configures the scheduled sweeps.
	Retention RetentionConfig `yaml:"retention"`

	// Pipeline configures the SAFE-to-NetCDF conversion pipeline.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Jobs configures the job registry backing async process execution.
	Jobs JobsConfig `yaml:"jobs"`

	// Server configures the HTTP API server.
	Server ServerConfig `yaml:"server"`

	// Notify configures email notification of requesters.
	Notify NotifyConfig `yaml:"notify"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// HubConfig contains the Colhub archive endpoint and HTTP client settings.
type HubConfig struct {
	// URL is the base URL of the hub (e.g. https://colhub.met.no).
	URL string `yaml:"url"`

	// User is the hub account name.
	User string `yaml:"user"`

	// Password is the hub account password. Prefer supplying it through
	// the NCOD_HUB_PASSWORD environment variable over the config file.
	Password string `yaml:"password"`

	// Timeout is the maximum duration of a single metadata request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// DownloadTimeout is the maximum duration of a full archive download.
	// SAFE archives run to several GB, so this is much larger than
	// Timeout. Default: 1h
	DownloadTimeout time.Duration `yaml:"download_timeout"`

	// MaxRetries is the number of retry attempts for failed hub requests.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// RetentionConfig contains the sweep schedule.
type RetentionConfig struct {
	// Schedule is a standard 5-field cron expression controlling when the
	// periodic sweep runs inside `ncod serve`.
	// Default: "0 * * * *" (hourly)
	Schedule string `yaml:"schedule"`
}

// PipelineConfig contains the conversion pipeline settings.
type PipelineConfig struct {
	// Enabled turns the download-and-convert pipeline on. When false the
	// server still runs sweeps but rejects process execution.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// ConverterCommand is the external SAFE-to-NetCDF converter binary,
	// invoked per product with the product name, input/output directories,
	// mission and compression level.
	// Default: "safe_to_netcdf"
	ConverterCommand string `yaml:"converter_command"`

	// ConvertTimeout is the maximum duration of a single conversion.
	// Default: 30m
	ConvertTimeout time.Duration `yaml:"convert_timeout"`

	// CompressionLevel is the NetCDF deflate level passed to the converter.
	// Default: 1
	CompressionLevel int `yaml:"compression_level"`
}

// JobsConfig contains the job registry settings.
type JobsConfig struct {
	// DBPath is the SQLite database file backing the job registry.
	// Default: "data/jobs.db"
	DBPath string `yaml:"db_path"`

	// Workers is the number of concurrent async job executors. The
	// reference deployment processes requests serially.
	// Default: 1
	Workers int `yaml:"workers"`

	// KeepDays is how long finished jobs stay in the registry before the
	// retention schedule prunes them.
	// Default: 30
	KeepDays int `yaml:"keep_days"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address and port the server binds.
	// Format: "host:port". Default: "127.0.0.1:5000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out a response
	// write. It must accommodate synchronous process execution, which can
	// include a full download and conversion.
	// Default: 45m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// OpenAPIPath is where the generated OpenAPI document is written at
	// startup and on config change.
	// Default: "data/openapi.json"
	OpenAPIPath string `yaml:"openapi_path"`

	// WatchConfig regenerates the OpenAPI document and reloads the
	// configuration when the config file changes on disk.
	// Default: true
	WatchConfig *bool `yaml:"watch_config"`
}

// NotifyConfig contains the SMTP settings for requester notification.
type NotifyConfig struct {
	// Enabled turns email notification on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Host and Port identify the SMTP relay.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// From is the sender address.
	From string `yaml:"from"`

	// Username and Password authenticate against the relay when set;
	// unauthenticated relays leave both empty.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains the structured logging settings.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is one of: json, text, console.
	// Default: "json"
	Format string `yaml:"format"`

	// File, when set, duplicates log output into a rotated file.
	File string `yaml:"file"`

	// MaxSizeMB, MaxBackups and MaxAgeDays control rotation of File.
	// Defaults: 100 / 3 / 28
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
	MaxAgeDays int `yaml:"max_age_days"`
}

// MetricsConfig contains the Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint on the API server.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains the OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled turns trace export on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/gRPC collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the collector connection, the usual setup
	// for an in-cluster collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces sampled.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}

// PipelineEnabled reports whether the conversion pipeline is enabled,
// treating an unset value as enabled.
func (c *Config) PipelineEnabled() bool {
	return c.Pipeline.Enabled == nil || *c.Pipeline.Enabled
}

// MetricsEnabled reports whether the metrics endpoint is enabled, treating
// an unset value as enabled.
func (c *Config) MetricsEnabled() bool {
	return c.Telemetry.Metrics.Enabled == nil || *c.Telemetry.Metrics.Enabled
}

// WatchConfigEnabled reports whether config watching is enabled, treating
// an unset value as enabled.
func (c *Config) WatchConfigEnabled() bool {
	return c.Server.WatchConfig == nil || *c.Server.WatchConfig
}
