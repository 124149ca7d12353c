// Package config provides configuration management for the NetCDF on demand
// service.
//
// This package handles loading, validating, and managing configuration from
// the service's YAML file with environment variable overrides. It preserves
// the historical flat key names (product_keep_hours, tmp_logs_dir, ...) while
// exposing them through a typed, validated Config.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config/config.yml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config/config.yml")
//
// # Required Keys
//
// A small set of keys has no usable default and must be present in the file
// (or be supplied through the corresponding environment variable):
//
//   - tmp_logs_dir
//   - operational_NetCDFs_path
//   - product_keep_hours
//   - logs_keep_days
//
// When the conversion pipeline is enabled the hub credentials and the
// tmp_products_dir / *_keep_days keys join the list, and when
// lustre_NetCDFs_path is set lustre_keep_unit must say whether its retention
// threshold counts hours or days. A missing key fails loading with an error
// that wraps ErrKeyMissing:
//
//	cfg, err := config.LoadConfig(path)
//	if errors.Is(err, config.ErrKeyMissing) {
//	    // incomplete configuration file
//	}
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention NCOD_SECTION_FIELD.
// For example:
//
//   - NCOD_PRODUCT_KEEP_HOURS overrides product_keep_hours
//   - NCOD_HUB_PASSWORD overrides hub.password
//   - NCOD_SERVER_LISTEN_ADDRESS overrides server.listen_address
//
// Environment variables always take precedence over file-based configuration.
// If a .env file exists next to the process it is loaded first, so local
// deployments can keep hub credentials out of the config file.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config/config.yml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// Reload re-reads the same file; the Watcher calls it when the file changes
// on disk. For testing, prefer dependency injection with explicit Config
// instances rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - product_keep_hours: required configuration key missing
//	  - lustre_keep_unit: must be "hours" or "days"
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	tmp_logs_dir: "/tmp/ncod/logs"
//	operational_NetCDFs_path: "/lustre/operational/netcdf"
//	product_keep_hours: 24
//	logs_keep_days: 7
//
//	hub:
//	  url: "https://colhub.met.no"
//	  user: "ncod"
//	  password: "${NCOD_HUB_PASSWORD}"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config
