package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/cli"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "ncod",
	Short: "NetCDF on-demand - serve Copernicus products as NetCDF over OGC API Processes",
	Long: `NetCDF on-demand serves Copernicus satellite products as NetCDF files.

It exposes an OGC API Processes interface with a single process, safe-to-netcdf,
that takes a list of SAFE product names and answers with OPeNDAP links:
  - Products already in the operational NetCDF archive are served directly
  - Everything else is downloaded from the Colhub archive and converted
  - Requesters can be notified by email when their batch finishes
  - Scheduled sweeps keep tmp, operational and log storage within retention

For more information, visit: https://github.com/NasjonaltBakkeSegment/NetCDF-on-demand`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (json, text, console)")
}

// loadConfig loads the configuration singleton from the --config path and
// applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Telemetry.Logging.Format = logFormat
	}
	return cfg, nil
}

// setupLogging builds the service logger from the configuration and installs
// it as the slog default. The caller owns the returned logger and should
// defer its Shutdown.
func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		RedactSecrets: true,
		File:          cfg.Telemetry.Logging.File,
		MaxSizeMB:     cfg.Telemetry.Logging.MaxSizeMB,
		MaxBackups:    cfg.Telemetry.Logging.MaxBackups,
		MaxAgeDays:    cfg.Telemetry.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(log.Slog())
	return log, nil
}
