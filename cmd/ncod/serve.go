package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/cli"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/hub"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/jobs"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/notify"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/pipeline"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/retention"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/server"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/health"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/logging"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/metrics"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the NetCDF on-demand API server",
	Long: `Start the NetCDF on-demand API server with the specified configuration.

The server exposes the OGC API Processes interface, runs the job workers
executing safe-to-netcdf conversions, and schedules the retention sweeps.

Examples:
  # Start with default config
  ncod serve

  # Start with custom config
  ncod serve --config /etc/ncod/config.yml

  # Override listen address
  ncod serve --listen 0.0.0.0:5000

  # Validate config without starting the server
  ncod serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	log, err := setupLogging(cfg)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer log.Shutdown()
	logger := log.Slog()

	if serveFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Metrics collector
	collector := metrics.NewCollector(metrics.Config{Enabled: cfg.MetricsEnabled()}, nil)

	// Trace export
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to set up tracing: %w", err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("trace exporter shutdown failed", "error", err)
		}
	}()
	if tracer.Enabled() {
		fmt.Printf("✓ Trace export enabled (%s)\n", cfg.Telemetry.Tracing.Endpoint)
	}

	// Hub client and notification mailer
	hubClient := hub.NewClient(cfg.Hub, logger)

	mailer, err := notify.NewMailer(cfg.Notify, logger)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to set up email notification: %w", err))
	}
	if mailer.Enabled() {
		fmt.Printf("✓ Email notification enabled (%s)\n", cfg.Notify.Host)
	}

	// Job registry
	store, err := jobs.NewStore(jobs.StoreConfig{Path: cfg.Jobs.DBPath})
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to open job registry: %w", err))
	}
	defer store.Close()
	fmt.Printf("✓ Job registry opened (%s)\n", cfg.Jobs.DBPath)

	execute := newExecuteFunc(hubClient, collector, tracer, mailer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Job workers
	runner := jobs.NewRunner(store, execute, cfg.Jobs.Workers, jobs.RunnerOptions{
		Logger:    logger,
		Collector: collector,
	})
	if err := runner.Start(ctx); err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to start job runner: %w", err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer stopCancel()
		if err := runner.Stop(stopCtx); err != nil {
			logger.Warn("job runner stopped uncleanly", "error", err)
		}
	}()
	fmt.Printf("✓ Job runner started (%d workers)\n", cfg.Jobs.Workers)

	// Retention sweeps
	targets, err := retention.TargetsFromConfig(cfg)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("invalid retention configuration: %w", err))
	}
	sweeper := retention.NewSweeper(targets, retention.Options{
		Logger:    logger,
		Collector: collector,
	})
	scheduler := retention.NewScheduler(sweeper, cfg.Retention.Schedule, logger)
	scheduler.AfterSweep("job_registry", func(ctx context.Context) error {
		keep := time.Duration(cfg.Jobs.KeepDays) * 24 * time.Hour
		pruned, err := store.PruneOlderThan(ctx, keep)
		if err != nil {
			return err
		}
		if pruned > 0 {
			logger.Info("pruned finished jobs", "count", pruned, "keep_days", cfg.Jobs.KeepDays)
		}
		return nil
	})
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to start retention scheduler: %w", err))
	}
	defer scheduler.Stop()
	if next := scheduler.NextRun(); next != nil {
		fmt.Printf("✓ Retention sweeps scheduled (%s, next at %s)\n",
			cfg.Retention.Schedule, next.Format(time.RFC3339))
	}

	// Health checks
	checker := health.New(5 * time.Second)
	checker.RegisterCheck("jobs_db", health.DatabaseCheck(store.DB()))
	if cfg.PipelineEnabled() {
		checker.RegisterCheck("tmp_storage", health.DirectoryCheck(cfg.TmpProductsDir))
		checker.RegisterCheck("hub", health.ServiceCheck(hubClient))
	}
	checker.RegisterCheck("retention_scheduler", func(ctx context.Context) error {
		if !scheduler.IsRunning() {
			return errors.New("retention scheduler is not running")
		}
		return nil
	})

	// HTTP server
	srv, err := server.NewServer(cfg, store, runner, execute, server.Options{
		Logger:    logger,
		Collector: collector,
		Checker:   checker,
		Build: server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		},
	})
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to create server: %w", err))
	}
	if cfg.Server.OpenAPIPath != "" {
		fmt.Printf("✓ OpenAPI document written to %s\n", cfg.Server.OpenAPIPath)
	}

	// Config watcher
	if cfg.WatchConfigEnabled() {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			logger.Warn("config watcher disabled", "error", err)
		} else {
			go func() {
				err := watcher.Watch(ctx, func() error {
					if err := config.Reload(); err != nil {
						return err
					}
					return srv.RegenerateOpenAPI(config.GetConfig())
				})
				if err != nil && ctx.Err() == nil {
					logger.Warn("config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
			fmt.Println("✓ Watching configuration for changes")
		}
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.MetricsEnabled() {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a termination signal arrives, the context is
	// cancelled or the listener fails, and drains in-flight requests
	// before returning.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// newExecuteFunc builds the job execution function shared by the sync and
// async paths: run the conversion pipeline over the job's products and
// notify the requester when an email address was given.
//
// The configuration is read per run so a config reload applies to the next
// job without a restart.
func newExecuteFunc(hubClient *hub.Client, collector *metrics.Collector, tracer *tracing.Tracer, mailer *notify.Mailer, logger *slog.Logger) jobs.ExecuteFunc {
	return func(ctx context.Context, job *jobs.Job) (links, failures []string, err error) {
		cfg := config.GetConfig()
		if !cfg.PipelineEnabled() {
			return nil, nil, errors.New("conversion pipeline is disabled")
		}

		runLog, err := logging.NewRunLog(cfg.TmpLogsDir)
		if err != nil {
			logger.Warn("run log unavailable", "job_id", job.ID, "error", err)
			runLog = &logging.RunLog{}
		}

		converter := &pipeline.ExecConverter{
			Command:          cfg.Pipeline.ConverterCommand,
			CompressionLevel: cfg.Pipeline.CompressionLevel,
			Timeout:          cfg.Pipeline.ConvertTimeout,
			Output:           runLog.Writer(),
			Logger:           logger,
		}
		runner := pipeline.NewRunner(pipeline.ConfigFromApp(cfg), hubClient, converter, pipeline.Options{
			Logger:    logger,
			Collector: collector,
			Tracer:    tracer,
			RunLog:    runLog,
		})

		result, runErr := runner.Run(ctx, job.Products)
		if closeErr := runLog.Close(); closeErr != nil {
			logger.Warn("run log close failed", "job_id", job.ID, "error", closeErr)
		}
		if runErr != nil {
			return nil, nil, runErr
		}

		// Notification failures never fail the job: the files were served.
		if job.Email != "" && mailer.Enabled() {
			body, buildErr := notify.BuildMessage(notify.MessageParams{
				Links:               result.Links,
				Failures:            result.Failures,
				OperationalKeepDays: cfg.OperationalKeepDays,
				TmpKeepDays:         cfg.TmpKeepDays,
			})
			if buildErr != nil {
				logger.Warn("notification message build failed", "job_id", job.ID, "error", buildErr)
			} else {
				var attachments []string
				if runLog.Path() != "" {
					attachments = append(attachments, runLog.Path())
				}
				if sendErr := mailer.Send(ctx, []string{job.Email}, notify.Subject, body, attachments...); sendErr != nil {
					logger.Warn("notification failed", "job_id", job.ID, "error", sendErr)
				}
			}
		}

		return result.Links, result.Failures, nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("NetCDF on-demand v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("storage roots",
		"tmp_products_dir", cfg.TmpProductsDir,
		"operational_netcdfs_path", cfg.OperationalNetCDFsPath,
	)
	if !cfg.PipelineEnabled() {
		slog.Warn("conversion pipeline is disabled, process execution will be rejected")
	}
}
