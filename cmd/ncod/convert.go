package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/cli"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/hub"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/notify"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/pipeline"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/logging"
)

var convertFlags struct {
	products string
	email    string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Download and convert products from the command line",
	Long: `Run the safe-to-netcdf pipeline once, without going through the API.

Products already in reach of the operational NetCDF archive are served from
there; everything else is downloaded from the hub and converted. The
resulting OPeNDAP links are printed one per line on stdout.

Examples:
  # Convert two products
  ncod convert --products S1A_IW_GRDH_...,S2B_MSIL1C_...

  # Convert and email the links when done
  ncod convert --products S1A_IW_GRDH_... --email user@met.no`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertFlags.products, "products", "p", "", "comma separated product names (required)")
	convertCmd.Flags().StringVar(&convertFlags.email, "email", "", "email the links to this address when done")
	_ = convertCmd.MarkFlagRequired("products")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := setupLogging(cfg)
	if err != nil {
		return cli.NewCommandError("convert", err)
	}
	defer log.Shutdown()
	logger := log.Slog()

	products := splitProducts(convertFlags.products)
	if len(products) == 0 {
		return cli.NewCommandError("convert", errors.New("no product names given"))
	}
	if !cfg.PipelineEnabled() {
		return cli.NewCommandError("convert", errors.New("conversion pipeline is disabled in the configuration"))
	}

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	hubClient := hub.NewClient(cfg.Hub, logger)

	runLog, err := logging.NewRunLog(cfg.TmpLogsDir)
	if err != nil {
		logger.Warn("run log unavailable", "error", err)
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
		Logger: logger,
		RunLog: runLog,
	})

	// One Run call per product so the progress reporter has something
	// to count.
	progress := cli.NewBatchProgress(os.Stderr, len(products))

	var links, failures []string
	for _, name := range products {
		progress.StartItem(name)
		result, err := runner.Run(ctx, []string{name})
		if err != nil {
			progress.EndItem(err)
			_ = runLog.Close()
			return cli.NewCommandError("convert", err)
		}
		links = append(links, result.Links...)
		failures = append(failures, result.Failures...)
		if len(result.Failures) > 0 {
			progress.EndItem(errors.New("conversion failed"))
		} else {
			progress.EndItem(nil)
		}
	}
	progress.Finish()
	_ = runLog.Close()

	for _, link := range links {
		fmt.Println(link)
	}
	for _, name := range failures {
		fmt.Fprintf(os.Stderr, "failed: %s\n", name)
	}

	if convertFlags.email != "" {
		if err := emailLinks(ctx, cfg, logger, runLog, links, failures); err != nil {
			return cli.NewCommandError("convert", err)
		}
	}

	if len(failures) > 0 {
		return cli.NewCommandError("convert", fmt.Errorf("%d of %d products failed", len(failures), len(products)))
	}
	return nil
}

func emailLinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, runLog *logging.RunLog, links, failures []string) error {
	mailer, err := notify.NewMailer(cfg.Notify, logger)
	if err != nil {
		return err
	}
	if !mailer.Enabled() {
		fmt.Fprintln(os.Stderr, "email notification is disabled in the configuration, not sending")
		return nil
	}

	body, err := notify.BuildMessage(notify.MessageParams{
		Links:               links,
		Failures:            failures,
		OperationalKeepDays: cfg.OperationalKeepDays,
		TmpKeepDays:         cfg.TmpKeepDays,
	})
	if err != nil {
		return err
	}

	var attachments []string
	if runLog.Path() != "" {
		attachments = append(attachments, runLog.Path())
	}
	if err := mailer.Send(ctx, []string{convertFlags.email}, notify.Subject, body, attachments...); err != nil {
		return err
	}
	fmt.Printf("✓ Notification sent to %s\n", convertFlags.email)
	return nil
}

// splitProducts splits a comma separated product list, trimming whitespace
// and dropping empty entries.
func splitProducts(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
