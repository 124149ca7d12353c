package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/cli"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/retention"
)

var sweepFlags struct {
	target string
	dryRun bool
	output string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the retention sweeps once",
	Long: `Run the retention sweeps once and report what was deleted.

The serve command runs the same sweeps on the configured schedule; this
command is for running them by hand or from an external scheduler.

Examples:
  # Run all sweeps
  ncod sweep

  # Report what would be deleted, without deleting
  ncod sweep --dry-run

  # Sweep only the run logs
  ncod sweep --target logs

  # Machine-readable report
  ncod sweep --output json`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepFlags.target, "target", "", "sweep a single target: products, lustre_products, logs")
	sweepCmd.Flags().BoolVar(&sweepFlags.dryRun, "dry-run", false, "report what would be deleted without deleting")
	sweepCmd.Flags().StringVarP(&sweepFlags.output, "output", "o", "text", "output format: text, json")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := setupLogging(cfg)
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}
	defer log.Shutdown()

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	if err := sweepAndReport(ctx, cfg, log.Slog(), os.Stdout); err != nil {
		return cli.NewCommandError("sweep", err)
	}
	return nil
}

// sweepAndReport runs the sweeps selected by the sweep flags and writes the
// report to w. It returns an error when a target cannot be swept at all;
// per-file failures are reported and joined into the returned error without
// stopping the remaining targets.
func sweepAndReport(ctx context.Context, cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	format, err := cli.ParseOutputFormat(sweepFlags.output)
	if err != nil {
		return err
	}

	targets, err := retention.TargetsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid retention configuration: %w", err)
	}

	if sweepFlags.target != "" {
		var filtered []retention.Target
		for _, t := range targets {
			if t.Name == sweepFlags.target {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("unknown sweep target %q", sweepFlags.target)
		}
		targets = filtered
	}

	sweeper := retention.NewSweeper(targets, retention.Options{
		DryRun: sweepFlags.dryRun,
		Logger: logger,
	})
	results, err := sweeper.Sweep(ctx)
	if err != nil {
		return err
	}

	if format == cli.FormatJSON {
		if err := cli.WriteJSON(w, sweepReports(results)); err != nil {
			return err
		}
	} else {
		printSweepResults(results, w)
	}

	var errs []error
	for i := range results {
		if err := results[i].Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", results[i].Target, err))
		}
	}
	return errors.Join(errs...)
}

func printSweepResults(results []retention.Result, w io.Writer) {
	for i := range results {
		res := &results[i]
		verb := "deleted"
		if res.DryRun {
			verb = "would delete"
		}

		switch {
		case res.RootMissing:
			fmt.Fprintf(w, "- %s: root missing, nothing to do\n", res.Target)
		case res.Deleted() == 0:
			fmt.Fprintf(w, "✓ %s: scanned %d files, nothing old enough\n", res.Target, res.Scanned)
		default:
			fmt.Fprintf(w, "✓ %s: %s %d of %d matching files (%s reclaimed) in %s\n",
				res.Target, verb, res.Deleted(), res.Matched,
				humanize.Bytes(uint64(res.ReclaimedBytes)),
				res.Duration.Round(time.Millisecond))
		}
		if res.DryRun {
			for _, path := range res.DeletedPaths {
				fmt.Fprintf(w, "    %s\n", path)
			}
		}
		if err := res.Err(); err != nil {
			fmt.Fprintf(w, "  warning: %v\n", err)
		}
	}
}

// sweepReport is the JSON shape of one target's sweep outcome.
type sweepReport struct {
	Target         string   `json:"target"`
	DryRun         bool     `json:"dry_run,omitempty"`
	RootMissing    bool     `json:"root_missing,omitempty"`
	Scanned        int      `json:"scanned"`
	Matched        int      `json:"matched"`
	Deleted        int      `json:"deleted"`
	ReclaimedBytes int64    `json:"reclaimed_bytes"`
	DeletedPaths   []string `json:"deleted_paths,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	Duration       string   `json:"duration"`
}

func sweepReports(results []retention.Result) []sweepReport {
	reports := make([]sweepReport, 0, len(results))
	for i := range results {
		res := &results[i]
		report := sweepReport{
			Target:         res.Target,
			DryRun:         res.DryRun,
			RootMissing:    res.RootMissing,
			Scanned:        res.Scanned,
			Matched:        res.Matched,
			Deleted:        res.Deleted(),
			ReclaimedBytes: res.ReclaimedBytes,
			DeletedPaths:   res.DeletedPaths,
			Duration:       res.Duration.Round(time.Millisecond).String(),
		}
		for _, err := range res.Errs {
			report.Errors = append(report.Errors, err.Error())
		}
		reports = append(reports, report)
	}
	return reports
}
