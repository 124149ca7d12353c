// Package retention deletes aged files from the NetCDF archives and
// the log directory.
//
// # Targets
//
// A sweep covers up to three targets built from the configuration:
//
//   - products: *.nc under operational_NetCDFs_path, older than
//     product_keep_hours hours
//   - lustre_products: *.nc under lustre_NetCDFs_path, older than
//     product_keep_hours in the unit named by lustre_keep_unit
//   - logs: *.log under tmp_logs_dir, older than logs_keep_days days
//
// Ages compare a file's modification time against the sweep clock. A
// file exactly at the threshold is kept; only strictly older files are
// deleted. Files whose names do not carry the target suffix are never
// touched, whatever their age.
//
// # Units
//
// Every target carries an explicit Unit (hours or days). The keep
// value for the lustre target is the same product_keep_hours number as
// the operational target, but its unit comes from lustre_keep_unit:
// the two cron jobs this package replaces applied that number as hours
// in one script and days in the other, so the unit is configuration,
// never inferred.
//
// # Basic Usage
//
//	targets, err := retention.TargetsFromConfig(cfg)
//	if err != nil {
//	    return err
//	}
//
//	sweeper := retention.NewSweeper(targets, retention.Options{
//	    Logger:    logger,
//	    Collector: collector,
//	})
//
//	// One-shot sweep (the `ncod sweep` command)
//	results, err := sweeper.Sweep(ctx)
//
//	// Periodic sweeps inside the server
//	scheduler := retention.NewScheduler(sweeper, cfg.Retention.Schedule, logger)
//	if err := scheduler.Start(ctx); err != nil {
//	    return err
//	}
//	defer scheduler.Stop()
//
// # Failure Handling
//
// Per-file failures (permission errors, files vanishing mid-walk) are
// collected in the target's Result and never abort the sweep. Removing
// a file that is already gone is not an error: overlapping sweeps of
// the same root lose that race harmlessly. A missing target root is a
// no-op result, not a failure, so the sweep can be configured before
// the archive directories exist.
//
// # Dry Runs
//
// Options.DryRun reports every file a sweep would delete without
// removing anything. `ncod sweep --dry-run` uses this to preview a
// configuration change.
package retention
