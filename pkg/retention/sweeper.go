package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/metrics"
)

// Unit is an explicit file-age unit. Every target states its unit;
// there is no default, because the two historical sweep jobs applied
// the same keep value as hours in one place and days in the other.
type Unit string

const (
	// Hours interprets a keep value as a number of hours.
	Hours Unit = "hours"

	// Days interprets a keep value as a number of days.
	Days Unit = "days"
)

// ParseUnit parses a unit string from configuration.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "hours":
		return Hours, nil
	case "days":
		return Days, nil
	default:
		return "", fmt.Errorf("unknown unit %q (expected hours or days)", s)
	}
}

// Duration converts a count of this unit into a duration.
func (u Unit) Duration(n int) time.Duration {
	if u == Days {
		return time.Duration(n) * 24 * time.Hour
	}
	return time.Duration(n) * time.Hour
}

// Standard target names. They appear as the target label on sweep
// metrics and as arguments to `ncod sweep --target`.
const (
	TargetProducts       = "products"
	TargetLustreProducts = "lustre_products"
	TargetLogs           = "logs"
)

// Target describes one storage root to sweep: files directly under or
// anywhere below Root whose name ends in Suffix and whose modification
// time is older than Keep Units are deleted.
type Target struct {
	// Name identifies the target in logs and metrics.
	Name string

	// Root is the directory tree to sweep.
	Root string

	// Suffix selects the files eligible for deletion, e.g. ".nc".
	// Files with any other name are never touched.
	Suffix string

	// Keep is the maximum file age, in Units.
	Keep int

	// Unit is the unit Keep is expressed in.
	Unit Unit
}

// Validate checks that the target names a root, a suffix, a positive
// keep value and a known unit.
func (t Target) Validate() error {
	if t.Name == "" {
		return errors.New("target name is empty")
	}
	if t.Root == "" {
		return fmt.Errorf("target %s: root is empty", t.Name)
	}
	if t.Suffix == "" {
		return fmt.Errorf("target %s: suffix is empty", t.Name)
	}
	if t.Keep <= 0 {
		return fmt.Errorf("target %s: keep must be positive, got %d", t.Name, t.Keep)
	}
	switch t.Unit {
	case Hours, Days:
		return nil
	default:
		return fmt.Errorf("target %s: unknown unit %q", t.Name, t.Unit)
	}
}

// MaxAge returns the keep threshold as a duration.
func (t Target) MaxAge() time.Duration {
	return t.Unit.Duration(t.Keep)
}

// TargetsFromConfig builds the standard sweep targets from the service
// configuration:
//
//   - products: aged *.nc files under operational_NetCDFs_path, keeping
//     product_keep_hours hours.
//   - lustre_products: aged *.nc files under lustre_NetCDFs_path,
//     reusing the same keep value but applying lustre_keep_unit. The
//     historical sweep jobs disagreed on this unit by a factor of 24,
//     so it is explicit configuration, never inferred. Omitted when no
//     lustre path is configured.
//   - logs: aged *.log files under tmp_logs_dir, keeping
//     logs_keep_days days.
func TargetsFromConfig(cfg *config.Config) ([]Target, error) {
	targets := []Target{
		{
			Name:   TargetProducts,
			Root:   cfg.OperationalNetCDFsPath,
			Suffix: ".nc",
			Keep:   cfg.ProductKeepHours,
			Unit:   Hours,
		},
	}

	if cfg.LustreNetCDFsPath != "" {
		unit, err := ParseUnit(cfg.LustreKeepUnit)
		if err != nil {
			return nil, fmt.Errorf("lustre_keep_unit: %w", err)
		}
		targets = append(targets, Target{
			Name:   TargetLustreProducts,
			Root:   cfg.LustreNetCDFsPath,
			Suffix: ".nc",
			Keep:   cfg.ProductKeepHours,
			Unit:   unit,
		})
	}

	targets = append(targets, Target{
		Name:   TargetLogs,
		Root:   cfg.TmpLogsDir,
		Suffix: ".log",
		Keep:   cfg.LogsKeepDays,
		Unit:   Days,
	})

	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	return targets, nil
}

// Result reports the outcome of sweeping one target.
type Result struct {
	// Target is the target name.
	Target string

	// Scanned is the number of regular files visited.
	Scanned int

	// Matched is the number of visited files carrying the target suffix.
	Matched int

	// DeletedPaths lists the files removed, or in dry-run mode the files
	// that would have been removed.
	DeletedPaths []string

	// ReclaimedBytes is the total size of the files in DeletedPaths.
	ReclaimedBytes int64

	// RootMissing is true when the target root does not exist. The sweep
	// treats a missing root as a no-op, not a failure.
	RootMissing bool

	// DryRun is true when nothing was actually removed.
	DryRun bool

	// Errs collects per-file failures. A failure never aborts the walk.
	Errs []error

	// Duration is how long the target took to sweep.
	Duration time.Duration
}

// Deleted returns the number of files in DeletedPaths.
func (r *Result) Deleted() int {
	return len(r.DeletedPaths)
}

// Err returns the collected per-file failures joined into one error,
// or nil when the target swept cleanly.
func (r *Result) Err() error {
	return errors.Join(r.Errs...)
}

// Options contains optional sweeper settings.
type Options struct {
	// DryRun reports the files a sweep would delete without removing
	// anything.
	DryRun bool

	// Logger receives per-target sweep logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Collector receives sweep metrics and per-root storage usage.
	// Optional.
	Collector *metrics.Collector

	// Now overrides the clock used for age comparison. Used by tests.
	Now func() time.Time
}

// Sweeper deletes aged files from the configured storage roots. The
// NetCDF archives grow without bound as conversions run, so the sweeps
// are the only thing standing between the service and a full disk.
//
// A sweep may overlap a concurrent sweep of the same root (a second
// `ncod sweep` next to the serve scheduler, say). Losing the race on an
// individual file is harmless: deleting an already-missing file is not
// an error.
type Sweeper struct {
	targets   []Target
	dryRun    bool
	logger    *slog.Logger
	collector *metrics.Collector
	now       func() time.Time
}

// NewSweeper creates a sweeper over the given targets.
func NewSweeper(targets []Target, opts Options) *Sweeper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := opts.Collector
	if collector == nil {
		collector = metrics.NewCollector(metrics.Config{}, nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Sweeper{
		targets:   targets,
		dryRun:    opts.DryRun,
		logger:    logger.With("component", "retention"),
		collector: collector,
		now:       now,
	}
}

// Targets returns the targets this sweeper covers.
func (s *Sweeper) Targets() []Target {
	return s.targets
}

// Sweep walks every target and deletes its aged files. Per-file
// failures are collected in the target's Result and never abort the
// sweep; the returned error is non-nil only when the context is
// cancelled, in which case the results cover the targets finished so
// far.
func (s *Sweeper) Sweep(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(s.targets))

	for _, t := range s.targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, s.sweepTarget(ctx, t))
	}

	return results, nil
}

// sweepTarget walks one target root and deletes files matching the
// suffix whose age strictly exceeds the keep threshold. Files exactly
// at the threshold are kept.
func (s *Sweeper) sweepTarget(ctx context.Context, t Target) Result {
	start := time.Now()
	res := Result{Target: t.Name, DryRun: s.dryRun}

	if err := t.Validate(); err != nil {
		res.Errs = append(res.Errs, err)
		res.Duration = time.Since(start)
		return res
	}

	if _, err := os.Stat(t.Root); errors.Is(err, fs.ErrNotExist) {
		res.RootMissing = true
		res.Duration = time.Since(start)
		s.logger.Debug("sweep root missing, nothing to do",
			"target", t.Name,
			"root", t.Root,
		)
		return res
	}

	now := s.now()
	cutoff := now.Add(-t.MaxAge())

	// Usage accounting covers the files still on disk when the sweep
	// finishes: kept files, plus in dry-run mode the would-be deletions.
	var (
		usageFiles   int
		usageBytes   int64
		oldestMod    time.Time
		removeErrors int
	)
	trackUsage := func(info fs.FileInfo) {
		usageFiles++
		usageBytes += info.Size()
		if oldestMod.IsZero() || info.ModTime().Before(oldestMod) {
			oldestMod = info.ModTime()
		}
	}

	walkErr := filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can vanish between listing and visiting when a
			// concurrent sweep or the pipeline cleanup gets there first.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			res.Errs = append(res.Errs, fmt.Errorf("walk %s: %w", path, err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		res.Scanned++
		if !strings.HasSuffix(d.Name(), t.Suffix) {
			return nil
		}
		res.Matched++

		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			res.Errs = append(res.Errs, fmt.Errorf("stat %s: %w", path, err))
			return nil
		}

		if !info.ModTime().Before(cutoff) {
			trackUsage(info)
			return nil
		}

		age := now.Sub(info.ModTime())
		if s.dryRun {
			s.logger.Info("would remove aged file",
				"target", t.Name,
				"path", path,
				"age", age,
				"size_bytes", info.Size(),
			)
			res.DeletedPaths = append(res.DeletedPaths, path)
			res.ReclaimedBytes += info.Size()
			trackUsage(info)
			return nil
		}

		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			removeErrors++
			res.Errs = append(res.Errs, fmt.Errorf("remove %s: %w", path, err))
			trackUsage(info)
			return nil
		}

		s.logger.Debug("removed aged file",
			"target", t.Name,
			"path", path,
			"age", age,
			"size_bytes", info.Size(),
		)
		res.DeletedPaths = append(res.DeletedPaths, path)
		res.ReclaimedBytes += info.Size()
		return nil
	})
	if walkErr != nil {
		res.Errs = append(res.Errs, walkErr)
	}

	res.Duration = time.Since(start)

	var oldestAge time.Duration
	if usageFiles > 0 {
		oldestAge = now.Sub(oldestMod)
	}
	s.collector.UpdateStorageUsage(t.Name, usageFiles, usageBytes, oldestAge)

	if !s.dryRun {
		status := "success"
		if len(res.Errs) > 0 {
			status = "error"
		}
		s.collector.RecordSweep(t.Name, status, res.Deleted(), res.ReclaimedBytes, removeErrors, res.Duration)
	}

	s.logger.Info("sweep completed",
		"target", t.Name,
		"root", t.Root,
		"keep", t.Keep,
		"unit", string(t.Unit),
		"scanned", res.Scanned,
		"matched", res.Matched,
		"deleted", res.Deleted(),
		"reclaimed_bytes", res.ReclaimedBytes,
		"errors", len(res.Errs),
		"dry_run", s.dryRun,
		"duration", res.Duration,
	)

	return res
}
