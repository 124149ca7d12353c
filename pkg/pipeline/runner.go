package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/config"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/product"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/logging"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/metrics"
	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/telemetry/tracing"
)

// HubClient is the part of the hub client the pipeline uses.
type HubClient interface {
	Resolve(ctx context.Context, name string) (string, error)
	Download(ctx context.Context, uuid, name, dir string) (string, error)
}

// Config contains the pipeline paths and retention windows.
type Config struct {
	// TmpDir is the working directory for archives, SAFE trees and
	// on-demand NetCDF copies.
	TmpDir string

	// OperationalRoot is the operational NetCDF archive root.
	OperationalRoot string

	// ThreddsBase is the OPeNDAP base URL links are built from.
	ThreddsBase string

	// OperationalKeepDays and TmpKeepDays are the two retention windows
	// deciding whether an operational NetCDF is copied into tmp storage
	// or served from the NBS route directly.
	OperationalKeepDays int
	TmpKeepDays         int
}

// ConfigFromApp extracts the pipeline configuration from the service
// configuration.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		TmpDir:              cfg.TmpProductsDir,
		OperationalRoot:     cfg.OperationalNetCDFsPath,
		ThreddsBase:         cfg.ThreddsBase,
		OperationalKeepDays: cfg.OperationalKeepDays,
		TmpKeepDays:         cfg.TmpKeepDays,
	}
}

// Result is the outcome of a batch run.
type Result struct {
	// Links are the OPeNDAP links for every served product.
	Links []string

	// Failures are the product names that could not be served.
	Failures []string
}

// Options contains optional runner dependencies.
type Options struct {
	// Logger receives pipeline logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Collector receives pipeline metrics. Optional.
	Collector *metrics.Collector

	// Tracer creates pipeline spans. Optional.
	Tracer *tracing.Tracer

	// RunLog receives the user-facing sentences attached to the
	// notification email. Optional.
	RunLog *logging.RunLog

	// Now overrides the clock used for file-age decisions. Used by
	// tests.
	Now func() time.Time
}

// Runner executes the per-product pipeline: serve an existing NetCDF
// when one is already in reach, otherwise download the SAFE archive,
// unpack it, convert it and clean up.
type Runner struct {
	cfg       Config
	hub       HubClient
	converter Converter
	logger    *slog.Logger
	collector *metrics.Collector
	tracer    *tracing.Tracer
	runLog    *logging.RunLog
	now       func() time.Time
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg Config, hubClient HubClient, converter Converter, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := opts.Collector
	if collector == nil {
		collector = metrics.NewCollector(metrics.Config{}, nil)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}
	runLog := opts.RunLog
	if runLog == nil {
		runLog = &logging.RunLog{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		cfg:       cfg,
		hub:       hubClient,
		converter: converter,
		logger:    logger.With("component", "pipeline"),
		collector: collector,
		tracer:    tracer,
		runLog:    runLog,
		now:       now,
	}
}

// Run processes a batch of product names. Names not beginning with S1
// or S2 are skipped with a log line. A failing product is recorded and
// never aborts the batch; the returned error is non-nil only for batch
// level problems (unusable tmp directory, cancelled context).
func (r *Runner) Run(ctx context.Context, names []string) (*Result, error) {
	if err := os.MkdirAll(r.cfg.TmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp directory: %w", err)
	}

	result := &Result{}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !product.Supported(name) {
			r.logger.Info("product does not begin with S1 or S2, skipping",
				"product", name,
			)
			r.runLog.Log("%s does not begin with S1 or S2. Skipping.", name)
			continue
		}

		link, err := r.runProduct(ctx, name)
		if err != nil {
			r.logger.Error("product failed",
				"product", name,
				"error", err,
			)
			r.runLog.Log("Could not serve %s: %v.", name, err)
			result.Failures = append(result.Failures, name)
			continue
		}

		result.Links = append(result.Links, link)
	}

	return result, nil
}

// runProduct serves one product and returns its OPeNDAP link.
func (r *Runner) runProduct(ctx context.Context, name string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.product")
	defer span.End()

	p, err := product.Parse(name)
	if err != nil {
		tracing.SetErrorAttributes(span, err, "parse")
		return "", err
	}
	tracing.SetProductAttributes(span, p.Name, p.Mission)

	link, served, err := r.locate(ctx, p)
	if err != nil {
		tracing.SetErrorAttributes(span, err, "locate")
		return "", err
	}
	if served {
		return link, nil
	}

	// The cleanup runs whether or not a stage failed, so a broken run
	// never leaves archives or SAFE trees in tmp storage. Success is
	// then decided by what is on disk.
	var stageErr error
	if err := r.fetch(ctx, p); err != nil {
		stageErr = err
	} else if err := r.unpack(ctx, p); err != nil {
		stageErr = err
	} else if err := r.convert(ctx, p); err != nil {
		stageErr = err
	}

	r.cleanup(ctx, p)

	if _, err := os.Stat(p.TmpNetCDFPath(r.cfg.TmpDir)); err == nil {
		r.logger.Info("product converted",
			"product", p.Name,
		)
		r.runLog.Log("Converted %s to NetCDF.", p.Name)
		return p.OndemandLink(r.cfg.ThreddsBase), nil
	}

	if stageErr != nil {
		tracing.SetErrorAttributes(span, stageErr, "pipeline")
		return "", stageErr
	}
	err = fmt.Errorf("conversion produced no NetCDF for %s", p.Name)
	tracing.SetErrorAttributes(span, err, "convert")
	return "", err
}

// locate serves products whose NetCDF already exists. A fresh
// operational file is copied into tmp storage and served over the
// on-demand route; an aging one is served from the NBS route it will
// stay on. An existing tmp copy is touched, restarting its retention
// window. served reports whether a link was produced.
func (r *Runner) locate(ctx context.Context, p *product.Product) (link string, served bool, err error) {
	_, span := r.tracer.Start(ctx, "pipeline.locate")
	defer span.End()
	start := time.Now()
	defer func() {
		r.collector.RecordPipelineStage("locate", time.Since(start))
	}()

	opPath := p.OperationalPath(r.cfg.OperationalRoot)
	info, statErr := os.Stat(opPath)
	if statErr == nil {
		ageDays := int(r.now().Sub(info.ModTime()).Hours() / 24)
		if ageDays < r.cfg.OperationalKeepDays-r.cfg.TmpKeepDays {
			if err := copyFile(opPath, p.TmpNetCDFPath(r.cfg.TmpDir)); err != nil {
				return "", false, fmt.Errorf("copy operational NetCDF: %w", err)
			}
			r.logger.Info("operational NetCDF copied into tmp storage",
				"product", p.Name,
				"age_days", ageDays,
			)
			r.runLog.Log("%s.nc already exists in the operational archive.", p.Name)
			return p.OndemandLink(r.cfg.ThreddsBase), true, nil
		}

		r.logger.Info("serving NetCDF from the operational archive",
			"product", p.Name,
			"age_days", ageDays,
		)
		r.runLog.Log("%s.nc already exists in the operational archive.", p.Name)
		return p.NBSLink(r.cfg.ThreddsBase), true, nil
	}
	if !errors.Is(statErr, fs.ErrNotExist) {
		return "", false, fmt.Errorf("stat operational NetCDF: %w", statErr)
	}

	tmpPath := p.TmpNetCDFPath(r.cfg.TmpDir)
	if _, statErr := os.Stat(tmpPath); statErr == nil {
		now := time.Now()
		if err := os.Chtimes(tmpPath, now, now); err != nil {
			r.logger.Warn("failed to refresh tmp NetCDF timestamp",
				"product", p.Name,
				"error", err,
			)
		}
		r.logger.Info("serving existing tmp NetCDF, retention window restarted",
			"product", p.Name,
		)
		r.runLog.Log("%s.nc already exists in on-demand storage.", p.Name)
		return p.OndemandLink(r.cfg.ThreddsBase), true, nil
	}

	return "", false, nil
}

// fetch resolves the product on the hub and downloads its archive. An
// archive already in tmp storage short-circuits the download.
func (r *Runner) fetch(ctx context.Context, p *product.Product) error {
	ctx, span := r.tracer.Start(ctx, "pipeline.download")
	defer span.End()
	start := time.Now()

	uuid, err := r.hub.Resolve(ctx, p.Name)
	if err != nil {
		r.collector.RecordDownload("error", 0)
		tracing.SetErrorAttributes(span, err, "resolve")
		return err
	}
	tracing.SetHubAttributes(span, uuid)

	if _, err := os.Stat(p.TmpArchivePath(r.cfg.TmpDir)); err == nil {
		r.logger.Info("archive already in tmp storage",
			"product", p.Name,
		)
		r.collector.RecordDownload("skipped", 0)
		r.collector.RecordPipelineStage("download", time.Since(start))
		return nil
	}

	dest, err := r.hub.Download(ctx, uuid, p.Name, r.cfg.TmpDir)
	if err != nil {
		r.collector.RecordDownload("error", 0)
		tracing.SetErrorAttributes(span, err, "download")
		return err
	}

	var size int64
	if info, err := os.Stat(dest); err == nil {
		size = info.Size()
	}
	tracing.SetBytesAttribute(span, size)
	r.collector.RecordDownload("success", size)
	r.collector.RecordPipelineStage("download", time.Since(start))
	r.runLog.Log("Downloaded %s from the archive.", p.Name)
	return nil
}

// unpack extracts the product archive, falling back to the .SAFE.zip
// double extension some hub downloads produce.
func (r *Runner) unpack(ctx context.Context, p *product.Product) error {
	_, span := r.tracer.Start(ctx, "pipeline.unpack")
	defer span.End()
	start := time.Now()

	archive := p.TmpArchivePath(r.cfg.TmpDir)
	if _, err := os.Stat(archive); errors.Is(err, fs.ErrNotExist) {
		archive = p.TmpSAFEArchivePath(r.cfg.TmpDir)
		if _, err := os.Stat(archive); err != nil {
			err = fmt.Errorf("archive for %s not found in tmp storage", p.Name)
			tracing.SetErrorAttributes(span, err, "unpack")
			return err
		}
	}

	if err := extractArchive(archive, r.cfg.TmpDir); err != nil {
		tracing.SetErrorAttributes(span, err, "unpack")
		return err
	}

	r.collector.RecordPipelineStage("unpack", time.Since(start))
	r.runLog.Log("Unpacked the %s archive.", p.Name)
	return nil
}

// convert runs the SAFE to NetCDF conversion.
func (r *Runner) convert(ctx context.Context, p *product.Product) error {
	ctx, span := r.tracer.Start(ctx, "pipeline.convert")
	defer span.End()
	start := time.Now()

	if err := r.converter.Convert(ctx, p, r.cfg.TmpDir, r.cfg.TmpDir); err != nil {
		r.collector.RecordConversion(p.Mission, "error")
		tracing.SetErrorAttributes(span, err, "convert")
		return err
	}

	r.collector.RecordConversion(p.Mission, "success")
	r.collector.RecordPipelineStage("convert", time.Since(start))

	if info, err := os.Stat(p.TmpNetCDFPath(r.cfg.TmpDir)); err == nil {
		r.collector.RecordProductSize(p.Mission, info.Size())
	}
	return nil
}

// cleanup removes every tmp entry named after the product except its
// NetCDF file, directories recursively.
func (r *Runner) cleanup(ctx context.Context, p *product.Product) {
	_, span := r.tracer.Start(ctx, "pipeline.cleanup")
	defer span.End()
	start := time.Now()

	entries, err := os.ReadDir(r.cfg.TmpDir)
	if err != nil {
		r.logger.Warn("cleanup: cannot list tmp directory",
			"error", err,
		)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, p.Name) || strings.HasSuffix(name, ".nc") {
			continue
		}

		path := filepath.Join(r.cfg.TmpDir, name)
		if err := os.RemoveAll(path); err != nil {
			r.logger.Warn("cleanup: cannot remove entry",
				"path", path,
				"error", err,
			)
			continue
		}
		r.logger.Debug("cleanup: removed entry",
			"path", path,
		)
	}

	r.collector.RecordPipelineStage("cleanup", time.Since(start))
}

// copyFile copies src to dst, truncating any existing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
