package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/NasjonaltBakkeSegment/NetCDF-on-demand/pkg/product"
)

// Converter turns an unpacked SAFE product into a NetCDF file named
// <product>.nc in outDir. The conversion itself lives in a separate
// scientific package; this service only orchestrates it.
type Converter interface {
	Convert(ctx context.Context, p *product.Product, inDir, outDir string) error
}

// ExecConverter runs the external safe_to_netcdf tool.
type ExecConverter struct {
	// Command is the converter binary.
	Command string

	// CompressionLevel is the NetCDF deflate level passed through.
	CompressionLevel int

	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration

	// Output captures the tool's stdout and stderr, typically the run
	// log. Defaults to io.Discard.
	Output io.Writer

	// Logger receives start and finish lines.
	Logger *slog.Logger
}

// Convert invokes the converter with the product's mission reader and
// waits for it to finish.
func (c *ExecConverter) Convert(ctx context.Context, p *product.Product, inDir, outDir string) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	output := c.Output
	if output == nil {
		output = io.Discard
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{
		"--product", p.Name,
		"--indir", inDir,
		"--outdir", outDir,
		"--mission", p.Mission,
		"--compression-level", strconv.Itoa(c.CompressionLevel),
	}

	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Stdout = output
	cmd.Stderr = output

	logger.Info("starting conversion",
		"product", p.Name,
		"command", c.Command,
		"mission", p.Mission,
	)
	start := time.Now()

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("conversion of %s timed out after %s", p.Name, c.Timeout)
		}
		return fmt.Errorf("conversion of %s failed: %w", p.Name, err)
	}

	logger.Info("conversion finished",
		"product", p.Name,
		"duration", time.Since(start),
	)
	return nil
}
