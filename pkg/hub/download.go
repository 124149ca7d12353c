package hub

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Download streams the product archive for uuid into dir as
// <name>.zip. An archive already present is reused without touching
// the hub, matching how interrupted batches are re-run.
//
// The stream lands in a temp file first and is renamed into place only
// after a complete copy, so a crashed download never leaves a
// truncated archive under the final name.
func (c *Client) Download(ctx context.Context, uuid, name, dir string) (string, error) {
	dest := filepath.Join(dir, name+".zip")

	if _, err := os.Stat(dest); err == nil {
		c.logger.Info("archive already present, skipping download",
			"product", name,
			"path", dest,
		)
		return dest, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}

	downloadURL := fmt.Sprintf("%s/odata/v1/Products('%s')/$value", strings.TrimRight(c.config.URL, "/"), uuid)

	c.logger.Info("downloading archive",
		"product", name,
		"uuid", uuid,
	)
	start := time.Now()

	resp, err := c.doRequest(ctx, c.downloader, downloadURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(dir, name+".zip.partial-*")
	if err != nil {
		return "", fmt.Errorf("download %s: %w", name, err)
	}

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: stream: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: close: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", name, err)
	}

	c.logger.Info("archive downloaded",
		"product", name,
		"path", dest,
		"size_bytes", written,
		"duration", time.Since(start),
	)

	return dest, nil
}
