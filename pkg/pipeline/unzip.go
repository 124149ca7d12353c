package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// extractArchive extracts a zip archive into destDir. The payload is
// content-sniffed first: a file that is not actually a zip (an HTML
// error page written by a broken download, say) is rejected before any
// extraction happens. Entries that would land outside destDir are
// rejected.
func extractArchive(archivePath, destDir string) error {
	mtype, err := mimetype.DetectFile(archivePath)
	if err != nil {
		return fmt.Errorf("sniff %s: %w", archivePath, err)
	}
	if !mtype.Is("application/zip") {
		return fmt.Errorf("%s is not a zip archive (detected %s)", archivePath, mtype)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractEntry(f, destDir); err != nil {
			return fmt.Errorf("extract %s: %w", archivePath, err)
		}
	}
	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
		return fmt.Errorf("entry %q escapes the destination directory", f.Name)
	}
	dest := filepath.Join(destDir, filepath.FromSlash(f.Name))

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if !f.Mode().IsRegular() {
		// SAFE archives carry only files and directories; anything else
		// (symlinks, devices) is dropped.
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
