package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBatchProgress(t *testing.T) {
	var buf bytes.Buffer
	progress := NewBatchProgress(&buf, 2)

	progress.StartItem("S1A_EW_GRDM_first")
	progress.EndItem(nil)
	progress.StartItem("S2B_MSIL1C_second")
	progress.EndItem(nil)
	progress.Finish()

	out := buf.String()
	for _, want := range []string{
		"[1/2] S1A_EW_GRDM_first",
		"[1/2]   ✓ done in",
		"[2/2] S2B_MSIL1C_second",
		"✓ 2 done in",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestBatchProgressFailure(t *testing.T) {
	var buf bytes.Buffer
	progress := NewBatchProgress(&buf, 2)

	progress.StartItem("S1A_good")
	progress.EndItem(nil)
	progress.StartItem("S1A_bad")
	progress.EndItem(errors.New("conversion failed"))
	progress.Finish()

	out := buf.String()
	if !strings.Contains(out, "✗ failed after") {
		t.Errorf("output should mark the failed item:\n%s", out)
	}
	if !strings.Contains(out, "conversion failed") {
		t.Errorf("output should carry the item error:\n%s", out)
	}
	if !strings.Contains(out, "✗ 1 of 2 failed") {
		t.Errorf("summary should count the failure:\n%s", out)
	}
}

func TestBatchProgressItemDuration(t *testing.T) {
	var buf bytes.Buffer
	progress := NewBatchProgress(&buf, 1)

	// Fixed clock: the item takes exactly 90 seconds.
	base := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(90 * time.Second), base.Add(90 * time.Second)}
	progress.now = func() time.Time {
		next := times[0]
		times = times[1:]
		return next
	}
	progress.started = base

	progress.StartItem("S1A_slow")
	progress.EndItem(nil)
	progress.Finish()

	if !strings.Contains(buf.String(), "done in 1m30s") {
		t.Errorf("item line should carry its duration:\n%s", buf.String())
	}
}

func TestNewBatchProgressNilWriter(t *testing.T) {
	progress := NewBatchProgress(nil, 1)
	if progress == nil {
		t.Fatal("NewBatchProgress(nil, 1) returned nil")
	}
	if progress.w == nil {
		t.Error("nil writer should default to stderr")
	}
}
