package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// BatchProgress reports per-item progress for a product batch. Items are
// announced and resolved one line at a time, so the output stays readable
// when captured into a job log instead of a terminal.
type BatchProgress struct {
	mu          sync.Mutex
	w           io.Writer
	total       int
	current     int
	failed      int
	started     time.Time
	itemStarted time.Time
	now         func() time.Time
}

// NewBatchProgress creates a progress reporter for a batch of total items
// writing to w. If w is nil, it defaults to os.Stderr.
func NewBatchProgress(w io.Writer, total int) *BatchProgress {
	if w == nil {
		w = os.Stderr
	}
	now := time.Now
	return &BatchProgress{w: w, total: total, started: now(), now: now}
}

// StartItem announces the next item being processed.
func (p *BatchProgress) StartItem(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.itemStarted = p.now()
	fmt.Fprintf(p.w, "[%d/%d] %s\n", p.current, p.total, name)
}

// EndItem resolves the item announced by the last StartItem. A nil error
// marks it done, anything else marks it failed.
func (p *BatchProgress) EndItem(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.itemStarted).Round(time.Second)
	if err != nil {
		p.failed++
		fmt.Fprintf(p.w, "[%d/%d]   ✗ failed after %s: %v\n", p.current, p.total, elapsed, err)
		return
	}
	fmt.Fprintf(p.w, "[%d/%d]   ✓ done in %s\n", p.current, p.total, elapsed)
}

// Finish prints the batch summary.
func (p *BatchProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.now().Sub(p.started).Round(time.Second)
	if p.failed > 0 {
		fmt.Fprintf(p.w, "✗ %d of %d failed (%s)\n", p.failed, p.current, elapsed)
		return
	}
	fmt.Fprintf(p.w, "✓ %d done in %s\n", p.current, elapsed)
}
