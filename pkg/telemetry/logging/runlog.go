package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// RunLog is the human-readable record of a single conversion run. Each run
// gets its own logfile_<uuid>.log in the run-log directory; the file is
// attached to the notification email and removed later by the log sweep.
//
// Unlike the structured service log, run log lines are plain sentences meant
// for the requesting user.
type RunLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewRunLog creates a fresh run log file inside dir, creating the directory
// when needed.
func NewRunLog(dir string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run log directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("logfile_%s.log", uuid.NewString()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log %q: %w", path, err)
	}

	return &RunLog{path: path, f: f}, nil
}

// Log appends one line to the run log. Write failures are swallowed: the
// run log is best-effort and must never abort a conversion.
func (r *RunLog) Log(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return
	}
	_, _ = fmt.Fprintf(r.f, format+"\n", args...)
}

// Writer returns an io.Writer appending raw output to the run log. The
// converter's stdout and stderr are captured through this. Writes after
// Close and write failures are swallowed like Log's.
func (r *RunLog) Writer() io.Writer {
	return runLogWriter{r}
}

type runLogWriter struct {
	r *RunLog
}

func (w runLogWriter) Write(p []byte) (int, error) {
	w.r.mu.Lock()
	defer w.r.mu.Unlock()

	if w.r.f == nil {
		return len(p), nil
	}
	if _, err := w.r.f.Write(p); err != nil {
		return len(p), nil
	}
	return len(p), nil
}

// Path returns the location of the run log file.
func (r *RunLog) Path() string {
	return r.path
}

// Close closes the run log file. Further Log calls become no-ops.
func (r *RunLog) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
