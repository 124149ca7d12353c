package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no job with the requested identifier
	// exists.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal is returned when an operation is attempted on a job
	// that already reached a final status.
	ErrTerminal = errors.New("job already finished")
)

// StoreConfig contains the job registry settings.
type StoreConfig struct {
	// Path is the SQLite database file. Parent directories are created
	// as needed.
	Path string

	// BusyTimeout is how long a statement waits on a locked database.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// Store is the durable job registry. It is backed by a single-writer
// SQLite database in WAL mode.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	insertStmt *sql.Stmt
	getStmt    *sql.Stmt
}

// NewStore opens (or creates) the job registry at cfg.Path.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create job registry directory: %w", err)
		}
	}

	// Pragmas ride the DSN so every pooled connection gets them. Times
	// are stored in the sqlite layout; with everything normalized to
	// UTC their text order matches their time order.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_time_format=sqlite",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open job registry: %w", err)
	}

	// A single writer connection sidesteps SQLITE_BUSY between the
	// server handlers and the async workers.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "jobs.store"),
		now:    time.Now,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("job registry opened",
		"path", cfg.Path,
	)
	return s, nil
}

// initialize creates the schema and verifies its version.
func (s *Store) initialize() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create job registry schema: %w", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if !version.Valid || version.Int64 != schemaVersion {
		return fmt.Errorf("job registry schema version %d, this build expects %d",
			version.Int64, schemaVersion)
	}

	var err error
	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO jobs (id, process_id, status, products, email, links, failures, message, created, started, finished)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	s.getStmt, err = s.db.Prepare(`
		SELECT id, process_id, status, products, email, links, failures, message, created, started, finished
		FROM jobs WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare get: %w", err)
	}
	return nil
}

// Create registers a new job. An empty status defaults to accepted, a
// zero creation time to now.
func (s *Store) Create(ctx context.Context, job *Job) error {
	if job.ID == "" {
		return errors.New("job has no id")
	}
	if job.Status == "" {
		job.Status = StatusAccepted
	}
	if !job.Status.Valid() {
		return fmt.Errorf("unknown job status %q", job.Status)
	}
	if job.Created.IsZero() {
		job.Created = s.now()
	}
	job.Created = job.Created.UTC()

	products, err := json.Marshal(job.Products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	links, err := json.Marshal(job.Links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	failures, err := json.Marshal(job.Failures)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}

	_, err = s.insertStmt.ExecContext(ctx,
		job.ID, job.ProcessID, string(job.Status),
		string(products), job.Email, string(links), string(failures), job.Message,
		job.Created, nullTime(job.Started), nullTime(job.Finished),
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

// Get returns the job with the given identifier, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	job, err := scanJob(s.getStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// List returns jobs newest first, at most limit of them. A limit of
// zero or less lists up to 100 jobs.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_id, status, products, email, links, failures, message, created, started, finished
		FROM jobs ORDER BY created DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListByStatus returns every job in the given status, oldest first.
// The workers use it to pick up jobs left behind by a restart.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_id, status, products, email, links, failures, message, created, started, finished
		FROM jobs WHERE status = ? ORDER BY created, id
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list %s jobs: %w", status, err)
	}
	defer rows.Close()

	jobs := []*Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list %s jobs: %w", status, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s jobs: %w", status, err)
	}
	return jobs, nil
}

// UpdateStatus moves a job to the given status. Entering running stamps
// the start time, entering a terminal status the finish time.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, message string) error {
	if !status.Valid() {
		return fmt.Errorf("unknown job status %q", status)
	}
	now := s.now().UTC()

	var res sql.Result
	var err error
	switch {
	case status == StatusRunning:
		res, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, message = ?, started = ? WHERE id = ?`,
			string(status), message, now, id)
	case status.Terminal():
		res, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, message = ?, finished = ? WHERE id = ?`,
			string(status), message, now, id)
	default:
		res, err = s.db.ExecContext(ctx,
			`UPDATE jobs SET status = ?, message = ? WHERE id = ?`,
			string(status), message, id)
	}
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	return requireRow(res, id)
}

// SetResult finishes a job with its batch results. A job dismissed
// while it was executing keeps its dismissal; the late results are
// dropped.
func (s *Store) SetResult(ctx context.Context, id string, status Status, links, failures []string, message string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}

	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, links = ?, failures = ?, message = ?, finished = ?
		WHERE id = ? AND status != ?
	`, string(status), string(linksJSON), string(failuresJSON), message, s.now().UTC(), id, string(StatusDismissed))
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		s.logger.Debug("job dismissed before its results landed, dropping them",
			"job_id", id,
		)
	}
	return nil
}

// Dismiss cancels a job that has not finished. Dismissing a terminal
// job returns ErrTerminal.
func (s *Store) Dismiss(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, finished = ?
		WHERE id = ? AND status IN (?, ?)
	`, string(StatusDismissed), s.now().UTC(), id, string(StatusAccepted), string(StatusRunning))
	if err != nil {
		return fmt.Errorf("dismiss job %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dismiss job %s: %w", id, err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: either the job does not exist or it already
	// reached a terminal status.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("job %s: %w", id, ErrTerminal)
}

// PruneOlderThan deletes finished jobs created more than age ago and
// returns how many were removed. Jobs still accepted or running are
// never pruned.
func (s *Store) PruneOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := s.now().Add(-age).UTC()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM jobs WHERE created < ? AND status IN (?, ?, ?)
	`, cutoff, string(StatusSuccessful), string(StatusFailed), string(StatusDismissed))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	if affected > 0 {
		s.logger.Info("pruned finished jobs",
			"deleted", affected,
			"cutoff", cutoff,
		)
	}
	return int(affected), nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the registry's statements and connection.
func (s *Store) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close job registry: %w", err)
	}
	return nil
}

// requireRow turns a zero-row update into ErrNotFound.
func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob scans one jobs row.
func scanJob(row rowScanner) (*Job, error) {
	var (
		job                       Job
		status                    string
		products, links, failures string
		email, message            sql.NullString
		started, finished         sql.NullTime
	)

	err := row.Scan(
		&job.ID, &job.ProcessID, &status,
		&products, &email, &links, &failures, &message,
		&job.Created, &started, &finished,
	)
	if err != nil {
		return nil, err
	}

	job.Status = Status(status)
	job.Email = email.String
	job.Message = message.String
	if started.Valid {
		t := started.Time.UTC()
		job.Started = &t
	}
	if finished.Valid {
		t := finished.Time.UTC()
		job.Finished = &t
	}
	job.Created = job.Created.UTC()

	if err := json.Unmarshal([]byte(products), &job.Products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &job.Links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	if err := json.Unmarshal([]byte(failures), &job.Failures); err != nil {
		return nil, fmt.Errorf("decode failures: %w", err)
	}
	return &job, nil
}

// nullTime converts an optional timestamp for binding.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
