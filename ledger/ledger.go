package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/litcrawl/crawl"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Ledger keeps the history of crawl runs and the items they failed to
// extract in SQLite. It never holds records themselves.
type Ledger struct {
	db *sql.DB
}

// Run is one crawl of one collection.
type Run struct {
	RunID          uuid.UUID  `json:"run_id"`
	Collection     string     `json:"collection"`
	Status         string     `json:"status"`
	StartPage      int        `json:"start_page"`
	LastPage       int        `json:"last_page"`
	PagesProcessed int        `json:"pages_processed"`
	ItemsWritten   int        `json:"items_written"`
	ItemsSkipped   int        `json:"items_skipped"`
	ItemsFailed    int        `json:"items_failed"`
	PageRetries    int        `json:"page_retries"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Error          *string    `json:"error,omitempty"`
}

// Failure is an item that could not be extracted during a run.
type Failure struct {
	ID         int64     `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	Page       int       `json:"page"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Open opens (or creates) the ledger database at dsn.
func Open(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return l, nil
}

// initSchema creates the ledger tables if they don't exist.
func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		status TEXT NOT NULL,
		start_page INTEGER NOT NULL,
		last_page INTEGER NOT NULL DEFAULT 0,
		pages_processed INTEGER NOT NULL DEFAULT 0,
		items_written INTEGER NOT NULL DEFAULT 0,
		items_skipped INTEGER NOT NULL DEFAULT 0,
		items_failed INTEGER NOT NULL DEFAULT 0,
		page_retries INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_collection ON runs(collection, started_at);

	CREATE TABLE IF NOT EXISTS item_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		page INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		error TEXT NOT NULL,
		occurred_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_item_failures_run ON item_failures(run_id);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun records the start of a run and returns its ID.
func (l *Ledger) StartRun(collection string, startPage int) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()

	query := `
		INSERT INTO runs (run_id, collection, status, start_page, started_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := l.db.Exec(query, id.String(), collection, StatusRunning, startPage, formatTime(&now))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return id, nil
}

// RecordFailure notes an item that was skipped because of cause.
func (l *Ledger) RecordFailure(runID uuid.UUID, page int, title, url string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	now := time.Now()

	query := `
		INSERT INTO item_failures (run_id, page, title, url, error, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.Exec(query, runID.String(), page, title, url, msg, formatTime(&now))
	if err != nil {
		return fmt.Errorf("failed to insert item failure: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run. The status is derived from
// runErr.
func (l *Ledger) FinishRun(summary *crawl.Summary, runErr error) error {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	finishedAt := summary.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	query := `
		UPDATE runs SET
			status = ?, last_page = ?, pages_processed = ?, items_written = ?,
			items_skipped = ?, items_failed = ?, page_retries = ?,
			finished_at = ?, error = ?
		WHERE run_id = ?
	`
	result, err := l.db.Exec(query,
		statusFor(runErr),
		summary.LastPage,
		summary.PagesProcessed,
		summary.ItemsWritten,
		summary.ItemsSkipped,
		summary.ItemsFailed,
		summary.PageRetries,
		formatTime(&finishedAt),
		errMsg,
		summary.RunID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}

	return nil
}

// GetRun retrieves a run by ID.
func (l *Ledger) GetRun(runID uuid.UUID) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = ?`

	run, err := scanRun(l.db.QueryRow(query, runID.String()))
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs first. An empty collection lists
// every collection; limit <= 0 means no limit.
func (l *Ledger) ListRuns(collection string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}

	if collection != "" {
		query += ` WHERE collection = ?`
		args = append(args, collection)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// ListFailures returns the failed items of a run in the order they occurred.
func (l *Ledger) ListFailures(runID uuid.UUID) ([]Failure, error) {
	query := `
		SELECT id, run_id, page, title, url, error, occurred_at
		FROM item_failures
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := l.db.Query(query, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query item failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		var runIDStr, occurredAtStr string
		if err := rows.Scan(&f.ID, &runIDStr, &f.Page, &f.Title, &f.URL, &f.Error, &occurredAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan item failure: %w", err)
		}
		f.RunID, _ = uuid.Parse(runIDStr)
		f.OccurredAt = parseTime(occurredAtStr)
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

const runColumns = `run_id, collection, status, start_page, last_page,
	pages_processed, items_written, items_skipped, items_failed, page_retries,
	started_at, finished_at, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var runIDStr, startedAtStr string
	var finishedAtStr, errMsg sql.NullString

	err := row.Scan(
		&runIDStr, &run.Collection, &run.Status, &run.StartPage, &run.LastPage,
		&run.PagesProcessed, &run.ItemsWritten, &run.ItemsSkipped, &run.ItemsFailed, &run.PageRetries,
		&startedAtStr, &finishedAtStr, &errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.RunID, err = uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runIDStr, err)
	}
	run.StartedAt = parseTime(startedAtStr)
	if finishedAtStr.Valid {
		t := parseTime(finishedAtStr.String)
		run.FinishedAt = &t
	}
	if errMsg.Valid {
		run.Error = &errMsg.String
	}

	return &run, nil
}

func statusFor(runErr error) string {
	switch {
	case runErr == nil:
		return StatusCompleted
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
