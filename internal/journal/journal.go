// Package journal keeps a SQLite record of every run and of every match or
// commit it produced, so re-runs can be audited.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
)

// Run is one journaled pipeline run.
type Run struct {
	ID         string
	Mode       string
	Site       string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or if it crashed
	Listed     int
	Matched    int
	Succeeded  int
	Failed     int
	Error      string
}

// Entry is one journaled record.
type Entry struct {
	ID         int64
	RunID      string
	Kind       pipeline.RecordKind
	URL        string
	Reference  string
	Layout     string
	NewLayout  string
	Status     string
	Error      string
	RecordedAt time.Time
}

// Journal is a pipeline.Sink persisting records to SQLite.
type Journal struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the journal at path. Use ":memory:" for an
// in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, now: time.Now}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		site TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		listed INTEGER NOT NULL DEFAULT 0,
		matched INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		url TEXT NOT NULL,
		reference TEXT NOT NULL,
		layout TEXT NOT NULL,
		new_layout TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// StartRun journals the start of a run.
func (j *Journal) StartRun(ctx context.Context, id string, mode pipeline.Mode, site string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO runs (id, mode, site, started_at) VALUES (?, ?, ?, ?)",
		id, string(mode), site, j.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the summary of a run and the error that ended it, if any.
func (j *Journal) FinishRun(ctx context.Context, summary *pipeline.Summary, runErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var errText string
	if runErr != nil {
		errText = runErr.Error()
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, listed = ?, matched = ?, succeeded = ?, failed = ?, error = ?
		WHERE id = ?`,
		j.now().UnixMilli(), summary.Listed, summary.Matched, summary.Succeeded, summary.Failed, errText,
		summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: run was never started", summary.RunID)
	}
	return nil
}

// Emit implements pipeline.Sink.
func (j *Journal) Emit(ctx context.Context, rec pipeline.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var status, errText string
	if rec.Result != nil {
		status = string(rec.Result.Status)
		errText = rec.Result.Error
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO records (run_id, kind, url, reference, layout, new_layout, status, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, string(rec.Kind), rec.URL, rec.Reference, rec.Layout, rec.NewLayout, status, errText,
		j.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, mode, site, started_at, finished_at, listed, matched, succeeded, failed, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Mode, &r.Site, &started, &finished,
			&r.Listed, &r.Matched, &r.Succeeded, &r.Failed, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			r.FinishedAt = time.UnixMilli(finished.Int64)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Records returns the records of one run in the order they were emitted.
func (j *Journal) Records(ctx context.Context, runID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, run_id, kind, url, reference, layout, new_layout, status, error, recorded_at
		FROM records WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			kind     string
			recorded int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &kind, &e.URL, &e.Reference, &e.Layout, &e.NewLayout,
			&e.Status, &e.Error, &recorded); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		e.Kind = pipeline.RecordKind(kind)
		e.RecordedAt = time.UnixMilli(recorded)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
