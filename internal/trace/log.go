package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and events tables
const currentSchemaVersion = 1

// ErrRunNotFound is returned when a run ID is not in the log.
var ErrRunNotFound = errors.New("run not found")

// Log is a SQLite database of runs and their events.
type Log struct {
	db *sql.DB
}

// OpenLog creates or opens the trace log at path.
//
// The database uses WAL mode, NORMAL synchronous mode, a 5-second busy
// timeout and foreign keys. Opening an existing log is safe.
func OpenLog(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to trace log: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("trace log schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Append stores run and its events in one transaction.
// Writing the same run twice is a no-op.
func (l *Log) Append(ctx context.Context, run Run) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append run %s: %w", run.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Scenario); err != nil {
		return fmt.Errorf("append run %s: %w", run.ID, err)
	}

	for _, e := range run.Events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (run_id, seq, listener, step, at_ms, current, prev, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`, run.ID, e.Seq, e.Listener, e.Step, e.AtMS, e.Current, e.Prev, e.Data); err != nil {
			return fmt.Errorf("append event %d of run %s: %w", e.Seq, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append run %s: %w", run.ID, err)
	}
	return nil
}

// ReadRun loads a run. When listener is not empty only its events are
// returned. Events are ordered by seq.
func (l *Log) ReadRun(ctx context.Context, runID, listener string) (Run, error) {
	run := Run{ID: runID, Events: []Event{}}
	err := l.db.QueryRowContext(ctx, `SELECT scenario FROM runs WHERE id = ?`, runID).Scan(&run.Scenario)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", runID, err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, listener, step, at_ms, current, prev, data
		FROM events
		WHERE run_id = ? AND (? = '' OR listener = ?)
		ORDER BY seq ASC
	`, runID, listener, listener)
	if err != nil {
		return Run{}, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e := Event{RunID: runID}
		if err := rows.Scan(&e.Seq, &e.Listener, &e.Step, &e.AtMS, &e.Current, &e.Prev, &e.Data); err != nil {
			return Run{}, fmt.Errorf("scan event: %w", err)
		}
		run.Events = append(run.Events, e)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate events: %w", err)
	}
	return run, nil
}

// RunIDs lists the stored run IDs in ascending order.
// UUIDv7 IDs sort by creation time.
func (l *Log) RunIDs(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return ids, nil
}
