// Package history keeps a SQLite record of pvcheck sessions and the
// outcome of every test case, so results can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with runs and case_results",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    test_file TEXT,
    program TEXT,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    total INTEGER NOT NULL,
    failed INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_test_file ON runs(test_file);

CREATE TABLE IF NOT EXISTS case_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(run_id),
    case_index INTEGER NOT NULL,
    description TEXT,
    execution_kind TEXT,
    exit_status INTEGER,
    passed BOOLEAN NOT NULL,
    duration_ms INTEGER,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_case_results_run ON case_results(run_id, case_index);
`,
	},
}

// Run is one recorded pvcheck session.
type Run struct {
	ID         int64
	RunID      string
	TestFile   string
	Program    string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Failed     int
	Cases      []CaseRecord
}

// CaseRecord is the stored outcome of one test case.
type CaseRecord struct {
	Index        int
	Description  string
	Kind         string
	ExitStatus   int
	Passed       bool
	Duration     time.Duration
	ErrorMessage string
}

// Store manages the SQLite history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// applyMigrations applies pending migrations in one transaction.
func (s *Store) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("query schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}

// RecordRun stores a run and its cases atomically and sets run.ID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, test_file, program, started_at, finished_at, total, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.TestFile,
		run.Program,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Total,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	for _, c := range run.Cases {
		if _, err := tx.ExecContext(ctx, `INSERT INTO case_results
			(run_id, case_index, description, execution_kind, exit_status, passed, duration_ms, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID,
			c.Index,
			c.Description,
			c.Kind,
			c.ExitStatus,
			c.Passed,
			c.Duration.Milliseconds(),
			c.ErrorMessage,
		); err != nil {
			return fmt.Errorf("insert case %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	run.ID = id
	return nil
}

// RecentRuns returns up to limit runs, most recent first, without their cases.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, test_file, program, started_at, finished_at, total, failed
		FROM runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var testFile, program sql.NullString
		if err := rows.Scan(
			&run.ID,
			&run.RunID,
			&testFile,
			&program,
			&run.StartedAt,
			&run.FinishedAt,
			&run.Total,
			&run.Failed,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.TestFile = testFile.String
		run.Program = program.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// CaseResults returns the cases of a run in suite order.
func (s *Store) CaseResults(ctx context.Context, runID string) ([]CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT case_index, description, execution_kind, exit_status, passed, duration_ms, error_message
		FROM case_results
		WHERE run_id = ?
		ORDER BY case_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query case results: %w", err)
	}
	defer rows.Close()

	var cases []CaseRecord
	for rows.Next() {
		var (
			c                          CaseRecord
			description, kind, errMsg  sql.NullString
			exitStatus, durationMillis sql.NullInt64
		)
		if err := rows.Scan(&c.Index, &description, &kind, &exitStatus, &c.Passed, &durationMillis, &errMsg); err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		c.Description = description.String
		c.Kind = kind.String
		c.ExitStatus = int(exitStatus.Int64)
		c.Duration = time.Duration(durationMillis.Int64) * time.Millisecond
		c.ErrorMessage = errMsg.String
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case rows: %w", err)
	}
	return cases, nil
}
