package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	m "buildtrace.dev/pkg/buildtrace/internal/model"
)

// HistoryStore records profiling runs so past builds can be compared.
type HistoryStore interface {
	RecordRun(ctx context.Context, report m.RunReport) error
	ListRuns(ctx context.Context, limit int) ([]m.RunSummary, error)
	Close() error
}

// SQLiteHistoryStore persists run summaries in a SQLite database. The
// database is opened lazily so commands that never touch history do not
// create the file.
type SQLiteHistoryStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewHistoryStore constructs a history store backed by the database at path.
func NewHistoryStore(path string) *SQLiteHistoryStore {
	return &SQLiteHistoryStore{path: path}
}

func (s *SQLiteHistoryStore) ensureDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if strings.TrimSpace(s.path) == "" {
		return nil, fmt.Errorf("history database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s.db = db

	return db, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        root TEXT NOT NULL,
        command TEXT NOT NULL,
        started_at INTEGER NOT NULL,
        finished_at INTEGER NOT NULL,
        exit_code INTEGER NOT NULL,
        created_count INTEGER NOT NULL,
        modified_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("initialize history schema: %w", err)
	}

	return nil
}

// RecordRun inserts one run summary row.
func (s *SQLiteHistoryStore) RecordRun(ctx context.Context, report m.RunReport) error {
	db, err := s.ensureDB()
	if err != nil {
		return err
	}

	created, modified := report.Counts()

	_, err = db.ExecContext(ctx, `
INSERT INTO runs (id, root, command, started_at, finished_at, exit_code, created_count, modified_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		string(report.Root),
		strings.Join(report.Command, " "),
		report.StartedAt.UnixNano(),
		report.FinishedAt.UnixNano(),
		report.ExitCode,
		created,
		modified,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", report.ID, err)
	}

	return nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *SQLiteHistoryStore) ListRuns(ctx context.Context, limit int) ([]m.RunSummary, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, `
SELECT id, root, command, started_at, finished_at, exit_code, created_count, modified_count
FROM runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	defer rows.Close()

	var runs []m.RunSummary

	for rows.Next() {
		var (
			summary               m.RunSummary
			root                  string
			startedAt, finishedAt int64
		)

		err := rows.Scan(
			&summary.ID,
			&root,
			&summary.Command,
			&startedAt,
			&finishedAt,
			&summary.ExitCode,
			&summary.Created,
			&summary.Modified,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		summary.Root = m.Path(root)
		summary.StartedAt = time.Unix(0, startedAt)
		summary.FinishedAt = time.Unix(0, finishedAt)

		runs = append(runs, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// Close releases the underlying database, if it was ever opened.
func (s *SQLiteHistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}
