// Package runlog keeps a small history of batch runs in SQLite, one row per
// run. It is observability only: the result files stay the single source of
// truth for grades.
package runlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the run-history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded batch run.
type Run struct {
	ID             int64
	Command        string
	Root           string
	FilesProcessed int
	FilesFailed    int
	Records        int
	MeanScore      float64
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Open opens (or creates) the run-history database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping run log: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate run log: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		command TEXT NOT NULL,
		root TEXT NOT NULL,
		files_processed INTEGER NOT NULL DEFAULT 0,
		files_failed INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		mean_score REAL NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun appends one run to the history.
func (s *Store) RecordRun(r Run) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (command, root, files_processed, files_failed, records, mean_score, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Command, r.Root, r.FilesProcessed, r.FilesFailed, r.Records, r.MeanScore,
		r.StartedAt.UTC(), r.FinishedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentRuns returns the newest runs first, at most limit of them.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, command, root, files_processed, files_failed, records, mean_score, started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.Root, &r.FilesProcessed, &r.FilesFailed,
			&r.Records, &r.MeanScore, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
