package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/scengen/internal/constants"
	"github.com/nvandessel/scengen/internal/pathutil"
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens the ledger of outputDir at .scengen/runs.db,
// creating it if needed.
func NewSQLiteRunStore(outputDir string) (*SQLiteRunStore, error) {
	stateDir := pathutil.StateDir(outputDir)
	if err := pathutil.EnsureDir(stateDir); err != nil {
		return nil, err
	}
	return OpenSQLiteRunStore(filepath.Join(stateDir, constants.LedgerFileName))
}

// OpenSQLiteRunStore opens the ledger database at dbPath.
func OpenSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *SQLiteRunStore) Path() string { return s.dbPath }

// Record stores run. A zero CreatedAt is set to now.
func (s *SQLiteRunStore) Record(ctx context.Context, run Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Path == "" {
		return 0, fmt.Errorf("run path is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (config_path, run_count, seed, path, agents, contracts, digest, capacity_mw, plausible, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ConfigPath, run.RunCount, run.Seed, run.Path, run.Agents, run.Contracts,
		run.Digest, run.CapacityMW, boolToInt(run.Plausible),
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

// List returns up to limit runs, newest first.
func (s *SQLiteRunStore) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config_path, run_count, seed, path, agents, contracts, digest, capacity_mw, plausible, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			plausible int
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.ConfigPath, &r.RunCount, &r.Seed, &r.Path,
			&r.Agents, &r.Contracts, &r.Digest, &r.CapacityMW, &plausible, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Plausible = plausible != 0
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("run %d: bad created_at %q: %w", r.ID, createdAt, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
