package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// migrations are applied in order; user_version records how many have run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		started_at    INTEGER NOT NULL,
		finished_at   INTEGER,
		source        TEXT NOT NULL,
		status        TEXT NOT NULL,
		observations  INTEGER NOT NULL DEFAULT 0,
		groups_count  INTEGER NOT NULL DEFAULT 0,
		first_day     TEXT,
		last_day      TEXT,
		synthesized   INTEGER NOT NULL DEFAULT 0,
		outputs       TEXT NOT NULL DEFAULT '',
		error         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC)`,
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// pending migrations and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers; the tool is sequential anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	for i := version; i < len(migrations); i++ {
		if _, err := s.db.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// StartRun inserts a new run into the database.
func (s *SQLiteStore) StartRun(ctx context.Context, run *Run) error {
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, source, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.Source, string(run.Status))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun persists the final state of an existing run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run *Run) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, observations = ?, groups_count = ?,
			first_day = ?, last_day = ?, synthesized = ?, outputs = ?, error = ?
		 WHERE id = ?`,
		run.FinishedAt.UnixMilli(), string(run.Status), run.Observations, run.Groups,
		dayOrNull(run.FirstDay), dayOrNull(run.LastDay), run.Synthesized,
		strings.Join(run.Outputs, "\n"), run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, source, status, observations, groups_count,
	first_day, last_day, synthesized, outputs, error`

// GetRun retrieves a single run by its ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run               Run
		started           int64
		finished          sql.NullInt64
		status, outputs   string
		firstDay, lastDay sql.NullString
	)
	err := sc.Scan(&run.ID, &started, &finished, &run.Source, &status,
		&run.Observations, &run.Groups, &firstDay, &lastDay, &run.Synthesized,
		&outputs, &run.Error)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		run.FinishedAt = time.UnixMilli(finished.Int64).UTC()
	}
	run.Status = RunStatus(status)
	run.FirstDay = parseDay(firstDay)
	run.LastDay = parseDay(lastDay)
	if outputs != "" {
		run.Outputs = strings.Split(outputs, "\n")
	}
	return &run, nil
}

func dayOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseDay(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := time.Parse("2006-01-02", s.String)
	return t
}
