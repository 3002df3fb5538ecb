package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "gapminder/internal/errors"
	"gapminder/pkg/contracts/domain"
)

// SQLiteStore keeps the latest canonical table and the run history in a
// single SQLite file.
type SQLiteStore struct {
	conn   *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and migrates it.
// Use ":memory:" for a throwaway store.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, apperrors.NewStorageError("create db directory", err)
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite", err)
	}
	// One writer at a time; also keeps a :memory: database on one connection.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn, logger: logger.With(slog.String("component", "sqlite_store"))}
	if err := s.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS canonical (
			run_id TEXT NOT NULL,
			year INTEGER NOT NULL,
			country TEXT NOT NULL,
			population REAL NOT NULL,
			life_expectancy REAL NOT NULL,
			income REAL NOT NULL,
			hdi REAL NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (year, country)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			started_at_ns INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			sources INTEGER NOT NULL,
			canonical_rows INTEGER NOT NULL,
			empty_result INTEGER NOT NULL DEFAULT 0,
			failures TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_ns)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.ExecContext(ctx, m); err != nil {
			return apperrors.NewStorageError("migrate", err)
		}
	}
	return nil
}

// Name identifies the sink in logs and run reports.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Export stores the run's canonical table.
func (s *SQLiteStore) Export(ctx context.Context, res *domain.RunResult) error {
	return s.SaveCanonical(ctx, res.RunID, res.Canonical)
}

// SaveCanonical replaces the stored canonical table in one transaction.
func (s *SQLiteStore) SaveCanonical(ctx context.Context, runID string, ct domain.CanonicalTable) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM canonical`); err != nil {
		return apperrors.NewStorageError("clear canonical", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO canonical
		(run_id, year, country, population, life_expectancy, income, hdi, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("prepare insert", err)
	}
	defer stmt.Close()

	for i, r := range ct.Rows {
		if _, err = stmt.ExecContext(ctx, runID, int(r.Year), r.Country,
			r.Population, r.LifeExpectancy, r.Income, r.HDI, i); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("insert row %s", r.Key()), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit canonical", err)
	}

	s.logger.InfoContext(ctx, "canonical table stored",
		slog.String("run_id", runID),
		slog.Int("rows", ct.Len()))
	return nil
}

// LoadCanonical returns the stored table in its original row order and the
// run that produced it. An empty store yields an empty table.
func (s *SQLiteStore) LoadCanonical(ctx context.Context) (domain.CanonicalTable, string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT run_id, year, country, population,
		life_expectancy, income, hdi FROM canonical ORDER BY seq`)
	if err != nil {
		return domain.CanonicalTable{}, "", apperrors.NewStorageError("query canonical", err)
	}
	defer rows.Close()

	ct := domain.CanonicalTable{Rows: []domain.CanonicalRow{}}
	var runID string
	for rows.Next() {
		var r domain.CanonicalRow
		var year int
		if err := rows.Scan(&runID, &year, &r.Country, &r.Population,
			&r.LifeExpectancy, &r.Income, &r.HDI); err != nil {
			return domain.CanonicalTable{}, "", apperrors.NewStorageError("scan canonical", err)
		}
		r.Year = domain.Year(year)
		ct.Rows = append(ct.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return domain.CanonicalTable{}, "", apperrors.NewStorageError("iterate canonical", err)
	}
	return ct, runID, nil
}

// RecordRun appends a run to the history. Recording the same run twice
// overwrites the earlier entry.
func (s *SQLiteStore) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	failures := rec.Failures
	if failures == nil {
		failures = []string{}
	}
	fj, err := json.Marshal(failures)
	if err != nil {
		return apperrors.NewStorageError("encode failures", err)
	}

	_, err = s.conn.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(run_id, status, started_at_ns, duration_ms, sources, canonical_rows, empty_result, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, string(rec.Status), rec.StartedAt.UnixNano(),
		rec.Duration.Milliseconds(), rec.Sources, rec.CanonicalRows, rec.EmptyResult, string(fj))
	if err != nil {
		return apperrors.NewStorageError("insert run", err).WithContext("run_id", rec.RunID)
	}
	return nil
}

// ListRuns returns the run history, newest first. limit <= 0 means all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx, `SELECT run_id, status, started_at_ns, duration_ms,
		sources, canonical_rows, empty_result, failures
		FROM runs ORDER BY started_at_ns DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("query runs", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var (
			rec        domain.RunRecord
			status     string
			startedAt  int64
			durationMS int64
			failures   string
		)
		if err := rows.Scan(&rec.RunID, &status, &startedAt, &durationMS,
			&rec.Sources, &rec.CanonicalRows, &rec.EmptyResult, &failures); err != nil {
			return nil, apperrors.NewStorageError("scan run", err)
		}
		rec.Status = domain.RunStatus(status)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.StartedAt = time.Unix(0, startedAt).UTC()
		if err := json.Unmarshal([]byte(failures), &rec.Failures); err != nil {
			return nil, apperrors.NewStorageError("decode failures", err).WithContext("run_id", rec.RunID)
		}
		if len(rec.Failures) == 0 {
			rec.Failures = nil
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate runs", err)
	}
	return out, nil
}
