package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/district-insights/crimemap/internal/dataset"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	offense    TEXT NOT NULL,
	method     TEXT NOT NULL,
	start_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	loaded     INTEGER NOT NULL,
	dropped    INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_records_offense ON records(offense);
CREATE INDEX IF NOT EXISTS idx_records_method ON records(method);
CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceRecords(ctx context.Context, source string, records []dataset.Record, dropped int) (*ImportRun, error) {
	run := &ImportRun{
		ID:        uuid.New().String(),
		Source:    source,
		Loaded:    len(records),
		Dropped:   dropped,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return nil, eris.Wrap(err, "sqlite: clear records")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (lat, lon, offense, method, start_date) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Latitude, r.Longitude, r.Offense, r.Method, r.StartDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: insert record")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO import_runs (id, source, loaded, dropped, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Loaded, run.Dropped, run.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import run")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return run, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context) ([]dataset.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lat, lon, offense, method, start_date FROM records ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []dataset.Record
	for rows.Next() {
		var r dataset.Record
		if err := rows.Scan(&r.Latitude, &r.Longitude, &r.Offense, &r.Method, &r.StartDate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, loaded, dropped, created_at FROM import_runs ORDER BY created_at DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(&run.ID, &run.Source, &run.Loaded, &run.Dropped, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByOffense: map[string]int{},
		ByMethod:  map[string]int{},
	}

	var minLon, minLat, maxLon, maxLat sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(lon), MIN(lat), MAX(lon), MAX(lat) FROM records`,
	).Scan(&stats.Records, &minLon, &minLat, &maxLon, &maxLat)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: record bounds")
	}
	stats.MinLon, stats.MinLat = minLon.Float64, minLat.Float64
	stats.MaxLon, stats.MaxLat = maxLon.Float64, maxLat.Float64

	for _, group := range []struct {
		col  string
		dest map[string]int
	}{
		{"offense", stats.ByOffense},
		{"method", stats.ByMethod},
	} {
		col, dest := group.col, group.dest
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+col+`, COUNT(*) FROM records GROUP BY `+col)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: count by %s", col)
		}
		for rows.Next() {
			var value string
			var count int
			if err := rows.Scan(&value, &count); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "sqlite: scan %s count", col)
			}
			dest[value] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "sqlite: iterate %s counts", col)
		}
		rows.Close()
	}
	return stats, nil
}
