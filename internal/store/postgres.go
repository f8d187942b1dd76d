package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/district-insights/crimemap/internal/dataset"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a mock.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	offense    TEXT NOT NULL,
	method     TEXT NOT NULL,
	start_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	loaded     INTEGER NOT NULL,
	dropped    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_records_offense ON records(offense);
CREATE INDEX IF NOT EXISTS idx_records_method ON records(method);
CREATE INDEX IF NOT EXISTS idx_import_runs_created_at ON import_runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceRecords(ctx context.Context, source string, records []dataset.Record, dropped int) (*ImportRun, error) {
	run := &ImportRun{
		ID:        uuid.New().String(),
		Source:    source,
		Loaded:    len(records),
		Dropped:   dropped,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM records`); err != nil {
		return nil, eris.Wrap(err, "postgres: clear records")
	}

	// COPY is the fastest path for the full record set.
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Latitude, r.Longitude, r.Offense, r.Method, r.StartDate})
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"records"},
			[]string{"lat", "lon", "offense", "method", "start_date"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: copy records")
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO import_runs (id, source, loaded, dropped, created_at) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Source, run.Loaded, run.Dropped, run.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert import run")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit")
	}
	return run, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context) ([]dataset.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lat, lon, offense, method, start_date FROM records`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []dataset.Record
	for rows.Next() {
		var r dataset.Record
		if err := rows.Scan(&r.Latitude, &r.Longitude, &r.Offense, &r.Method, &r.StartDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, loaded, dropped, created_at FROM import_runs ORDER BY created_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(&run.ID, &run.Source, &run.Loaded, &run.Dropped, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByOffense: map[string]int{},
		ByMethod:  map[string]int{},
	}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(MIN(lon), 0), COALESCE(MIN(lat), 0), COALESCE(MAX(lon), 0), COALESCE(MAX(lat), 0) FROM records`,
	).Scan(&stats.Records, &stats.MinLon, &stats.MinLat, &stats.MaxLon, &stats.MaxLat)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: record bounds")
	}

	for _, group := range []struct {
		col  string
		dest map[string]int
	}{
		{"offense", stats.ByOffense},
		{"method", stats.ByMethod},
	} {
		col, dest := group.col, group.dest
		rows, err := s.pool.Query(ctx,
			`SELECT `+col+`, COUNT(*) FROM records GROUP BY `+col)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: count by %s", col)
		}
		for rows.Next() {
			var value string
			var count int
			if err := rows.Scan(&value, &count); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "postgres: scan %s count", col)
			}
			dest[value] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "postgres: iterate %s counts", col)
		}
		rows.Close()
	}
	return stats, nil
}
