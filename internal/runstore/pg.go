package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Schema creates the archive table. Migrate applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         UUID PRIMARY KEY,
	kind       TEXT NOT NULL,
	scenario   TEXT NOT NULL DEFAULT '',
	plans      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at_idx ON runs (created_at DESC);
`

const uniqueViolation = "23505"

// PGStore archives runs in Postgres.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// OpenPG opens a lib/pq connection pool and verifies it.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("runstore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runstore: ping: %w", err)
	}

	return NewPGStore(db), nil
}

// Migrate creates the schema if missing.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("runstore: migrate: %w", err)
	}

	return nil
}

// Close releases the pool.
func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PGStore) Save(ctx context.Context, run Run) (Run, error) {
	run = prepare(run)
	raw, err := encodePlans(run.Plans)
	if err != nil {
		return Run{}, err
	}

	const q = `
		INSERT INTO runs (id, kind, scenario, plans, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, q, run.ID, string(run.Kind), run.Scenario, raw, run.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return Run{}, ErrDuplicate
		}
		return Run{}, fmt.Errorf("runstore: insert run: %w", err)
	}

	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run  Run
		kind string
		raw  []byte
	)
	if err := row.Scan(&run.ID, &kind, &run.Scenario, &raw, &run.CreatedAt); err != nil {
		return Run{}, err
	}
	run.Kind = Kind(kind)
	plans, err := decodePlans(raw)
	if err != nil {
		return Run{}, err
	}
	run.Plans = plans

	return run, nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	const q = `
		SELECT id, kind, scenario, plans, created_at
		FROM runs WHERE id = $1
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("runstore: get run: %w", err)
	}

	return run, nil
}

// List returns the newest runs first.
func (s *PGStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	const q = `
		SELECT id, kind, scenario, plans, created_at
		FROM runs ORDER BY created_at DESC LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("runstore: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("runstore: scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runstore: list runs: %w", err)
	}

	return out, nil
}
