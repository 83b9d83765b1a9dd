// Package postgres provides a PostgreSQL-backed [canonical.Store].
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/hindinames/internal/canonical"
	"github.com/MrWong99/hindinames/pkg/types"
)

// Schema is the SQL DDL for the canonical_entries table. Execute it via
// [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS canonical_entries (
    name              TEXT PRIMARY KEY,
    canonical         TEXT NOT NULL,
    variants          TEXT[] NOT NULL DEFAULT '{}',
    consistency_score DOUBLE PRECISION NOT NULL,
    frequency         INTEGER NOT NULL CHECK (frequency > 0),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_canonical_entries_consistency ON canonical_entries(consistency_score);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a [canonical.Store] backed by PostgreSQL.
type Store struct {
	db DB
}

var _ canonical.Store = (*Store)(nil)

// New returns a [Store] using db. Call [Store.Migrate] before the first
// query.
func New(db DB) *Store {
	return &Store{db: db}
}

// Open connects a pool to dsn, verifies connectivity and applies [Schema].
// The returned close function releases the pool.
func Open(ctx context.Context, dsn string) (*Store, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// Migrate executes the [Schema] DDL.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Ping reports whether the database answers queries.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Save upserts every entry of m in key order.
func (s *Store) Save(ctx context.Context, m types.CanonicalMap) error {
	const query = `
		INSERT INTO canonical_entries (name, canonical, variants, consistency_score, frequency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			canonical = EXCLUDED.canonical,
			variants = EXCLUDED.variants,
			consistency_score = EXCLUDED.consistency_score,
			frequency = EXCLUDED.frequency,
			updated_at = now()`

	for _, k := range m.Keys {
		e := m.Entries[k]
		if _, err := s.db.Exec(ctx, query, k, e.Canonical, emptySlice(e.Variants), e.ConsistencyScore, e.Frequency); err != nil {
			return fmt.Errorf("postgres: save %q: %w", k, err)
		}
	}
	return nil
}

// Get implements [canonical.Store].
func (s *Store) Get(ctx context.Context, name string) (types.CanonicalEntry, bool, error) {
	const query = `
		SELECT canonical, variants, consistency_score, frequency
		FROM canonical_entries
		WHERE name = $1`

	var e types.CanonicalEntry
	err := s.db.QueryRow(ctx, query, name).Scan(&e.Canonical, &e.Variants, &e.ConsistencyScore, &e.Frequency)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.CanonicalEntry{}, false, nil
	}
	if err != nil {
		return types.CanonicalEntry{}, false, fmt.Errorf("postgres: get %q: %w", name, err)
	}
	return e, true, nil
}

// List implements [canonical.Store].
func (s *Store) List(ctx context.Context) (types.CanonicalMap, error) {
	const query = `
		SELECT name, canonical, variants, consistency_score, frequency
		FROM canonical_entries
		ORDER BY name`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return types.CanonicalMap{}, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	out := types.CanonicalMap{Entries: make(map[string]types.CanonicalEntry)}
	for rows.Next() {
		var (
			name string
			e    types.CanonicalEntry
		)
		if err := rows.Scan(&name, &e.Canonical, &e.Variants, &e.ConsistencyScore, &e.Frequency); err != nil {
			return types.CanonicalMap{}, fmt.Errorf("postgres: list scan: %w", err)
		}
		out.Entries[name] = e
		out.Keys = append(out.Keys, name)
	}
	if err := rows.Err(); err != nil {
		return types.CanonicalMap{}, fmt.Errorf("postgres: list: %w", err)
	}
	return out, nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice so the
// column receives '{}' instead of NULL.
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
