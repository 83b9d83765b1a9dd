// Package sqlite provides a [canonical.Store] kept in a local SQLite file.
//
// It suits single-host deployments that want the canonical map to survive a
// restart without running PostgreSQL. The driver is pure Go.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/MrWong99/hindinames/internal/canonical"
	"github.com/MrWong99/hindinames/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS canonical_entries (
	name              TEXT PRIMARY KEY,
	canonical         TEXT NOT NULL,
	variants          TEXT NOT NULL DEFAULT '[]',
	consistency_score REAL NOT NULL,
	frequency         INTEGER NOT NULL CHECK (frequency > 0),
	updated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_canonical_entries_consistency ON canonical_entries(consistency_score);
`

// Store is a [canonical.Store] backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ canonical.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
// The special path ":memory:" keeps everything in memory.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases
	// from splitting per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: init: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database answers queries.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Save upserts every entry of m in a single transaction.
func (s *Store) Save(ctx context.Context, m types.CanonicalMap) error {
	const query = `
		INSERT INTO canonical_entries (name, canonical, variants, consistency_score, frequency)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			canonical = excluded.canonical,
			variants = excluded.variants,
			consistency_score = excluded.consistency_score,
			frequency = excluded.frequency,
			updated_at = CURRENT_TIMESTAMP`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("sqlite: save: %w", err)
	}
	defer stmt.Close()

	for _, k := range m.Keys {
		e := m.Entries[k]
		variants, err := encodeVariants(e.Variants)
		if err != nil {
			return fmt.Errorf("sqlite: save %q: %w", k, err)
		}
		if _, err := stmt.ExecContext(ctx, k, e.Canonical, variants, e.ConsistencyScore, e.Frequency); err != nil {
			return fmt.Errorf("sqlite: save %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: save: %w", err)
	}
	return nil
}

// Get implements [canonical.Store].
func (s *Store) Get(ctx context.Context, name string) (types.CanonicalEntry, bool, error) {
	const query = `
		SELECT canonical, variants, consistency_score, frequency
		FROM canonical_entries
		WHERE name = ?`

	var (
		e        types.CanonicalEntry
		variants string
	)
	err := s.db.QueryRowContext(ctx, query, name).Scan(&e.Canonical, &variants, &e.ConsistencyScore, &e.Frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CanonicalEntry{}, false, nil
	}
	if err == nil {
		e.Variants, err = decodeVariants(variants)
	}
	if err != nil {
		return types.CanonicalEntry{}, false, fmt.Errorf("sqlite: get %q: %w", name, err)
	}
	return e, true, nil
}

// List implements [canonical.Store].
func (s *Store) List(ctx context.Context) (types.CanonicalMap, error) {
	const query = `
		SELECT name, canonical, variants, consistency_score, frequency
		FROM canonical_entries
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return types.CanonicalMap{}, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	out := types.CanonicalMap{Entries: make(map[string]types.CanonicalEntry)}
	for rows.Next() {
		var (
			name, variants string
			e              types.CanonicalEntry
		)
		if err := rows.Scan(&name, &e.Canonical, &variants, &e.ConsistencyScore, &e.Frequency); err != nil {
			return types.CanonicalMap{}, fmt.Errorf("sqlite: list scan: %w", err)
		}
		if e.Variants, err = decodeVariants(variants); err != nil {
			return types.CanonicalMap{}, fmt.Errorf("sqlite: list %q: %w", name, err)
		}
		out.Entries[name] = e
		out.Keys = append(out.Keys, name)
	}
	if err := rows.Err(); err != nil {
		return types.CanonicalMap{}, fmt.Errorf("sqlite: list: %w", err)
	}
	return out, nil
}

func encodeVariants(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeVariants(s string) ([]string, error) {
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	return v, nil
}
