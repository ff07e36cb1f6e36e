// Package sqlstore implements kv.Store on a single kv_store table through
// database/sql. Postgres keeps values as JSONB, SQLite as TEXT.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"resourcehub/internal/database"
	"resourcehub/internal/kv"
)

type queries struct {
	get    string
	set    string
	delete string
	prefix string
}

var dialectQueries = map[database.Dialect]queries{
	database.Postgres: {
		get: `SELECT value FROM kv_store WHERE key = $1`,
		set: `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		delete: `DELETE FROM kv_store WHERE key = $1`,
		prefix: `SELECT key, value FROM kv_store WHERE key LIKE $1 ESCAPE '\'`,
	},
	database.SQLite: {
		get: `SELECT value FROM kv_store WHERE key = ?`,
		set: `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		delete: `DELETE FROM kv_store WHERE key = ?`,
		// LIKE is case-insensitive in SQLite, so compare the leading characters instead.
		prefix: `SELECT key, value FROM kv_store WHERE substr(key, 1, ?) = ?`,
	},
}

// Store is a kv.Store backed by a SQL table. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	dialect database.Dialect
	q       queries
}

var (
	_ kv.Store  = (*Store)(nil)
	_ kv.Pinger = (*Store)(nil)
)

// New returns a Store for db speaking the given dialect.
func New(db *sql.DB, dialect database.Dialect) (*Store, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", dialect)
	}
	return &Store{db: db, dialect: dialect, q: q}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var v []byte
	if err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return json.RawMessage(v), nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key string, value json.RawMessage) error {
	if _, err := s.db.ExecContext(ctx, s.q.set, key, string(value)); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// GetByPrefix scans all rows whose key begins with prefix.
func (s *Store) GetByPrefix(ctx context.Context, prefix string) ([]kv.Entry, error) {
	var args []any
	switch s.dialect {
	case database.SQLite:
		args = []any{utf8.RuneCountInString(prefix), prefix}
	default:
		args = []any{escapeLike(prefix) + "%"}
	}

	rows, err := s.db.QueryContext(ctx, s.q.prefix, args...)
	if err != nil {
		return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
	}
	defer rows.Close()

	out := make([]kv.Entry, 0)
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
		}
		out = append(out, kv.Entry{Key: k, Value: json.RawMessage(v)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv scan %s: %w", prefix, err)
	}
	return out, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
