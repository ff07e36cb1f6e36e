package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"resourcehub/internal/database"
	"resourcehub/internal/database/migration"
	"resourcehub/internal/kv"
)

func newPostgresMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := New(db, database.Postgres)
	require.NoError(t, err)
	return s, mock
}

func TestNewUnsupportedDialect(t *testing.T) {
	_, err := New(nil, database.Dialect("mysql"))
	assert.Error(t, err)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s, mock := newPostgresMock(t)
		mock.ExpectQuery(`SELECT value FROM kv_store WHERE key = \$1`).
			WithArgs("resource:1").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"id":"1"}`)))

		v, err := s.Get(ctx, "resource:1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"1"}`, string(v))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newPostgresMock(t)
		mock.ExpectQuery(`SELECT value FROM kv_store`).
			WithArgs("resource:missing").
			WillReturnError(sql.ErrNoRows)

		_, err := s.Get(ctx, "resource:missing")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		s, mock := newPostgresMock(t)
		mock.ExpectQuery(`SELECT value FROM kv_store`).
			WithArgs("resource:1").
			WillReturnError(errors.New("conn refused"))

		_, err := s.Get(ctx, "resource:1")
		assert.ErrorContains(t, err, "kv get resource:1: conn refused")
		assert.NotErrorIs(t, err, kv.ErrNotFound)
	})
}

func TestStore_Set(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectExec(`INSERT INTO kv_store \(key, value, updated_at\)`).
		WithArgs("resource:1", `{"id":"1"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Set(context.Background(), "resource:1", json.RawMessage(`{"id":"1"}`))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectExec(`DELETE FROM kv_store WHERE key = \$1`).
		WithArgs("resource:1").
		WillReturnError(errors.New("read only"))

	err := s.Delete(context.Background(), "resource:1")
	assert.ErrorContains(t, err, "read only")
}

func TestStore_GetByPrefix(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectQuery(`SELECT key, value FROM kv_store WHERE key LIKE \$1`).
		WithArgs(`resource\_x:%`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("resource_x:1", []byte(`{"id":"1"}`)).
			AddRow("resource_x:2", []byte(`{"id":"2"}`)))

	entries, err := s.GetByPrefix(context.Background(), "resource_x:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "resource_x:1", entries[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "resource:", escapeLike("resource:"))
}

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.EnsureMigrated(ctx, db, database.SQLite, zap.NewNop()))

	s, err := New(db, database.SQLite)
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Set(ctx, "resource:1", json.RawMessage(`{"id":"1"}`)))
	require.NoError(t, s.Set(ctx, "resource:2", json.RawMessage(`{"id":"2"}`)))
	require.NoError(t, s.Set(ctx, "RESOURCE:3", json.RawMessage(`{"id":"3"}`)))
	require.NoError(t, s.Set(ctx, "resource:1", json.RawMessage(`{"id":"1","v":2}`)))

	v, err := s.Get(ctx, "resource:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","v":2}`, string(v))

	entries, err := s.GetByPrefix(ctx, "resource:")
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"resource:1", "resource:2"}, keys)

	require.NoError(t, s.Delete(ctx, "resource:1"))
	_, err = s.Get(ctx, "resource:1")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}
