package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"resourcehub/internal/database"
)

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()

	t.Run("already migrated", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)

		mock.ExpectQuery(`SELECT to_regclass\('public.kv_store'\)`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = EnsureMigrated(ctx, db, database.Postgres, zap.New(core))
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 1, logs.FilterMessage("db_migration_skip").Len())
	})

	t.Run("runs postgres steps", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT to_regclass`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_store`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_kv_store_key_prefix`).WillReturnResult(sqlmock.NewResult(0, 0))

		err = EnsureMigrated(ctx, db, database.Postgres, zap.NewNop())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs sqlite steps", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM sqlite_master`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_store`).WillReturnResult(sqlmock.NewResult(0, 0))

		err = EnsureMigrated(ctx, db, database.SQLite, zap.NewNop())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("step failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT to_regclass`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_store`).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(ctx, db, database.Postgres, zap.NewNop())
		assert.ErrorContains(t, err, "migration step create_table_kv_store failed: permission denied")
	})

	t.Run("sentinel failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT to_regclass`).WillReturnError(errors.New("conn reset"))

		err = EnsureMigrated(ctx, db, database.Postgres, zap.NewNop())
		assert.ErrorContains(t, err, "failed to check sentinel table")
	})

	t.Run("unsupported dialect", func(t *testing.T) {
		err := EnsureMigrated(ctx, nil, database.Dialect("oracle"), zap.NewNop())
		assert.Error(t, err)
	})
}
