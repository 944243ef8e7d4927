package testdb

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvTarotDatabaseURL, "")
	assert.Empty(t, DatabaseURL())
	assert.True(t, ShouldSkip())

	t.Setenv(EnvTarotDatabaseURL, "postgres://tarot@localhost/tarot")
	assert.Equal(t, "postgres://tarot@localhost/tarot", DatabaseURL())

	t.Setenv(EnvDatabaseURL, "postgres://primary@localhost/arcana")
	assert.Equal(t, "postgres://primary@localhost/arcana", DatabaseURL())
	assert.False(t, ShouldSkip())
}

func TestWithTx_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO readings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec("INSERT INTO readings (id) VALUES ($1)", 1)
		require.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		WithTx(t, db, func(*testing.T, *sql.Tx) {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_SkipsWithoutURL(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvTarotDatabaseURL, "")

	ran := false
	t.Run("skipped", func(t *testing.T) {
		Open(t, nil)
		ran = true
	})
	assert.False(t, ran, "Open skips the test before returning")
}
