package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/arcana/internal/redact"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Environment variables checked for the test database URL, in order.
const (
	EnvDatabaseURL      = "DATABASE_URL"
	EnvTarotDatabaseURL = "TAROT_DATABASE_URL"
)

// MigrateFunc brings the schema of db up to date.
type MigrateFunc func(ctx context.Context, db *sql.DB) error

var (
	migrateOnce sync.Once
	migrateErr  error
)

// DatabaseURL returns the configured test database URL, or "" when none is
// set.
func DatabaseURL() string {
	for _, key := range []string{EnvDatabaseURL, EnvTarotDatabaseURL} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkip reports whether database tests should be skipped.
func ShouldSkip() bool {
	return DatabaseURL() == ""
}

// Open connects to the test database, skipping the test when none is
// configured. migrate runs once per test binary; a nil migrate leaves the
// schema alone. The connection is closed when the test ends.
func Open(t *testing.T, migrate MigrateFunc) *sql.DB {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("failed to open test database: %v", redact.Error(err))
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", redact.Error(err))
	}

	if migrate != nil {
		migrateOnce.Do(func() {
			migrateErr = migrate(context.Background(), db)
		})
		if migrateErr != nil {
			t.Fatalf("failed to migrate test database: %v", migrateErr)
		}
	}
	return db
}

// WithTx runs fn in a transaction that is always rolled back, including
// when fn panics.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", redact.Error(err))
	}

	defer func() {
		// sql.ErrTxDone is expected if fn already ended the transaction.
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
