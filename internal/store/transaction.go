package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/arcana/internal/platform/logger"
)

// TxFn is the unit of work run by RunInTransaction. Returning an error
// rolls the transaction back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn inside a read-write transaction on db. The
// transaction commits when fn returns nil and rolls back on an error or a
// panic; a panic is re-raised after the rollback. Commit failures wrap
// ErrTransactionFailed.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) (err error) {
	log := logger.FromContext(ctx).With("component", "store_tx")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback after panic failed",
				slog.String("error", rbErr.Error()),
				slog.Any("panic", p))
		} else {
			log.Error("rolled back after panic", slog.Any("panic", p))
		}
		// ALLOW-PANIC: re-raising the caller's panic once the tx is released
		panic(p)
	}()

	if err = fn(ctx, tx); err != nil {
		return rollback(log, tx, err)
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", errors.Join(ErrTransactionFailed, err))
	}
	return nil
}

// rollback releases tx after cause and returns cause, annotated with the
// rollback failure when there is one.
func rollback(log *slog.Logger, tx *sql.Tx, cause error) error {
	rbErr := tx.Rollback()
	if rbErr == nil || errors.Is(rbErr, sql.ErrTxDone) {
		log.Debug("transaction rolled back", slog.String("cause", cause.Error()))
		return cause
	}
	log.Error("failed to roll back transaction",
		slog.String("rollback_error", rbErr.Error()),
		slog.String("cause", cause.Error()))
	return fmt.Errorf("error rolling back transaction: %v (cause: %w)", rbErr, cause)
}
