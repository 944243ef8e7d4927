package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/arcana/internal/store"
)

// SQLSTATE codes the stores translate.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors maps integrity violations onto store sentinels. A
// journal entry pointing at a missing reading, or a reading row failing a
// CHECK on domain or mode, both surface as ErrInvalidEntity.
var constraintErrors = map[string]struct {
	sentinel error
	label    string
}{
	uniqueViolationCode:     {store.ErrDuplicate, "unique violation"},
	foreignKeyViolationCode: {store.ErrInvalidEntity, "foreign key violation"},
	checkViolationCode:      {store.ErrInvalidEntity, "check constraint violation"},
	notNullViolationCode:    {store.ErrInvalidEntity, "not null violation"},
}

// MapError translates driver errors into the store taxonomy. Unknown errors
// pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	mapped, ok := constraintErrors[pgErr.Code]
	if !ok {
		return err
	}
	subject := pgErr.ConstraintName
	if subject == "" {
		subject = pgErr.ColumnName
	}
	if subject == "" {
		return fmt.Errorf("%w: %s: %v", mapped.sentinel, mapped.label, err)
	}
	return fmt.Errorf("%w: %s (%s): %v", mapped.sentinel, mapped.label, subject, err)
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected returns notFound (store.ErrNotFound when nil) if an
// UPDATE or DELETE matched no row.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}
