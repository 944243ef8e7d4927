package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every "no such row" error.
	ErrNotFound = errors.New("entity not found")

	// ErrReadingNotFound means no stored reading has the requested ID.
	ErrReadingNotFound = fmt.Errorf("%w: reading", ErrNotFound)

	// ErrJournalNotFound means no journal entry has the requested ID.
	ErrJournalNotFound = fmt.Errorf("%w: journal entry", ErrNotFound)

	// ErrDuplicate reports a unique-constraint conflict.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity wraps validation failures raised before a write, and
	// constraint violations reported by the database.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed marks a transaction that could not be committed.
	ErrTransactionFailed = errors.New("transaction failed")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// Entities named in StoreError.
const (
	EntityReading = "reading"
	EntityJournal = "journal"
)

// StoreError records which entity and operation a persistence failure came
// from while keeping the cause reachable through errors.Is and errors.As.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	prefix := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
