package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/arcana/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrReadingNotFound indicates that the reading does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrReadingNotFound = errors.New("reading not found")

	// ErrJournalNotFound indicates that the journal entry does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrJournalNotFound = errors.New("journal entry not found")
)

// ReadingServiceError wraps errors from the reading service with context.
type ReadingServiceError struct {
	// Operation is the operation that failed (e.g., "create_reading", "save_reading")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ReadingServiceError.
func (e *ReadingServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reading service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("reading service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ReadingServiceError) Unwrap() error {
	return e.Err
}

// NewReadingServiceError creates a new ReadingServiceError.
// It returns known sentinel errors directly without wrapping.
func NewReadingServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrReadingNotFound) || errors.Is(err, store.ErrReadingNotFound) {
		return ErrReadingNotFound
	}
	if errors.Is(err, ErrNotOwned) {
		return ErrNotOwned
	}

	return &ReadingServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// JournalServiceError wraps errors from the journal service with context.
type JournalServiceError struct {
	// Operation is the operation that failed (e.g., "create_journal", "delete_journal")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for JournalServiceError.
func (e *JournalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("journal service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("journal service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JournalServiceError) Unwrap() error {
	return e.Err
}

// NewJournalServiceError creates a new JournalServiceError.
// It returns known sentinel errors directly without wrapping.
func NewJournalServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrJournalNotFound) || errors.Is(err, store.ErrJournalNotFound) {
		return ErrJournalNotFound
	}
	if errors.Is(err, ErrNotOwned) {
		return ErrNotOwned
	}

	return &JournalServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
