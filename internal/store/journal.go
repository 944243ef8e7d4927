package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
)

// JournalStore defines the interface for journal entry persistence.
type JournalStore interface {
	// Create saves a new journal entry.
	// Returns ErrInvalidEntity wrapping the validation error if it is invalid.
	Create(ctx context.Context, entry *domain.JournalEntry) error

	// GetByID retrieves an entry by its unique ID.
	// Returns ErrJournalNotFound if the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error)

	// List returns the entries matching filter, newest first. filter.UserID
	// is required.
	List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)

	// Update saves changes to an existing entry.
	// Returns ErrJournalNotFound if the entry does not exist.
	Update(ctx context.Context, entry *domain.JournalEntry) error

	// Delete removes an entry.
	// Returns ErrJournalNotFound if the entry does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new JournalStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) JournalStore
}
