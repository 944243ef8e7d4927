package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
)

// ReadingStore defines the interface for reading persistence.
type ReadingStore interface {
	// Create saves a new reading. It validates the reading first and returns
	// ErrInvalidEntity wrapping the validation error if it is invalid.
	Create(ctx context.Context, reading *domain.Reading) error

	// GetByID retrieves a reading by its unique ID.
	// Returns ErrReadingNotFound if the reading does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error)

	// MarkSaved flags the reading as kept by its owner.
	// Returns ErrReadingNotFound if the reading does not exist.
	MarkSaved(ctx context.Context, id uuid.UUID) error

	// ListByUser returns a user's readings, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Reading, error)

	// WithTx returns a new ReadingStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReadingStore
}
