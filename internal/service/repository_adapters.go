package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/store"
)

// ReadingRepository defines the reading persistence the service layer needs.
type ReadingRepository interface {
	Create(ctx context.Context, reading *domain.Reading) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error)
	MarkSaved(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Reading, error)

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) ReadingRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// JournalRepository defines the journal persistence the service layer needs.
type JournalRepository interface {
	Create(ctx context.Context, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error)
	List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
	Update(ctx context.Context, entry *domain.JournalEntry) error
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx *sql.Tx) JournalRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// ReadingRepositoryAdapter adapts a store.ReadingStore to ReadingRepository.
type ReadingRepositoryAdapter struct {
	store.ReadingStore
	db *sql.DB
}

// NewReadingRepositoryAdapter creates an adapter over readingStore. db is the
// connection transactions are started on.
func NewReadingRepositoryAdapter(readingStore store.ReadingStore, db *sql.DB) *ReadingRepositoryAdapter {
	return &ReadingRepositoryAdapter{ReadingStore: readingStore, db: db}
}

// WithTx implements ReadingRepository.
func (a *ReadingRepositoryAdapter) WithTx(tx *sql.Tx) ReadingRepository {
	return &ReadingRepositoryAdapter{ReadingStore: a.ReadingStore.WithTx(tx), db: a.db}
}

// DB implements ReadingRepository.
func (a *ReadingRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// JournalRepositoryAdapter adapts a store.JournalStore to JournalRepository.
type JournalRepositoryAdapter struct {
	store.JournalStore
	db *sql.DB
}

// NewJournalRepositoryAdapter creates an adapter over journalStore.
func NewJournalRepositoryAdapter(journalStore store.JournalStore, db *sql.DB) *JournalRepositoryAdapter {
	return &JournalRepositoryAdapter{JournalStore: journalStore, db: db}
}

// WithTx implements JournalRepository.
func (a *JournalRepositoryAdapter) WithTx(tx *sql.Tx) JournalRepository {
	return &JournalRepositoryAdapter{JournalStore: a.JournalStore.WithTx(tx), db: a.db}
}

// DB implements JournalRepository.
func (a *JournalRepositoryAdapter) DB() *sql.DB {
	return a.db
}

var (
	_ ReadingRepository = (*ReadingRepositoryAdapter)(nil)
	_ JournalRepository = (*JournalRepositoryAdapter)(nil)
)
