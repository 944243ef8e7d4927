package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/stretchr/testify/mock"
)

// MockReadingRepository mocks the ReadingRepository interface. WithTx returns
// the same mock so expectations hold inside transactions.
type MockReadingRepository struct {
	mock.Mock
	db *sql.DB
}

func (m *MockReadingRepository) Create(ctx context.Context, reading *domain.Reading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reading, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

func (m *MockReadingRepository) MarkSaved(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReadingRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Reading, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reading), args.Error(1)
}

func (m *MockReadingRepository) WithTx(tx *sql.Tx) ReadingRepository {
	return m
}

func (m *MockReadingRepository) DB() *sql.DB {
	return m.db
}

// MockJournalRepository mocks the JournalRepository interface.
type MockJournalRepository struct {
	mock.Mock
	db *sql.DB
}

func (m *MockJournalRepository) Create(ctx context.Context, entry *domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) Update(ctx context.Context, entry *domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJournalRepository) WithTx(tx *sql.Tx) JournalRepository {
	return m
}

func (m *MockJournalRepository) DB() *sql.DB {
	return m.db
}

// MockReadingService mocks the ReadingService interface.
type MockReadingService struct {
	mock.Mock
}

func (m *MockReadingService) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

func (m *MockReadingService) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	args := m.Called(ctx, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DrawnCard), args.Error(1)
}

func (m *MockReadingService) CreateReading(
	ctx context.Context,
	userID uuid.UUID,
	req gateway.ReadingRequest,
) (*domain.Reading, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

func (m *MockReadingService) CreateAIReading(
	ctx context.Context,
	userID uuid.UUID,
	req gateway.ReadingRequest,
) (*domain.Reading, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

func (m *MockReadingService) SaveReading(ctx context.Context, userID, readingID uuid.UUID) error {
	args := m.Called(ctx, userID, readingID)
	return args.Error(0)
}

func (m *MockReadingService) GetReading(ctx context.Context, userID, readingID uuid.UUID) (*domain.Reading, error) {
	args := m.Called(ctx, userID, readingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

func (m *MockReadingService) ListReadings(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Reading, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reading), args.Error(1)
}

// MockJournalService mocks the JournalService interface.
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) Fetch(ctx context.Context, userID, id uuid.UUID) (*domain.JournalEntry, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) Create(
	ctx context.Context,
	userID uuid.UUID,
	in domain.JournalInput,
) (*domain.JournalEntry, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) Update(
	ctx context.Context,
	userID, id uuid.UUID,
	in domain.JournalInput,
) (*domain.JournalEntry, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
