package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
)

// MockReadingService implements service.ReadingService for testing
type MockReadingService struct {
	ListCatalogFn     func(ctx context.Context) ([]domain.Card, error)
	DrawRandomFn      func(ctx context.Context, count int) ([]domain.DrawnCard, error)
	CreateReadingFn   func(ctx context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error)
	CreateAIReadingFn func(ctx context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error)
	SaveReadingFn     func(ctx context.Context, userID, readingID uuid.UUID) error
	GetReadingFn      func(ctx context.Context, userID, readingID uuid.UUID) (*domain.Reading, error)
	ListReadingsFn    func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Reading, error)

	// Default return values
	Cards        []domain.Card
	Drawn        []domain.DrawnCard
	Reading      *domain.Reading
	Readings     []*domain.Reading
	DefaultError error
}

// ListCatalog implements the ReadingService.ListCatalog method
func (m *MockReadingService) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	if m.ListCatalogFn != nil {
		return m.ListCatalogFn(ctx)
	}
	return m.Cards, m.DefaultError
}

// DrawRandom implements the ReadingService.DrawRandom method
func (m *MockReadingService) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	if m.DrawRandomFn != nil {
		return m.DrawRandomFn(ctx, count)
	}
	return m.Drawn, m.DefaultError
}

// CreateReading implements the ReadingService.CreateReading method
func (m *MockReadingService) CreateReading(
	ctx context.Context,
	userID uuid.UUID,
	req gateway.ReadingRequest,
) (*domain.Reading, error) {
	if m.CreateReadingFn != nil {
		return m.CreateReadingFn(ctx, userID, req)
	}
	return m.Reading, m.DefaultError
}

// CreateAIReading implements the ReadingService.CreateAIReading method
func (m *MockReadingService) CreateAIReading(
	ctx context.Context,
	userID uuid.UUID,
	req gateway.ReadingRequest,
) (*domain.Reading, error) {
	if m.CreateAIReadingFn != nil {
		return m.CreateAIReadingFn(ctx, userID, req)
	}
	return m.Reading, m.DefaultError
}

// SaveReading implements the ReadingService.SaveReading method
func (m *MockReadingService) SaveReading(ctx context.Context, userID, readingID uuid.UUID) error {
	if m.SaveReadingFn != nil {
		return m.SaveReadingFn(ctx, userID, readingID)
	}
	return m.DefaultError
}

// GetReading implements the ReadingService.GetReading method
func (m *MockReadingService) GetReading(ctx context.Context, userID, readingID uuid.UUID) (*domain.Reading, error) {
	if m.GetReadingFn != nil {
		return m.GetReadingFn(ctx, userID, readingID)
	}
	return m.Reading, m.DefaultError
}

// ListReadings implements the ReadingService.ListReadings method
func (m *MockReadingService) ListReadings(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Reading, error) {
	if m.ListReadingsFn != nil {
		return m.ListReadingsFn(ctx, userID, limit, offset)
	}
	return m.Readings, m.DefaultError
}
