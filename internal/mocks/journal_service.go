package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
)

// MockJournalService implements service.JournalService for testing
type MockJournalService struct {
	FetchFn  func(ctx context.Context, userID, id uuid.UUID) (*domain.JournalEntry, error)
	ListFn   func(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
	CreateFn func(ctx context.Context, userID uuid.UUID, in domain.JournalInput) (*domain.JournalEntry, error)
	UpdateFn func(ctx context.Context, userID, id uuid.UUID, in domain.JournalInput) (*domain.JournalEntry, error)
	DeleteFn func(ctx context.Context, userID, id uuid.UUID) error

	// Default return values
	Entry        *domain.JournalEntry
	Entries      []*domain.JournalEntry
	DefaultError error
}

// Fetch implements the JournalService.Fetch method
func (m *MockJournalService) Fetch(ctx context.Context, userID, id uuid.UUID) (*domain.JournalEntry, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, userID, id)
	}
	return m.Entry, m.DefaultError
}

// List implements the JournalService.List method
func (m *MockJournalService) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return m.Entries, m.DefaultError
}

// Create implements the JournalService.Create method
func (m *MockJournalService) Create(
	ctx context.Context,
	userID uuid.UUID,
	in domain.JournalInput,
) (*domain.JournalEntry, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, in)
	}
	return m.Entry, m.DefaultError
}

// Update implements the JournalService.Update method
func (m *MockJournalService) Update(
	ctx context.Context,
	userID, id uuid.UUID,
	in domain.JournalInput,
) (*domain.JournalEntry, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, id, in)
	}
	return m.Entry, m.DefaultError
}

// Delete implements the JournalService.Delete method
func (m *MockJournalService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, id)
	}
	return m.DefaultError
}
