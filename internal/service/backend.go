package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/service/auth"
)

// Backend serves the gateway contract in process. The calling user is taken
// from the context (see auth.ContextWithUserID), or fixed with ForUser.
type Backend struct {
	readings ReadingService
	journals JournalService
}

// NewBackend composes the reading and journal services.
func NewBackend(readings ReadingService, journals JournalService) (*Backend, error) {
	if readings == nil {
		return nil, &ReadingServiceError{Operation: "create_backend", Message: "readings cannot be nil"}
	}
	if journals == nil {
		return nil, &JournalServiceError{Operation: "create_backend", Message: "journals cannot be nil"}
	}
	return &Backend{readings: readings, journals: journals}, nil
}

var _ gateway.Gateway = (*Backend)(nil)

// ForUser returns a gateway that always acts as userID, for callers whose
// contexts do not carry the user, such as scheduled session steps.
func (b *Backend) ForUser(userID uuid.UUID) gateway.Gateway {
	return &userBackend{backend: b, userID: userID}
}

// currentUser returns the authenticated user. A missing user is reported as
// expired authentication so sessions stop instead of retrying.
func currentUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %w", domain.ErrAuthExpired, auth.ErrNoUser)
	}
	return id, nil
}

// gatewayError hides ownership behind not-found, as a remote backend would.
func gatewayError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrReadingNotFound), errors.Is(err, ErrJournalNotFound), errors.Is(err, ErrNotOwned):
		return fmt.Errorf("%w: %v", gateway.ErrNotFound, err)
	default:
		return err
	}
}

// ListCatalog implements gateway.ReadingGateway.
func (b *Backend) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	cards, err := b.readings.ListCatalog(ctx)
	return cards, gatewayError(err)
}

// DrawRandom implements gateway.ReadingGateway.
func (b *Backend) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	cards, err := b.readings.DrawRandom(ctx, count)
	return cards, gatewayError(err)
}

// CreateReading implements gateway.ReadingGateway.
func (b *Backend) CreateReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return gateway.ReadingResult{}, err
	}
	reading, err := b.readings.CreateReading(ctx, userID, req)
	if err != nil {
		return gateway.ReadingResult{}, gatewayError(err)
	}
	return resultOf(reading), nil
}

// CreateAIReading implements gateway.ReadingGateway.
func (b *Backend) CreateAIReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return gateway.ReadingResult{}, err
	}
	reading, err := b.readings.CreateAIReading(ctx, userID, req)
	if err != nil {
		return gateway.ReadingResult{}, gatewayError(err)
	}
	return resultOf(reading), nil
}

func resultOf(reading *domain.Reading) gateway.ReadingResult {
	interp := reading.Interpretation.Clone()
	return gateway.ReadingResult{ReadingID: reading.ID, Interpretation: &interp}
}

// SaveReading implements gateway.ReadingGateway.
func (b *Backend) SaveReading(ctx context.Context, readingID uuid.UUID) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	return gatewayError(b.readings.SaveReading(ctx, userID, readingID))
}

// FetchJournal implements gateway.JournalGateway.
func (b *Backend) FetchJournal(ctx context.Context, id uuid.UUID) (domain.JournalEntry, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	entry, err := b.journals.Fetch(ctx, userID, id)
	if err != nil {
		return domain.JournalEntry{}, gatewayError(err)
	}
	return *entry, nil
}

// ListJournals implements gateway.JournalGateway. filter.UserID is replaced
// by the calling user.
func (b *Backend) ListJournals(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	filter.UserID = userID
	entries, err := b.journals.List(ctx, filter)
	if err != nil {
		return nil, gatewayError(err)
	}
	out := make([]domain.JournalEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out, nil
}

// CreateJournal implements gateway.JournalGateway.
func (b *Backend) CreateJournal(ctx context.Context, in domain.JournalInput) (domain.JournalEntry, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	entry, err := b.journals.Create(ctx, userID, in)
	if err != nil {
		return domain.JournalEntry{}, gatewayError(err)
	}
	return *entry, nil
}

// UpdateJournal implements gateway.JournalGateway.
func (b *Backend) UpdateJournal(ctx context.Context, id uuid.UUID, in domain.JournalInput) (domain.JournalEntry, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	entry, err := b.journals.Update(ctx, userID, id, in)
	if err != nil {
		return domain.JournalEntry{}, gatewayError(err)
	}
	return *entry, nil
}

// DeleteJournal implements gateway.JournalGateway.
func (b *Backend) DeleteJournal(ctx context.Context, id uuid.UUID) error {
	userID, err := currentUser(ctx)
	if err != nil {
		return err
	}
	return gatewayError(b.journals.Delete(ctx, userID, id))
}

// userBackend pins every call to one user.
type userBackend struct {
	backend *Backend
	userID  uuid.UUID
}

func (u *userBackend) ctx(ctx context.Context) context.Context {
	return auth.ContextWithUserID(ctx, u.userID)
}

func (u *userBackend) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	return u.backend.ListCatalog(u.ctx(ctx))
}

func (u *userBackend) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	return u.backend.DrawRandom(u.ctx(ctx), count)
}

func (u *userBackend) CreateReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	return u.backend.CreateReading(u.ctx(ctx), req)
}

func (u *userBackend) CreateAIReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	return u.backend.CreateAIReading(u.ctx(ctx), req)
}

func (u *userBackend) SaveReading(ctx context.Context, readingID uuid.UUID) error {
	return u.backend.SaveReading(u.ctx(ctx), readingID)
}

func (u *userBackend) FetchJournal(ctx context.Context, id uuid.UUID) (domain.JournalEntry, error) {
	return u.backend.FetchJournal(u.ctx(ctx), id)
}

func (u *userBackend) ListJournals(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	return u.backend.ListJournals(u.ctx(ctx), filter)
}

func (u *userBackend) CreateJournal(ctx context.Context, in domain.JournalInput) (domain.JournalEntry, error) {
	return u.backend.CreateJournal(u.ctx(ctx), in)
}

func (u *userBackend) UpdateJournal(ctx context.Context, id uuid.UUID, in domain.JournalInput) (domain.JournalEntry, error) {
	return u.backend.UpdateJournal(u.ctx(ctx), id, in)
}

func (u *userBackend) DeleteJournal(ctx context.Context, id uuid.UUID) error {
	return u.backend.DeleteJournal(u.ctx(ctx), id)
}
