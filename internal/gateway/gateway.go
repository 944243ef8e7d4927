// Package gateway defines the contract between the reading core and the
// backend that serves catalogs, draws, readings and journals.
//
// Two implementations exist: the remote HTTP client in gateway/remote and the
// in-process service.Backend. Every backend-authored interpretation crosses
// this boundary through NormalizeInterpretation, so the core only ever sees
// the canonical domain.Interpretation shape.
package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
)

// Gateway errors
var (
	// ErrMalformedResponse is returned when a backend payload cannot be
	// normalized into the canonical shape.
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrNotFound is returned when the backend has no such resource.
	ErrNotFound = errors.New("resource not found")
)

// ReadingRequest describes a completed selection to persist.
type ReadingRequest struct {
	Mode      domain.Mode           `json:"mode"`
	Domain    domain.Domain         `json:"domain"`
	Question  string                `json:"question,omitempty"`
	Selection []domain.SelectedCard `json:"selection"`

	// Interpretation is the locally computed interpretation, if any. The
	// backend may keep it or author its own.
	Interpretation *domain.Interpretation `json:"interpretation,omitempty"`
}

// ReadingResult is the canonical result of creating a reading.
type ReadingResult struct {
	ReadingID uuid.UUID `json:"reading_id"`

	// Interpretation is nil when the backend did not author one.
	Interpretation *domain.Interpretation `json:"interpretation,omitempty"`
}

// ReadingGateway is the part of the backend the session state machine uses.
type ReadingGateway interface {
	// ListCatalog returns the full ordered card catalog.
	ListCatalog(ctx context.Context) ([]domain.Card, error)

	// DrawRandom returns count distinct cards with server-assigned
	// orientation.
	DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error)

	// CreateReading persists a standard-mode reading. The result may carry a
	// backend-authored interpretation.
	CreateReading(ctx context.Context, req ReadingRequest) (ReadingResult, error)

	// CreateAIReading persists an AI-assisted reading. The result always
	// carries the backend-authored interpretation.
	CreateAIReading(ctx context.Context, req ReadingRequest) (ReadingResult, error)

	// SaveReading marks a reading as kept by the user.
	SaveReading(ctx context.Context, readingID uuid.UUID) error
}

// JournalGateway is the fully delegated journal CRUD surface.
type JournalGateway interface {
	FetchJournal(ctx context.Context, id uuid.UUID) (domain.JournalEntry, error)

	// ListJournals lists the caller's entries. The backend scopes the
	// listing to the authenticated user and ignores filter.UserID.
	ListJournals(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error)

	CreateJournal(ctx context.Context, in domain.JournalInput) (domain.JournalEntry, error)
	UpdateJournal(ctx context.Context, id uuid.UUID, in domain.JournalInput) (domain.JournalEntry, error)
	DeleteJournal(ctx context.Context, id uuid.UUID) error
}

// Gateway is the complete backend contract.
type Gateway interface {
	ReadingGateway
	JournalGateway
}
