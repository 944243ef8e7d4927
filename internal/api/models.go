package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/session"
)

// Catalog and draws

// CardsResponse is the catalog listing.
type CardsResponse struct {
	Cards []domain.Card `json:"cards"`
}

// DrawRequest defines the payload for a random draw.
type DrawRequest struct {
	Count int `json:"count" validate:"required,min=1,max=78"`
}

// DrawResponse carries freshly drawn cards with their orientation.
type DrawResponse struct {
	Cards []domain.DrawnCard `json:"cards"`
}

// Readings

// CreateReadingRequest defines the payload for persisting a completed
// selection. The interpretation is optional for standard readings.
type CreateReadingRequest struct {
	Mode           string                 `json:"mode"`
	Domain         string                 `json:"domain"    validate:"required"`
	Question       string                 `json:"question"  validate:"max=1000"`
	Selection      []domain.SelectedCard  `json:"selection" validate:"required,min=1"`
	Interpretation *domain.Interpretation `json:"interpretation,omitempty"`
}

// ReadingResponse is the result of creating or fetching a reading.
type ReadingResponse struct {
	ReadingID      uuid.UUID             `json:"reading_id"`
	Mode           domain.Mode           `json:"mode"`
	Domain         domain.Domain         `json:"domain"`
	Question       string                `json:"question,omitempty"`
	Selection      []domain.SelectedCard `json:"selection"`
	Interpretation domain.Interpretation `json:"interpretation"`
	Saved          bool                  `json:"saved"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ReadingsResponse lists a user's readings.
type ReadingsResponse struct {
	Readings []ReadingResponse `json:"readings"`
}

// Journals

// JournalsResponse lists journal entries.
type JournalsResponse struct {
	Journals []*domain.JournalEntry `json:"journals"`
}

// Sessions

// StartSessionRequest optionally commits to a topic as the session starts.
type StartSessionRequest struct {
	Mode   string `json:"mode"   validate:"required_with=Domain"`
	Domain string `json:"domain" validate:"required_with=Mode"`
}

// TopicRequest commits a session to a reading mode and domain.
type TopicRequest struct {
	Mode   string `json:"mode"   validate:"required"`
	Domain string `json:"domain" validate:"required"`
}

// QuestionRequest supplies the question of an AI-assisted reading.
type QuestionRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
}

// SelectRequest selects one dealt card.
type SelectRequest struct {
	CardID string `json:"card_id" validate:"required"`
}

// AutoSelectRequest asks for up to Count random selections. Zero fills the
// spread.
type AutoSelectRequest struct {
	Count int `json:"count" validate:"min=0,max=78"`
}

// RetryRequest names the failed step to repeat. Empty retries whichever
// step failed.
type RetryRequest struct {
	Step string `json:"step" validate:"omitempty,oneof=draw interpretation"`
}

// SelectionResponse reports the cards a selection call placed, together
// with the resulting session.
type SelectionResponse struct {
	Selected []domain.SelectedCard `json:"selected"`
	Session  session.Snapshot      `json:"session"`
}

func readingToResponse(r *domain.Reading) ReadingResponse {
	selection := r.Selection
	if selection == nil {
		selection = []domain.SelectedCard{}
	}
	return ReadingResponse{
		ReadingID:      r.ID,
		Mode:           r.Mode,
		Domain:         r.Domain,
		Question:       r.Question,
		Selection:      selection,
		Interpretation: r.Interpretation.Clone(),
		Saved:          r.Saved,
		CreatedAt:      r.CreatedAt,
	}
}
