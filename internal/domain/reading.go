package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reading validation errors
var (
	ErrEmptyReadingID      = errors.New("reading ID cannot be empty")
	ErrEmptyReadingUserID  = errors.New("reading user ID cannot be empty")
	ErrEmptyInterpretation = errors.New("reading interpretation cannot be empty")
)

// Reading is a completed reading persisted by the backend.
type Reading struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	Mode           Mode           `json:"mode"`
	Domain         Domain         `json:"domain"`
	Question       string         `json:"question,omitempty"`
	Selection      []SelectedCard `json:"selection"`
	Interpretation Interpretation `json:"interpretation"`
	Saved          bool           `json:"saved"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewReading creates a validated, unsaved reading.
func NewReading(
	userID uuid.UUID,
	mode Mode,
	domain Domain,
	question string,
	selection []SelectedCard,
	interp Interpretation,
) (*Reading, error) {
	now := time.Now().UTC()
	r := &Reading{
		ID:             uuid.New(),
		UserID:         userID,
		Mode:           mode,
		Domain:         domain,
		Question:       strings.TrimSpace(question),
		Selection:      append([]SelectedCard(nil), selection...),
		Interpretation: interp.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks if the Reading has valid data.
func (r *Reading) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReadingID
	}
	if r.UserID == uuid.Nil {
		return ErrEmptyReadingUserID
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	if !r.Domain.Valid() {
		return ErrInvalidDomain
	}
	if r.Mode == ModeAI && r.Question == "" {
		return ErrEmptyQuestion
	}
	if len(r.Selection) == 0 {
		return ErrWrongSelectionCount
	}
	if err := r.Interpretation.Validate(len(r.Selection)); err != nil {
		return ErrEmptyInterpretation
	}
	return nil
}

// MarkSaved flags the reading as kept by the user.
func (r *Reading) MarkSaved() {
	r.Saved = true
	r.UpdatedAt = time.Now().UTC()
}
