package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Journal validation errors
var (
	ErrEmptyJournalID     = errors.New("journal ID cannot be empty")
	ErrEmptyJournalUserID = errors.New("journal user ID cannot be empty")
	ErrEmptyJournalBody   = errors.New("journal body cannot be empty")
	ErrJournalTitleLength = errors.New("journal title is too long")
)

// MaxJournalTitleLength bounds journal titles.
const MaxJournalTitleLength = 200

// JournalEntry is a user's reflection, optionally attached to a reading.
type JournalEntry struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ReadingID *uuid.UUID `json:"reading_id,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Mood      string     `json:"mood,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// JournalInput carries the user-editable fields of a journal entry.
type JournalInput struct {
	ReadingID *uuid.UUID `json:"reading_id,omitempty"`
	Title     string     `json:"title" validate:"max=200"`
	Body      string     `json:"body" validate:"required"`
	Mood      string     `json:"mood,omitempty" validate:"max=50"`
}

// JournalFilter narrows a journal listing.
type JournalFilter struct {
	UserID    uuid.UUID
	ReadingID *uuid.UUID
	Limit     int
	Offset    int
}

// NewJournalEntry creates a validated journal entry for userID.
func NewJournalEntry(userID uuid.UUID, in JournalInput) (*JournalEntry, error) {
	now := time.Now().UTC()
	e := &JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.apply(in)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks if the JournalEntry has valid data.
func (e *JournalEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyJournalID
	}
	if e.UserID == uuid.Nil {
		return ErrEmptyJournalUserID
	}
	if e.Body == "" {
		return ErrEmptyJournalBody
	}
	if len(e.Title) > MaxJournalTitleLength {
		return ErrJournalTitleLength
	}
	return nil
}

// Update replaces the editable fields. On validation failure the entry is
// left unchanged.
func (e *JournalEntry) Update(in JournalInput) error {
	orig := *e
	e.apply(in)
	if err := e.Validate(); err != nil {
		*e = orig
		return err
	}
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (e *JournalEntry) apply(in JournalInput) {
	e.ReadingID = in.ReadingID
	e.Title = strings.TrimSpace(in.Title)
	e.Body = strings.TrimSpace(in.Body)
	e.Mood = strings.TrimSpace(in.Mood)
}
