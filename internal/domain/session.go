package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is a lifecycle stage of a reading session.
type State string

// Session states, in lifecycle order.
const (
	StateTopicSelection  State = "topic_selection"
	StateQuestionCapture State = "question_capture"
	StateShuffling       State = "shuffling"
	StateDealing         State = "dealing"
	StateSelecting       State = "selecting"
	StateInterpreting    State = "interpreting"
	StateResult          State = "result"
)

// Section is the interpretation of one selected card.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Interpretation is the synthesized narrative for a finalized selection.
// Sections are keyed 1:1 to selection order.
type Interpretation struct {
	Summary    string    `json:"summary"`
	Sections   []Section `json:"sections"`
	Combined   string    `json:"combined"`
	Conclusion string    `json:"conclusion"`
}

// Validate checks the interpretation against the selection size it was
// produced for.
func (in Interpretation) Validate(selectionSize int) error {
	if len(in.Sections) != selectionSize {
		return ErrWrongSelectionCount
	}
	for _, s := range in.Sections {
		if s.Title == "" || s.Content == "" {
			return ErrValidation
		}
	}
	if in.Combined == "" || in.Conclusion == "" {
		return ErrValidation
	}
	return nil
}

// Clone returns a deep copy.
func (in Interpretation) Clone() Interpretation {
	out := in
	out.Sections = append([]Section(nil), in.Sections...)
	return out
}

// ReadingSession is the aggregate driven by the session state machine. It is
// a value: the machine hands out copies and never shares its own.
type ReadingSession struct {
	ID         uuid.UUID      `json:"id"`
	Mode       Mode           `json:"mode,omitempty"`
	Domain     Domain         `json:"domain,omitempty"`
	Question   string         `json:"question,omitempty"`
	WorkingSet []DrawnCard    `json:"working_set"`
	Dealt      int            `json:"dealt"`
	Selection  []SelectedCard `json:"selection"`
	State      State          `json:"state"`
	ReadingID  uuid.UUID      `json:"reading_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewReadingSession creates a session in the topic selection state.
func NewReadingSession() ReadingSession {
	return ReadingSession{
		ID:        uuid.New(),
		State:     StateTopicSelection,
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the session.
func (s ReadingSession) Clone() ReadingSession {
	out := s
	out.WorkingSet = append([]DrawnCard(nil), s.WorkingSet...)
	out.Selection = append([]SelectedCard(nil), s.Selection...)
	return out
}

// Available returns the cards dealt so far, in draw order.
func (s ReadingSession) Available() []DrawnCard {
	n := s.Dealt
	if n > len(s.WorkingSet) {
		n = len(s.WorkingSet)
	}
	return append([]DrawnCard(nil), s.WorkingSet[:n]...)
}

// IsSelected reports whether the card with the given ID is already selected.
func (s ReadingSession) IsSelected(cardID string) bool {
	for _, sc := range s.Selection {
		if sc.ID == cardID {
			return true
		}
	}
	return false
}

// FindInWorkingSet returns the drawn card with the given ID.
func (s ReadingSession) FindInWorkingSet(cardID string) (DrawnCard, bool) {
	for _, dc := range s.WorkingSet {
		if dc.ID == cardID {
			return dc, true
		}
	}
	return DrawnCard{}, false
}
