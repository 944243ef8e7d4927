package domain

import "errors"

// Card validation errors
var (
	// ErrCardIDEmpty is returned when a card has no identifier.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardNameEmpty is returned when a card has no display name.
	ErrCardNameEmpty = errors.New("card name cannot be empty")

	// ErrInvalidArcana is returned when a card's arcana class is unknown.
	ErrInvalidArcana = errors.New("invalid arcana class")

	// ErrInvalidSuit is returned when a minor arcana card has no valid suit,
	// or a major arcana card carries one.
	ErrInvalidSuit = errors.New("invalid suit")

	// ErrCardMeaningEmpty is returned when either base meaning is missing.
	ErrCardMeaningEmpty = errors.New("card meanings cannot be empty")
)

// Arcana is the major/minor class of a tarot card.
type Arcana string

// Arcana classes
const (
	ArcanaMajor Arcana = "major"
	ArcanaMinor Arcana = "minor"
)

// Suit is the suit of a minor arcana card.
type Suit string

// Minor arcana suits
const (
	SuitWands     Suit = "wands"
	SuitCups      Suit = "cups"
	SuitSwords    Suit = "swords"
	SuitPentacles Suit = "pentacles"
)

// Card is an immutable catalog entry. Cards are owned by the catalog and
// shared read-only between sessions.
type Card struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Arcana          Arcana `json:"arcana"`
	Suit            Suit   `json:"suit,omitempty"`
	Rank            *int   `json:"rank,omitempty"`
	UprightMeaning  string `json:"upright_meaning"`
	ReversedMeaning string `json:"reversed_meaning"`
	ImageRef        string `json:"image_ref,omitempty"`
}

// IsMajor reports whether the card belongs to the major arcana.
func (c Card) IsMajor() bool {
	return c.Arcana == ArcanaMajor
}

// Validate checks that the card is a well-formed catalog entry.
func (c Card) Validate() error {
	if c.ID == "" {
		return ErrCardIDEmpty
	}
	if c.Name == "" {
		return ErrCardNameEmpty
	}
	switch c.Arcana {
	case ArcanaMajor:
		if c.Suit != "" {
			return ErrInvalidSuit
		}
	case ArcanaMinor:
		if !isValidSuit(c.Suit) {
			return ErrInvalidSuit
		}
	default:
		return ErrInvalidArcana
	}
	if c.UprightMeaning == "" || c.ReversedMeaning == "" {
		return ErrCardMeaningEmpty
	}
	return nil
}

func isValidSuit(s Suit) bool {
	switch s {
	case SuitWands, SuitCups, SuitSwords, SuitPentacles:
		return true
	default:
		return false
	}
}

// DrawnCard is a card drawn for one session. Its orientation is fixed at draw
// time.
type DrawnCard struct {
	Card
	Reversed bool `json:"is_reversed"`
}

// Meaning returns the base meaning for the card's orientation.
func (d DrawnCard) Meaning() string {
	if d.Reversed {
		return d.ReversedMeaning
	}
	return d.UprightMeaning
}

// Orientation returns "reversed" or "upright".
func (d DrawnCard) Orientation() string {
	if d.Reversed {
		return "reversed"
	}
	return "upright"
}
