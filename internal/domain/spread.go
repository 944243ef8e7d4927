package domain

import (
	"fmt"
	"strings"
)

// Domain is the life topic a reading is about.
type Domain string

// Life domains. The set is closed.
const (
	DomainLove      Domain = "love"
	DomainCareer    Domain = "career"
	DomainFinance   Domain = "finance"
	DomainHealth    Domain = "health"
	DomainSpiritual Domain = "spiritual"
	DomainGeneral   Domain = "general"
)

// Domains lists every valid domain.
var Domains = []Domain{
	DomainLove, DomainCareer, DomainFinance, DomainHealth, DomainSpiritual, DomainGeneral,
}

// ParseDomain converts s into a Domain, case-insensitively.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, s)
	}
	return d, nil
}

// Valid reports whether d is in the closed domain set.
func (d Domain) Valid() bool {
	for _, v := range Domains {
		if d == v {
			return true
		}
	}
	return false
}

// Mode selects how a reading is interpreted.
type Mode string

// Reading modes
const (
	ModeStandard Mode = "standard"
	ModeAI       Mode = "ai"
)

// ParseMode converts s into a Mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeStandard, ModeAI:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Position is the semantic slot a selected card occupies.
type Position string

// Three-card spread positions
const (
	PositionSelf         Position = "Self"
	PositionCircumstance Position = "Circumstance"
	PositionChallenge    Position = "Challenge"
)

// ParsePosition converts s into a Position, case-insensitively.
func ParsePosition(s string) (Position, error) {
	for _, p := range ThreeCardSpread.Positions {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// Spread is an ordered list of positions. The selection size of a reading is
// the number of positions.
type Spread struct {
	Name      string     `json:"name"`
	Positions []Position `json:"positions"`
}

// ThreeCardSpread is the reference Self/Circumstance/Challenge spread.
var ThreeCardSpread = Spread{
	Name:      "three_card",
	Positions: []Position{PositionSelf, PositionCircumstance, PositionChallenge},
}

// Size returns the number of cards the spread holds.
func (s Spread) Size() int {
	return len(s.Positions)
}

// PositionAt returns the position label for a zero-based selection index.
func (s Spread) PositionAt(i int) (Position, error) {
	if i < 0 || i >= len(s.Positions) {
		return "", fmt.Errorf("%w: index %d outside spread of %d", ErrSelectionFull, i, len(s.Positions))
	}
	return s.Positions[i], nil
}

// SelectedCard is a drawn card placed into a spread position. Position is
// assigned from selection order when the selection is accepted and never
// changes afterwards.
type SelectedCard struct {
	DrawnCard
	Position      Position `json:"position"`
	PositionIndex int      `json:"position_index"`
}

// ValidateSelection checks that selection fills spread exactly, in order,
// with distinct cards.
func ValidateSelection(selection []SelectedCard, spread Spread) error {
	if len(selection) != spread.Size() {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongSelectionCount, len(selection), spread.Size())
	}
	seen := make(map[string]struct{}, len(selection))
	for i, sc := range selection {
		if err := sc.Card.Validate(); err != nil {
			return fmt.Errorf("%w: card %d: %v", ErrValidation, i, err)
		}
		if _, dup := seen[sc.ID]; dup {
			return fmt.Errorf("%w: %w: %s", ErrValidation, ErrAlreadySelected, sc.ID)
		}
		seen[sc.ID] = struct{}{}
		if sc.PositionIndex != i || sc.Position != spread.Positions[i] {
			return fmt.Errorf("%w: card %d has position %s/%d", ErrInvalidPosition, i, sc.Position, sc.PositionIndex)
		}
	}
	return nil
}
