package session

import (
	"fmt"
	"time"

	"github.com/phrazzld/arcana/internal/domain"
)

// Config controls the timing and sizing of a reading.
type Config struct {
	// Spread defines the positions and therefore the selection size.
	Spread domain.Spread

	// WorkingSetSize is the number of cards drawn for the user to pick from.
	WorkingSetSize int

	// ReversalProbability is the chance each drawn card is reversed.
	ReversalProbability float64

	// ShuffleDuration is how long the shuffle lasts before the draw.
	ShuffleDuration time.Duration

	// DealInterval is the delay between consecutive dealt cards.
	DealInterval time.Duration

	// RevealInterval is the delay between consecutive revealed cards.
	RevealInterval time.Duration

	// ServerAuthoritativeDraw draws through the gateway instead of locally.
	ServerAuthoritativeDraw bool

	// LocalFallback allows a failed remote draw to fall back to a local draw
	// over the catalog, and a failed remote interpretation to fall back to
	// the local engine. Authentication failures never fall back.
	LocalFallback bool
}

// DefaultConfig returns the reference flow: a three-card spread picked from
// twelve dealt cards.
func DefaultConfig() Config {
	return Config{
		Spread:              domain.ThreeCardSpread,
		WorkingSetSize:      12,
		ReversalProbability: 0.5,
		ShuffleDuration:     1500 * time.Millisecond,
		DealInterval:        150 * time.Millisecond,
		RevealInterval:      time.Second,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Spread.Size() == 0 {
		return fmt.Errorf("%w: spread has no positions", domain.ErrValidation)
	}
	if c.WorkingSetSize < c.Spread.Size() {
		return fmt.Errorf("%w: working set of %d cannot fill a spread of %d",
			domain.ErrValidation, c.WorkingSetSize, c.Spread.Size())
	}
	if !(c.ReversalProbability >= 0 && c.ReversalProbability <= 1) {
		return fmt.Errorf("%w: reversal probability %v", domain.ErrValidation, c.ReversalProbability)
	}
	if c.ShuffleDuration < 0 || c.DealInterval < 0 || c.RevealInterval < 0 {
		return fmt.Errorf("%w: durations cannot be negative", domain.ErrValidation)
	}
	return nil
}
