// Package deck draws randomized working sets from a card catalog.
//
// Draw is the only entry point. It performs a single-pass Fisher-Yates
// permutation and then assigns each taken card an orientation with an
// independent Bernoulli trial. All randomness comes from an RNG so callers
// can seed it for reproducible draws.
package deck

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/phrazzld/arcana/internal/domain"
)

// Common deck errors
var (
	// ErrInvalidCount is returned when fewer than one card is requested.
	ErrInvalidCount = fmt.Errorf("%w: draw count must be at least 1", domain.ErrValidation)

	// ErrInvalidProbability is returned when the reversal probability is
	// outside [0, 1].
	ErrInvalidProbability = fmt.Errorf("%w: reversal probability must be within [0, 1]", domain.ErrValidation)

	// ErrDuplicateCard is returned when the catalog holds the same card ID
	// more than once.
	ErrDuplicateCard = errors.New("catalog contains duplicate card")
)

// RNG is the source of randomness used by Draw. *rand.Rand from math/rand/v2
// satisfies it.
type RNG interface {
	// IntN returns a uniform value in [0, n). n is always positive.
	IntN(n int) int
	// Float64 returns a uniform value in [0.0, 1.0).
	Float64() float64
}

type stdRNG struct{}

func (stdRNG) IntN(n int) int   { return rand.IntN(n) }
func (stdRNG) Float64() float64 { return rand.Float64() }

// DefaultRNG returns an RNG backed by the process-wide math/rand/v2 source.
// It is safe for concurrent use.
func DefaultRNG() RNG {
	return stdRNG{}
}

// NewSeededRNG returns a deterministic RNG. It is not safe for concurrent use.
func NewSeededRNG(seed uint64) RNG {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Draw returns count cards from catalog in uniformly random order, each with
// an orientation sampled independently with the given reversal probability.
//
// The catalog is never modified. Draw signals domain.ErrInsufficientCatalog
// when the catalog is empty or smaller than count and never returns fewer
// cards than requested.
func Draw(catalog []domain.Card, count int, reversalProbability float64, rng RNG) ([]domain.DrawnCard, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	// NaN fails both comparisons, so test the accepted range directly.
	if !(reversalProbability >= 0 && reversalProbability <= 1) {
		return nil, ErrInvalidProbability
	}
	if len(catalog) == 0 || len(catalog) < count {
		return nil, fmt.Errorf("%w: need %d cards, catalog has %d",
			domain.ErrInsufficientCatalog, count, len(catalog))
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	seen := make(map[string]struct{}, len(catalog))
	for _, c := range catalog {
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCard, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	indices := make([]int, len(catalog))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	drawn := make([]domain.DrawnCard, count)
	for i := range count {
		drawn[i] = domain.DrawnCard{
			Card:     catalog[indices[i]],
			Reversed: rng.Float64() < reversalProbability,
		}
	}
	return drawn, nil
}
