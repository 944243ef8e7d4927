package deck

import (
	"fmt"
	"math"
	"testing"

	"github.com/phrazzld/arcana/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceRNG returns values from a fixed sequence.
type sequenceRNG struct {
	ints   []int
	floats []float64
	i, f   int
}

func (r *sequenceRNG) IntN(n int) int {
	v := r.ints[r.i%len(r.ints)] % n
	r.i++
	return v
}

func (r *sequenceRNG) Float64() float64 {
	v := r.floats[r.f%len(r.floats)]
	r.f++
	return v
}

func testCatalog(n int) []domain.Card {
	cards := make([]domain.Card, n)
	for i := range n {
		cards[i] = domain.Card{
			ID:              fmt.Sprintf("card-%02d", i),
			Name:            fmt.Sprintf("Card %d", i),
			Arcana:          domain.ArcanaMajor,
			UprightMeaning:  "up",
			ReversedMeaning: "down",
		}
	}
	return cards
}

func TestDraw_CountAndDistinct(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(78)
	rng := NewSeededRNG(42)

	for count := 1; count <= len(catalog); count++ {
		drawn, err := Draw(catalog, count, 0.5, rng)
		require.NoError(t, err)
		require.Len(t, drawn, count)

		seen := make(map[string]bool, count)
		for _, dc := range drawn {
			assert.False(t, seen[dc.ID], "duplicate card %s for count %d", dc.ID, count)
			seen[dc.ID] = true
		}
	}
}

func TestDraw_OrientationFromRNG(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(5)
	rng := &sequenceRNG{ints: []int{0}, floats: []float64{0.9, 0.1, 0.9}}

	drawn, err := Draw(catalog, 3, 0.5, rng)
	require.NoError(t, err)
	require.Len(t, drawn, 3)
	assert.Equal(t, []bool{false, true, false}, []bool{drawn[0].Reversed, drawn[1].Reversed, drawn[2].Reversed})
}

func TestDraw_DoesNotMutateCatalog(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(12)
	orig := append([]domain.Card(nil), catalog...)

	_, err := Draw(catalog, 12, 0.5, NewSeededRNG(7))
	require.NoError(t, err)
	assert.Equal(t, orig, catalog)
}

func TestDraw_Deterministic(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(78)

	a, err := Draw(catalog, 12, 0.4, NewSeededRNG(99))
	require.NoError(t, err)
	b, err := Draw(catalog, 12, 0.4, NewSeededRNG(99))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDraw_ReversalFraction(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(78)
	rng := NewSeededRNG(2024)
	const (
		draws = 10000
		p     = 0.4
	)

	reversed := 0
	for range draws {
		drawn, err := Draw(catalog, 1, p, rng)
		require.NoError(t, err)
		if drawn[0].Reversed {
			reversed++
		}
	}

	// Five standard deviations of a binomial proportion.
	tolerance := 5 * math.Sqrt(p*(1-p)/draws)
	assert.InDelta(t, p, float64(reversed)/draws, tolerance)
}

func TestDraw_ProbabilityBounds(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(10)

	upright, err := Draw(catalog, 10, 0, NewSeededRNG(1))
	require.NoError(t, err)
	for _, dc := range upright {
		assert.False(t, dc.Reversed)
	}

	reversed, err := Draw(catalog, 10, 1, NewSeededRNG(1))
	require.NoError(t, err)
	for _, dc := range reversed {
		assert.True(t, dc.Reversed)
	}
}

func TestDraw_Errors(t *testing.T) {
	t.Parallel()

	dup := testCatalog(3)
	dup[2].ID = dup[0].ID

	testCases := []struct {
		name    string
		catalog []domain.Card
		count   int
		p       float64
		wantErr error
	}{
		{"empty catalog", nil, 1, 0.5, domain.ErrInsufficientCatalog},
		{"count exceeds catalog", testCatalog(2), 3, 0.5, domain.ErrInsufficientCatalog},
		{"zero count", testCatalog(2), 0, 0.5, ErrInvalidCount},
		{"negative probability", testCatalog(2), 1, -0.1, ErrInvalidProbability},
		{"probability above one", testCatalog(2), 1, 1.1, ErrInvalidProbability},
		{"NaN probability", testCatalog(2), 1, math.NaN(), ErrInvalidProbability},
		{"duplicate card", dup, 2, 0.5, ErrDuplicateCard},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			drawn, err := Draw(tc.catalog, tc.count, tc.p, NewSeededRNG(1))
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, drawn)
		})
	}
}

func TestDraw_InsufficientCatalogIsRetryable(t *testing.T) {
	t.Parallel()
	_, err := Draw(testCatalog(1), 2, 0.5, nil)
	assert.True(t, domain.IsRetryable(err))
}
