package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/arcana/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogShape(t *testing.T) {
	t.Parallel()

	cards, err := Embedded().ListCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, Size)

	var majors int
	suits := map[domain.Suit]int{}
	ids := map[string]bool{}
	for _, c := range cards {
		require.NoError(t, c.Validate(), c.ID)
		assert.False(t, ids[c.ID], "duplicate %s", c.ID)
		ids[c.ID] = true
		if c.IsMajor() {
			majors++
			continue
		}
		suits[c.Suit]++
	}

	assert.Equal(t, 22, majors)
	for _, s := range []domain.Suit{domain.SuitWands, domain.SuitCups, domain.SuitSwords, domain.SuitPentacles} {
		assert.Equal(t, 14, suits[s], "suit %s", s)
	}

	fool, ok := Embedded().Card("major-00")
	require.True(t, ok)
	assert.Equal(t, "The Fool", fool.Name)
}

func TestEmbeddedReturnsCopies(t *testing.T) {
	t.Parallel()

	a, err := Embedded().ListCatalog(context.Background())
	require.NoError(t, err)
	a[0].Name = "mutated"

	b, err := Embedded().ListCatalog(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b[0].Name)
}

type countingSource struct {
	calls int
	cards []domain.Card
	err   error
}

func (s *countingSource) ListCatalog(context.Context) ([]domain.Card, error) {
	s.calls++
	return s.cards, s.err
}

func TestCachedSource(t *testing.T) {
	t.Parallel()

	src := &countingSource{cards: []domain.Card{{ID: "a"}, {ID: "b"}}}
	cached := NewCachedSource(src, 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := cached.ListCatalog(ctx)
	require.NoError(t, err)
	first[0].ID = "mutated"

	second, err := cached.ListCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", second[0].ID)
	assert.Equal(t, 1, src.calls, "second call served from cache")

	now = now.Add(time.Minute)
	_, err = cached.ListCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "expired entry refetched")

	cached.Invalidate()
	_, err = cached.ListCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: errors.New("boom")}
	cached := NewCachedSource(src, 0, 0)

	_, err := cached.ListCatalog(context.Background())
	require.Error(t, err)

	src.err = nil
	src.cards = []domain.Card{{ID: "a"}}
	cards, err := cached.ListCatalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, 2, src.calls)
}
