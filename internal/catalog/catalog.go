// Package catalog supplies the read-only 78-card tarot catalog.
//
// The embedded catalog is decoded once per process and shared by every
// session. Callers receive copies of the card slice, never the backing array,
// so no session can mutate another's view.
package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/phrazzld/arcana/internal/domain"
)

//go:embed data/cards.json
var dataFS embed.FS

// Size is the number of cards in a complete tarot catalog.
const Size = 78

// Source supplies the ordered card catalog.
type Source interface {
	ListCatalog(ctx context.Context) ([]domain.Card, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]domain.Card, error)

// ListCatalog calls f(ctx).
func (f SourceFunc) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	return f(ctx)
}

// EmbeddedSource serves the catalog compiled into the binary.
type EmbeddedSource struct {
	once  sync.Once
	cards []domain.Card
	byID  map[string]domain.Card
	err   error
}

var embedded = &EmbeddedSource{}

// Embedded returns the process-wide embedded catalog source.
func Embedded() *EmbeddedSource {
	return embedded
}

func (s *EmbeddedSource) init() {
	raw, err := dataFS.ReadFile("data/cards.json")
	if err != nil {
		s.err = fmt.Errorf("read embedded catalog: %w", err)
		return
	}
	var cards []domain.Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		s.err = fmt.Errorf("parse embedded catalog: %w", err)
		return
	}
	byID := make(map[string]domain.Card, len(cards))
	for i, c := range cards {
		if err := c.Validate(); err != nil {
			s.err = fmt.Errorf("embedded card %d (%s): %w", i, c.ID, err)
			return
		}
		if _, dup := byID[c.ID]; dup {
			s.err = fmt.Errorf("embedded catalog: duplicate card %s", c.ID)
			return
		}
		byID[c.ID] = c
	}
	s.cards = cards
	s.byID = byID
}

// ListCatalog returns a copy of the embedded catalog in canonical order.
func (s *EmbeddedSource) ListCatalog(_ context.Context) ([]domain.Card, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Card(nil), s.cards...), nil
}

// Card returns the card with the given stable ID.
func (s *EmbeddedSource) Card(id string) (domain.Card, bool) {
	s.once.Do(s.init)
	c, ok := s.byID[id]
	return c, ok
}
