package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/catalog"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock-backed *sql.DB for services that open
// transactions. Unmet expectations fail the test.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

// selectionOf places the catalog cards with the given IDs into the
// three-card spread, reversing the ones listed in reversed.
func selectionOf(t *testing.T, ids []string, reversed ...bool) []domain.SelectedCard {
	t.Helper()
	out := make([]domain.SelectedCard, len(ids))
	for i, id := range ids {
		c, ok := catalog.Embedded().Card(id)
		require.True(t, ok, "catalog card %s", id)
		out[i] = domain.SelectedCard{
			DrawnCard:     domain.DrawnCard{Card: c, Reversed: i < len(reversed) && reversed[i]},
			Position:      domain.ThreeCardSpread.Positions[i],
			PositionIndex: i,
		}
	}
	return out
}

// firstCardIDs returns the IDs of the first n catalog cards.
func firstCardIDs(t *testing.T, n int) []string {
	t.Helper()
	cards, err := catalog.Embedded().ListCatalog(context.Background())
	require.NoError(t, err)
	ids := make([]string, n)
	for i := range ids {
		ids[i] = cards[i].ID
	}
	return ids
}

func savedReading(t *testing.T, userID uuid.UUID) *domain.Reading {
	t.Helper()
	sel := selectionOf(t, firstCardIDs(t, 3))
	interp := domain.Interpretation{
		Summary:    "s",
		Sections:   []domain.Section{{Title: "a", Content: "1"}, {Title: "b", Content: "2"}, {Title: "c", Content: "3"}},
		Combined:   "c",
		Conclusion: "k",
	}
	r, err := domain.NewReading(userID, domain.ModeStandard, domain.DomainGeneral, "", sel, interp)
	require.NoError(t, err)
	return r
}
