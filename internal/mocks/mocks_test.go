package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/mocks"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ auth.JWTService        = (*mocks.MockJWTService)(nil)
	_ service.ReadingService = (*mocks.MockReadingService)(nil)
	_ service.JournalService = (*mocks.MockJournalService)(nil)
)

func TestMockJWTService(t *testing.T) {
	userID := uuid.New()
	m := &mocks.MockJWTService{Claims: mocks.ClaimsFor(userID)}

	claims, err := m.ValidateToken(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	m.ValidateTokenFn = func(context.Context, string) (*auth.Claims, error) {
		return nil, auth.ErrExpiredToken
	}
	_, err = m.ValidateToken(context.Background(), "second")
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
	assert.Equal(t, []string{"first", "second"}, m.ValidatedTokens())
}

func TestMockServicesDefaults(t *testing.T) {
	boom := errors.New("boom")
	readings := &mocks.MockReadingService{DefaultError: boom}
	_, err := readings.DrawRandom(context.Background(), 3)
	assert.ErrorIs(t, err, boom)

	journals := &mocks.MockJournalService{Entry: &domain.JournalEntry{Body: "note"}}
	entry, err := journals.Fetch(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "note", entry.Body)
}
