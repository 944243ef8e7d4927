package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/catalog"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/mocks"
	"github.com/phrazzld/arcana/internal/platform/metrics"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	aliceID = uuid.MustParse("0b6f3c1e-4a8d-4c2b-9a57-2f1d8e6b3c01")
	bobID   = uuid.MustParse("7d2e9a40-1c3b-4f6e-8b15-6a0c4d9e2f02")
)

type routerFixture struct {
	handler  http.Handler
	readings *mocks.MockReadingService
	journals *mocks.MockJournalService
	registry *prometheus.Registry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		readings: &mocks.MockReadingService{},
		journals: &mocks.MockJournalService{},
		registry: prometheus.NewRegistry(),
	}
	f.handler = NewRouter(RouterConfig{
		Readings:   f.readings,
		Journals:   f.journals,
		JWTService: tokenAuth(map[string]uuid.UUID{"alice": aliceID, "bob": bobID}),
		Metrics:    metrics.MustNewMetrics(f.registry),
		Gatherer:   f.registry,
		Logger:     testLogger(),
	})
	return f
}

func sampleSelection(t *testing.T) []domain.SelectedCard {
	t.Helper()
	cards, err := catalog.Embedded().ListCatalog(context.Background())
	require.NoError(t, err)
	spread := domain.ThreeCardSpread
	out := make([]domain.SelectedCard, len(spread.Positions))
	for i, pos := range spread.Positions {
		out[i] = domain.SelectedCard{
			DrawnCard:     domain.DrawnCard{Card: cards[i*7], Reversed: i == 1},
			Position:      pos,
			PositionIndex: i,
		}
	}
	return out
}

func sampleReading(t *testing.T, userID uuid.UUID, mode domain.Mode) *domain.Reading {
	t.Helper()
	return &domain.Reading{
		ID:        uuid.New(),
		UserID:    userID,
		Mode:      mode,
		Domain:    domain.DomainCareer,
		Selection: sampleSelection(t),
		Interpretation: domain.Interpretation{
			Summary:    "A turning point at work.",
			Sections:   []domain.Section{{Title: "Past", Content: "a"}, {Title: "Present", Content: "b"}, {Title: "Future", Content: "c"}},
			Combined:   "Together the cards point forward.",
			Conclusion: "Trust the change.",
		},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(shared.TraceIDHeader))
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name    string
		header  string
		want    int
		message string
	}{
		{name: "missing header", want: http.StatusUnauthorized, message: "Authorization header required"},
		{name: "unknown token", header: "Bearer mallory-token", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic YWxpY2U6c2VjcmV0", want: http.StatusUnauthorized},
		{name: "lowercase scheme", header: "bearer alice-token", want: http.StatusOK},
		{name: "valid token", header: "Bearer alice-token", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeError(t, rec).Error)
			}
		})
	}
}

func TestRouter_RejectsNonJSONBodies(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/draws", strings.NewReader("count=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer alice-token")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_CatalogAndDraws(t *testing.T) {
	f := newRouterFixture(t)
	cards, err := catalog.Embedded().ListCatalog(context.Background())
	require.NoError(t, err)
	f.readings.Cards = cards

	rec := doRequest(t, f.handler, http.MethodGet, "/api/cards", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed CardsResponse
	decodeBody(t, rec, &listed)
	assert.Len(t, listed.Cards, 78)

	var gotCount int
	f.readings.DrawRandomFn = func(_ context.Context, count int) ([]domain.DrawnCard, error) {
		gotCount = count
		return []domain.DrawnCard{{Card: cards[0], Reversed: true}}, nil
	}
	rec = doRequest(t, f.handler, http.MethodPost, "/api/draws", "alice-token", DrawRequest{Count: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gotCount)
	var drawn DrawResponse
	decodeBody(t, rec, &drawn)
	require.Len(t, drawn.Cards, 1)
	assert.True(t, drawn.Cards[0].Reversed)

	rec = doRequest(t, f.handler, http.MethodPost, "/api/draws", "alice-token", DrawRequest{Count: 79})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid count: too large", decodeError(t, rec).Error)

	f.readings.DrawRandomFn = func(context.Context, int) ([]domain.DrawnCard, error) {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrNetwork)
	}
	rec = doRequest(t, f.handler, http.MethodPost, "/api/draws", "alice-token", DrawRequest{Count: 3})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.True(t, resp.Retryable)
	assert.NotContains(t, resp.Error, "connection refused")
}

func TestRouter_CreateReading(t *testing.T) {
	f := newRouterFixture(t)
	selection := sampleSelection(t)

	var got gateway.ReadingRequest
	var gotUser uuid.UUID
	f.readings.CreateReadingFn = func(_ context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error) {
		got, gotUser = req, userID
		return sampleReading(t, userID, domain.ModeStandard), nil
	}

	rec := doRequest(t, f.handler, http.MethodPost, "/api/readings", "alice-token", CreateReadingRequest{
		Domain:    "Career",
		Selection: selection,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, aliceID, gotUser)
	assert.Equal(t, domain.ModeStandard, got.Mode)
	assert.Equal(t, domain.DomainCareer, got.Domain)
	assert.Len(t, got.Selection, 3)

	var resp ReadingResponse
	decodeBody(t, rec, &resp)
	assert.NotEqual(t, uuid.Nil, resp.ReadingID)
	assert.Equal(t, domain.ModeStandard, resp.Mode)
	assert.Len(t, resp.Interpretation.Sections, 3)
	assert.False(t, resp.Saved)
}

func TestRouter_CreateReadingValidation(t *testing.T) {
	f := newRouterFixture(t)
	selection := sampleSelection(t)
	f.readings.CreateReadingFn = func(context.Context, uuid.UUID, gateway.ReadingRequest) (*domain.Reading, error) {
		t.Fatal("service must not be called for invalid requests")
		return nil, nil
	}

	tests := []struct {
		name    string
		body    CreateReadingRequest
		message string
	}{
		{"missing domain", CreateReadingRequest{Selection: selection}, "Invalid domain: required field"},
		{"unknown domain", CreateReadingRequest{Domain: "weather", Selection: selection}, "Invalid domain"},
		{"empty selection", CreateReadingRequest{Domain: "love"}, "Invalid selection: required field"},
		{"mode mismatch", CreateReadingRequest{Mode: "ai", Domain: "love", Selection: selection}, "Invalid reading mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, f.handler, http.MethodPost, "/api/readings", "alice-token", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec).Error)
		})
	}
}

func TestRouter_CreateAIReading(t *testing.T) {
	f := newRouterFixture(t)

	f.readings.CreateAIReadingFn = func(_ context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error) {
		if req.Question == "" {
			return nil, domain.ErrEmptyQuestion
		}
		r := sampleReading(t, userID, domain.ModeAI)
		r.Question = req.Question
		return r, nil
	}

	rec := doRequest(t, f.handler, http.MethodPost, "/api/readings/ai", "bob-token", CreateReadingRequest{
		Domain:    "career",
		Question:  "Should I take the offer?",
		Selection: sampleSelection(t),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp ReadingResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, domain.ModeAI, resp.Mode)
	assert.Equal(t, "Should I take the offer?", resp.Question)

	rec = doRequest(t, f.handler, http.MethodPost, "/api/readings/ai", "bob-token", CreateReadingRequest{
		Domain:    "career",
		Selection: sampleSelection(t),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A question is required for an AI reading", decodeError(t, rec).Error)

	f.readings.CreateAIReadingFn = func(context.Context, uuid.UUID, gateway.ReadingRequest) (*domain.Reading, error) {
		return nil, domain.ErrAIUnavailable
	}
	rec = doRequest(t, f.handler, http.MethodPost, "/api/readings/ai", "bob-token", CreateReadingRequest{
		Domain:    "career",
		Question:  "Will it rain?",
		Selection: sampleSelection(t),
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_ReadingByID(t *testing.T) {
	f := newRouterFixture(t)
	owned := sampleReading(t, aliceID, domain.ModeStandard)

	f.readings.GetReadingFn = func(_ context.Context, userID, readingID uuid.UUID) (*domain.Reading, error) {
		switch {
		case readingID != owned.ID:
			return nil, service.ErrReadingNotFound
		case userID != aliceID:
			return nil, service.ErrNotOwned
		}
		return owned, nil
	}
	var saved []uuid.UUID
	f.readings.SaveReadingFn = func(_ context.Context, _ uuid.UUID, readingID uuid.UUID) error {
		saved = append(saved, readingID)
		return nil
	}

	rec := doRequest(t, f.handler, http.MethodGet, "/api/readings/"+owned.ID.String(), "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReadingResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, owned.ID, resp.ReadingID)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/readings/"+owned.ID.String(), "bob-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/readings/"+uuid.NewString(), "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Reading not found", decodeError(t, rec).Error)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/readings/not-a-uuid", "alice-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, f.handler, http.MethodPost, "/api/readings/"+owned.ID.String()+"/save", "alice-token", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []uuid.UUID{owned.ID}, saved)
}

func TestRouter_ListReadings(t *testing.T) {
	f := newRouterFixture(t)

	var gotLimit, gotOffset int
	f.readings.ListReadingsFn = func(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Reading, error) {
		gotLimit, gotOffset = limit, offset
		return []*domain.Reading{sampleReading(t, userID, domain.ModeStandard)}, nil
	}

	rec := doRequest(t, f.handler, http.MethodGet, "/api/readings?limit=5&offset=5", "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 5, gotOffset)
	var resp ReadingsResponse
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Readings, 1)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/readings?limit=-3", "alice-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Journals(t *testing.T) {
	f := newRouterFixture(t)
	readingID := uuid.New()
	entry := &domain.JournalEntry{
		ID:        uuid.New(),
		UserID:    aliceID,
		ReadingID: &readingID,
		Title:     "Three of Cups",
		Body:      "Celebrated with friends.",
	}

	var created domain.JournalInput
	f.journals.CreateFn = func(_ context.Context, userID uuid.UUID, in domain.JournalInput) (*domain.JournalEntry, error) {
		created = in
		return entry, nil
	}
	var filter domain.JournalFilter
	f.journals.ListFn = func(_ context.Context, fl domain.JournalFilter) ([]*domain.JournalEntry, error) {
		filter = fl
		return nil, nil
	}
	f.journals.FetchFn = func(_ context.Context, userID, id uuid.UUID) (*domain.JournalEntry, error) {
		if userID != entry.UserID {
			return nil, service.ErrNotOwned
		}
		return entry, nil
	}
	f.journals.UpdateFn = func(_ context.Context, _ uuid.UUID, _ uuid.UUID, in domain.JournalInput) (*domain.JournalEntry, error) {
		updated := *entry
		updated.Body = in.Body
		return &updated, nil
	}
	f.journals.DeleteFn = func(context.Context, uuid.UUID, uuid.UUID) error {
		return service.ErrJournalNotFound
	}

	rec := doRequest(t, f.handler, http.MethodPost, "/api/journals", "alice-token", domain.JournalInput{
		ReadingID: &readingID,
		Title:     "Three of Cups",
		Body:      "Celebrated with friends.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Celebrated with friends.", created.Body)
	require.NotNil(t, created.ReadingID)
	assert.Equal(t, readingID, *created.ReadingID)

	rec = doRequest(t, f.handler, http.MethodPost, "/api/journals", "alice-token", domain.JournalInput{Title: "empty"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid body: required field", decodeError(t, rec).Error)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/journals?reading_id="+readingID.String(), "alice-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, aliceID, filter.UserID)
	require.NotNil(t, filter.ReadingID)
	assert.Equal(t, readingID, *filter.ReadingID)
	assert.Equal(t, defaultListLimit, filter.Limit)
	assert.JSONEq(t, `{"journals":[]}`, rec.Body.String())

	rec = doRequest(t, f.handler, http.MethodGet, "/api/journals?reading_id=nope", "alice-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, f.handler, http.MethodGet, "/api/journals/"+entry.ID.String(), "bob-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, f.handler, http.MethodPut, "/api/journals/"+entry.ID.String(), "alice-token",
		domain.JournalInput{Body: "Edited."})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.JournalEntry
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Edited.", updated.Body)

	rec = doRequest(t, f.handler, http.MethodDelete, "/api/journals/"+entry.ID.String(), "alice-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UnexpectedErrorsAreSanitized(t *testing.T) {
	f := newRouterFixture(t)
	f.readings.DefaultError = errors.New("pq: relation \"readings\" does not exist")

	rec := doRequest(t, f.handler, http.MethodGet, "/api/cards", "alice-token", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Failed to load the card catalog", resp.Error)
	assert.NotEmpty(t, resp.TraceID)
	assert.False(t, resp.Retryable)
}

func TestRouter_Metrics(t *testing.T) {
	f := newRouterFixture(t)
	f.readings.DefaultError = service.ErrReadingNotFound

	rec := doRequest(t, f.handler, http.MethodGet, "/api/readings/"+uuid.NewString(), "alice-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, f.handler, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/api/readings/{id}"`), body)
	assert.Contains(t, body, `status="404"`)
}
