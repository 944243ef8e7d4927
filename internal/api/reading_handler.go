package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/service"
)

// Listing bounds
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ReadingHandler handles catalog, draw and reading requests.
type ReadingHandler struct {
	readings service.ReadingService
	logger   *slog.Logger
}

// NewReadingHandler creates a new ReadingHandler.
func NewReadingHandler(readings service.ReadingService, logger *slog.Logger) *ReadingHandler {
	if readings == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reading service cannot be nil for ReadingHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingHandler{
		readings: readings,
		logger:   logger.With(slog.String("component", "reading_handler")),
	}
}

// ListCatalog handles GET /api/cards.
func (h *ReadingHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	cards, err := h.readings.ListCatalog(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load the card catalog")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CardsResponse{Cards: cards})
}

// Draw handles POST /api/draws.
func (h *ReadingHandler) Draw(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req DrawRequest
	if !parseAndValidateRequest(w, r, &req, log) {
		return
	}

	cards, err := h.readings.DrawRandom(r.Context(), req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to draw cards")
		return
	}
	log.Debug("drew cards", slog.Int("count", len(cards)))
	shared.RespondWithJSON(w, r, http.StatusOK, DrawResponse{Cards: cards})
}

// CreateReading handles POST /api/readings.
func (h *ReadingHandler) CreateReading(w http.ResponseWriter, r *http.Request) {
	h.createReading(w, r, domain.ModeStandard, h.readings.CreateReading)
}

// CreateAIReading handles POST /api/readings/ai.
func (h *ReadingHandler) CreateAIReading(w http.ResponseWriter, r *http.Request) {
	h.createReading(w, r, domain.ModeAI, h.readings.CreateAIReading)
}

type createFunc func(ctx context.Context, userID uuid.UUID, req gateway.ReadingRequest) (*domain.Reading, error)

func (h *ReadingHandler) createReading(w http.ResponseWriter, r *http.Request, mode domain.Mode, create createFunc) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserIDFromContext(w, r, log)
	if !ok {
		return
	}

	var req CreateReadingRequest
	if !parseAndValidateRequest(w, r, &req, log) {
		return
	}
	greq, err := req.toGatewayRequest(mode)
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	reading, err := create(r.Context(), userID, greq)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create reading")
		return
	}

	log.Info("reading created",
		slog.String("reading_id", reading.ID.String()),
		slog.String("mode", string(reading.Mode)),
		slog.String("domain", string(reading.Domain)))
	shared.RespondWithJSON(w, r, http.StatusCreated, readingToResponse(reading))
}

// SaveReading handles POST /api/readings/{id}/save.
func (h *ReadingHandler) SaveReading(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, readingID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	if err := h.readings.SaveReading(r.Context(), userID, readingID); err != nil {
		HandleAPIError(w, r, err, "Failed to save reading")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReading handles GET /api/readings/{id}.
func (h *ReadingHandler) GetReading(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, readingID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	reading, err := h.readings.GetReading(r.Context(), userID, readingID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get reading")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, readingToResponse(reading))
}

// ListReadings handles GET /api/readings?limit=&offset=.
func (h *ReadingHandler) ListReadings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserIDFromContext(w, r, log)
	if !ok {
		return
	}
	limit, offset, err := pageParams(r)
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	readings, err := h.readings.ListReadings(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list readings")
		return
	}
	resp := ReadingsResponse{Readings: make([]ReadingResponse, 0, len(readings))}
	for _, reading := range readings {
		resp.Readings = append(resp.Readings, readingToResponse(reading))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// toGatewayRequest converts the payload for a reading of the given mode. An
// explicit mode in the payload must agree with the endpoint.
func (req CreateReadingRequest) toGatewayRequest(mode domain.Mode) (gateway.ReadingRequest, error) {
	d, err := domain.ParseDomain(req.Domain)
	if err != nil {
		return gateway.ReadingRequest{}, err
	}
	if req.Mode != "" {
		m, err := domain.ParseMode(req.Mode)
		if err != nil {
			return gateway.ReadingRequest{}, err
		}
		if m != mode {
			return gateway.ReadingRequest{}, domain.ErrInvalidMode
		}
	}
	return gateway.ReadingRequest{
		Mode:           mode,
		Domain:         d,
		Question:       req.Question,
		Selection:      req.Selection,
		Interpretation: req.Interpretation,
	}, nil
}

// pageParams reads limit and offset, clamping limit to maxListLimit.
func pageParams(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case limit == 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
