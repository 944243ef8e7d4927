package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/service"
)

// JournalHandler handles journal entry CRUD requests. Every operation is
// scoped to the authenticated user.
type JournalHandler struct {
	journals service.JournalService
	logger   *slog.Logger
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journals service.JournalService, logger *slog.Logger) *JournalHandler {
	if journals == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("journal service cannot be nil for JournalHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalHandler{
		journals: journals,
		logger:   logger.With(slog.String("component", "journal_handler")),
	}
}

// Get handles GET /api/journals/{id}.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	entry, err := h.journals.Fetch(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get journal entry")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// List handles GET /api/journals?reading_id=&limit=&offset=.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
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
	readingID, err := queryUUID(r, "reading_id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	entries, err := h.journals.List(r.Context(), domain.JournalFilter{
		UserID:    userID,
		ReadingID: readingID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list journal entries")
		return
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JournalsResponse{Journals: entries})
}

// Create handles POST /api/journals.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserIDFromContext(w, r, log)
	if !ok {
		return
	}
	var in domain.JournalInput
	if !parseAndValidateRequest(w, r, &in, log) {
		return
	}

	entry, err := h.journals.Create(r.Context(), userID, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create journal entry")
		return
	}
	log.Info("journal entry created", slog.String("journal_id", entry.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, entry)
}

// Update handles PUT /api/journals/{id}.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	var in domain.JournalInput
	if !parseAndValidateRequest(w, r, &in, log) {
		return
	}

	entry, err := h.journals.Update(r.Context(), userID, id, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update journal entry")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// Delete handles DELETE /api/journals/{id}.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}
	if err := h.journals.Delete(r.Context(), userID, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete journal entry")
		return
	}
	log.Info("journal entry deleted", slog.String("journal_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
