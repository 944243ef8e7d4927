package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/session"
)

// SessionManager is the part of session.Manager the handler uses.
type SessionManager interface {
	Start(owner string) (*session.Machine, error)
	Get(id uuid.UUID, owner string) (*session.Machine, error)
	Close(id uuid.UUID)
}

// SessionHandler exposes server-side reading sessions. A session belongs to
// the user who started it and each user has at most one.
type SessionHandler struct {
	sessions SessionManager
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionManager, logger *slog.Logger) *SessionHandler {
	if sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session manager cannot be nil for SessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// Start handles POST /api/sessions. A mode and domain in the body commit the
// new session to a topic straight away.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := handleUserIDFromContext(w, r, log)
	if !ok {
		return
	}
	var req StartSessionRequest
	if !parseOptionalRequest(w, r, &req, log) {
		return
	}

	m, err := h.sessions.Start(userID.String())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}
	log.Info("session started", slog.String("session_id", m.ID().String()))

	if req.Mode != "" {
		if err := chooseTopic(m, req.Mode, req.Domain); err != nil {
			HandleAPIError(w, r, err, "Failed to choose topic")
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, m.Snapshot())
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, m.Snapshot())
}

// Close handles DELETE /api/sessions/{id}.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	h.sessions.Close(m.ID())
	w.WriteHeader(http.StatusNoContent)
}

// Topic handles POST /api/sessions/{id}/topic.
func (h *SessionHandler) Topic(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req TopicRequest
	if !parseAndValidateRequest(w, r, &req, h.log(r)) {
		return
	}
	if err := chooseTopic(m, req.Mode, req.Domain); err != nil {
		HandleAPIError(w, r, err, "Failed to choose topic")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, m.Snapshot())
}

// Question handles POST /api/sessions/{id}/question.
func (h *SessionHandler) Question(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req QuestionRequest
	if !parseAndValidateRequest(w, r, &req, h.log(r)) {
		return
	}
	if err := m.SubmitQuestion(req.Question); err != nil {
		HandleAPIError(w, r, err, "Failed to submit question")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, m.Snapshot())
}

// Select handles POST /api/sessions/{id}/select.
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if !parseAndValidateRequest(w, r, &req, h.log(r)) {
		return
	}
	sc, err := m.SelectCard(req.CardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to select card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SelectionResponse{
		Selected: []domain.SelectedCard{sc},
		Session:  m.Snapshot(),
	})
}

// AutoSelect handles POST /api/sessions/{id}/auto-select.
func (h *SessionHandler) AutoSelect(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req AutoSelectRequest
	if !parseOptionalRequest(w, r, &req, h.log(r)) {
		return
	}
	picked, err := m.AutoSelect(req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to select cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SelectionResponse{
		Selected: picked,
		Session:  m.Snapshot(),
	})
}

// Retry handles POST /api/sessions/{id}/retry.
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req RetryRequest
	if !parseOptionalRequest(w, r, &req, h.log(r)) {
		return
	}

	var err error
	switch req.Step {
	case "draw":
		err = m.RetryDraw()
	case "interpretation":
		err = m.RetryInterpretation()
	default:
		err = m.Retry()
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retry")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, m.Snapshot())
}

// Restart handles POST /api/sessions/{id}/restart.
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	if err := m.Restart(); err != nil {
		HandleAPIError(w, r, err, "Failed to restart session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, m.Snapshot())
}

// Save handles POST /api/sessions/{id}/save.
func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	if err := m.SaveReading(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to save reading")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// machine resolves the caller's session from the {id} path parameter,
// writing an error response when it cannot.
func (h *SessionHandler) machine(w http.ResponseWriter, r *http.Request) (*session.Machine, bool) {
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", h.log(r))
	if !ok {
		return nil, false
	}
	m, err := h.sessions.Get(id, userID.String())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load session")
		return nil, false
	}
	return m, true
}

func (h *SessionHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

func chooseTopic(m *session.Machine, mode, d string) error {
	parsedMode, err := domain.ParseMode(mode)
	if err != nil {
		return err
	}
	parsedDomain, err := domain.ParseDomain(d)
	if err != nil {
		return err
	}
	return m.ChooseTopic(parsedMode, parsedDomain)
}
