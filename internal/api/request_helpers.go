package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"github.com/phrazzld/arcana/internal/service/auth"
)

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context, where the authentication middleware put it.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return auth.UserIDFromContext(r.Context())
}

// getPathUUID parses the named chi URL parameter as a UUID. A missing or
// malformed parameter is a validation error.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrValidation, paramName)
	}
	return id, nil
}

// handleUserIDFromContext returns the authenticated user, writing a 401 when
// there is none.
func handleUserIDFromContext(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}
	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// handleUserIDAndPathUUID extracts both the user ID from context and a UUID
// from the path. It writes an error response if either extraction fails.
func handleUserIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	userID, ok := handleUserIDFromContext(w, r, log)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleValidationError(w, r, err)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}

// parseAndValidateRequest decodes the JSON body into v and validates it,
// writing a 400 on failure.
func parseAndValidateRequest(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	return decodeAndValidate(w, r, v, log, shared.DecodeJSON)
}

// parseOptionalRequest is parseAndValidateRequest for endpoints whose body
// may be omitted.
func parseOptionalRequest(w http.ResponseWriter, r *http.Request, v any, log *slog.Logger) bool {
	return decodeAndValidate(w, r, v, log, shared.DecodeOptionalJSON)
}

func decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	v any,
	log *slog.Logger,
	decode func(*http.Request, any) error,
) bool {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}
	if err := decode(r, v); err != nil {
		log.Debug("failed to decode request body", slog.String("error", err.Error()))
		HandleValidationError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		log.Debug("request validation failed", slog.String("error", err.Error()))
		HandleValidationError(w, r, err)
		return false
	}
	return true
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrValidation, name)
	}
	return n, nil
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has invalid format", domain.ErrValidation, name)
	}
	return &id, nil
}
