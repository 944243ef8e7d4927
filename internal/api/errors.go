package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/arcana/internal/api/shared"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
	"github.com/phrazzld/arcana/internal/service"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/phrazzld/arcana/internal/session"
	"github.com/phrazzld/arcana/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrNoUser),
		errors.Is(err, domain.ErrAuthExpired):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, session.ErrNotOwner):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrReadingNotFound),
		errors.Is(err, service.ErrJournalNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, gateway.ErrNotFound),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionClosed):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Conflict errors: the request is well formed but the reading is not in
	// a state that allows it.
	case domain.IsSelectionSignal(err),
		errors.Is(err, domain.ErrInsufficientCatalog),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, session.ErrNothingToRetry),
		errors.Is(err, session.ErrNotPersisted):
		return http.StatusConflict

	// Upstream errors
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, gateway.ErrMalformedResponse):
		return http.StatusBadGateway

	case errors.Is(err, domain.ErrAIUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, domain.ErrAuthExpired):
		return "Authentication expired, please sign in again"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrNoUser):
		return "Invalid token"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, session.ErrNotOwner):
		return "You do not have access to this resource"

	// Not found errors
	case errors.Is(err, service.ErrReadingNotFound):
		return "Reading not found"
	case errors.Is(err, service.ErrJournalNotFound):
		return "Journal entry not found"
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionClosed):
		return "Session not found"
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, gateway.ErrNotFound):
		return "Resource not found"

	// Validation errors, most specific first
	case errors.Is(err, domain.ErrEmptyQuestion):
		return "A question is required for an AI reading"
	case errors.Is(err, domain.ErrWrongSelectionCount):
		return "The selection does not fill the spread"
	case errors.Is(err, domain.ErrInvalidDomain):
		return "Invalid domain"
	case errors.Is(err, domain.ErrInvalidMode):
		return "Invalid reading mode"
	case errors.Is(err, domain.ErrValidation) && errors.Is(err, domain.ErrAlreadySelected):
		return "The selection repeats a card"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	// Selection signals
	case errors.Is(err, domain.ErrSelectionFull):
		return "The spread is already full"
	case errors.Is(err, domain.ErrAlreadySelected):
		return "That card is already selected"
	case errors.Is(err, domain.ErrCardNotInWorkingSet):
		return "That card was not dealt in this session"

	// Conflicts
	case errors.Is(err, domain.ErrInsufficientCatalog):
		return "Not enough cards are available for this draw"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "That action is not allowed right now"
	case errors.Is(err, session.ErrNothingToRetry):
		return "There is nothing to retry"
	case errors.Is(err, session.ErrNotPersisted):
		return "The reading has not been stored yet"

	// Upstream errors
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, gateway.ErrMalformedResponse):
		return "The reading service is temporarily unavailable"
	case errors.Is(err, domain.ErrAIUnavailable):
		return "AI readings are not available"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err. A non-empty
// fallback replaces the generic message of unclassified errors. Retryable
// errors are flagged so clients can offer a retry.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	opts := []shared.ResponseOption{shared.WithRetryable(domain.IsRetryable(err))}
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleValidationError writes a 400 for a request that failed decoding or
// struct validation.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fieldName(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	if errors.Is(err, shared.ErrEmptyBody) {
		return "Request body is required"
	}
	if errors.Is(err, domain.ErrValidation) {
		return GetSafeErrorMessage(err)
	}
	return "Invalid request format"
}

// fieldName converts a Go field name such as ReadingID to reading_id.
func fieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := field[i-1] >= 'a' && field[i-1] <= 'z'
			nextLower := i+1 < len(field) && field[i+1] >= 'a' && field[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid ID"
	default:
		return "validation failed"
	}
}
