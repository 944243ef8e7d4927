// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when input fails validation. The transition
	// that triggered it is blocked and the caller should re-prompt.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyQuestion is returned when an AI-assisted reading is started
	// without a question.
	ErrEmptyQuestion = fmt.Errorf("%w: question cannot be empty", ErrValidation)

	// ErrWrongSelectionCount is returned when a selection does not have the
	// size required by the spread.
	ErrWrongSelectionCount = fmt.Errorf("%w: wrong selection count", ErrValidation)

	// ErrInvalidDomain is returned for a life domain outside the closed set.
	ErrInvalidDomain = fmt.Errorf("%w: invalid domain", ErrValidation)

	// ErrInvalidMode is returned for an unknown reading mode.
	ErrInvalidMode = fmt.Errorf("%w: invalid reading mode", ErrValidation)

	// ErrInvalidPosition is returned for an unknown spread position.
	ErrInvalidPosition = fmt.Errorf("%w: invalid spread position", ErrValidation)

	// ErrInsufficientCatalog is returned when the catalog cannot supply the
	// requested number of cards. Retryable.
	ErrInsufficientCatalog = errors.New("insufficient catalog")

	// ErrNetwork is returned when a remote call fails in a way that may
	// succeed on retry.
	ErrNetwork = errors.New("network error")

	// ErrSelectionFull is signalled when a selection is attempted after the
	// spread is already filled. The selection is left unchanged.
	ErrSelectionFull = errors.New("selection is full")

	// ErrAlreadySelected is signalled when the same card is selected twice.
	ErrAlreadySelected = errors.New("card already selected")

	// ErrCardNotInWorkingSet is signalled when a selected card was not drawn
	// for the current session.
	ErrCardNotInWorkingSet = errors.New("card is not in the working set")

	// ErrAuthExpired is returned when the backend rejects the caller's
	// credentials. It is fatal to the session and must never be treated as a
	// network error.
	ErrAuthExpired = errors.New("authentication expired, please reauthenticate")

	// ErrInvalidTransition is returned when an operation is not allowed in the
	// session's current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAIUnavailable is returned when an AI-assisted reading is requested
	// but no AI-backed interpreter is configured.
	ErrAIUnavailable = errors.New("AI interpretation is not available")
)

// IsRetryable reports whether err describes a condition the caller may retry
// without restarting the session.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrAuthExpired) {
		return false
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrInsufficientCatalog)
}

// IsSelectionSignal reports whether err is one of the non-fatal selection
// signals that leave the session unchanged.
func IsSelectionSignal(err error) bool {
	return errors.Is(err, ErrSelectionFull) ||
		errors.Is(err, ErrAlreadySelected) ||
		errors.Is(err, ErrCardNotInWorkingSet)
}
