package session

import "errors"

var (
	// ErrSessionClosed is returned by every operation on a closed machine.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSessionNotFound is returned when a manager has no such session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotOwner is returned when a session is accessed by someone other
	// than the owner it was started for.
	ErrNotOwner = errors.New("session belongs to another owner")

	// ErrNothingToRetry is returned when a retry is requested but the
	// session has no failed step to repeat.
	ErrNothingToRetry = errors.New("nothing to retry")

	// ErrNotPersisted is returned when saving a reading the backend never
	// assigned an ID to.
	ErrNotPersisted = errors.New("reading was not persisted by the backend")
)
