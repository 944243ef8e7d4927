// Package service contains the backend use cases behind the reading gateway:
// catalog and draws, reading persistence, AI-assisted readings and journal
// entries.
//
// Services receive their dependencies through constructor injection and
// depend on repository interfaces rather than concrete stores. Operations
// that read then write (saving a reading, updating or deleting a journal
// entry) run inside store.RunInTransaction so the ownership check and the
// write see the same row.
//
// Error handling follows one rule: expected conditions are returned as
// sentinels (ErrNotOwned, ErrReadingNotFound, ErrJournalNotFound, or the
// domain taxonomy such as domain.ErrValidation), everything else is wrapped
// in ReadingServiceError or JournalServiceError. The API layer maps the
// sentinels to status codes.
//
// Backend composes both services into an in-process gateway.Gateway, so a
// session can run against the same code the HTTP API serves.
package service
