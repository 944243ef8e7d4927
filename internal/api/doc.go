// Package api exposes the reading backend and the interactive session
// machine over HTTP using chi.
//
// Three groups of routes sit behind bearer authentication:
//
//	/api/catalog, /api/draws        card catalog and server-side draws
//	/api/readings, /api/journals    stored readings and journal entries
//	/api/sessions                   one live reading session per user
//
// Handlers decode and validate JSON bodies, call a service and map the
// returned error to a status code with MapErrorToStatusCode. Only the safe
// messages from GetSafeErrorMessage ever reach the client.
package api
