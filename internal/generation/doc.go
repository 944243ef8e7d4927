// Package generation is the seam between the reading backend and the
// language model that authors AI-assisted interpretations.
//
// The backend calls Interpreter with the querent's question and the selected
// cards and stores whatever comes back alongside the reading. Failures are
// classified with the sentinel errors declared next to the interface so the
// backend can tell a retryable outage from a blocked prompt. platform/gemini
// holds the production implementation.
package generation
