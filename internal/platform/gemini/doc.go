// Package gemini implements generation.Interpreter with Google's Gemini API.
//
// The AIInterpreter renders a prompt from a text template, asks the model for
// a JSON interpretation, and normalizes the reply through
// gateway.NormalizeInterpretation so AI output takes the same canonical shape
// as every other backend-authored interpretation. Transient API failures are
// retried with exponential backoff and jitter; safety blocks and unparseable
// replies are returned immediately.
package gemini
