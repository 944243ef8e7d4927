// Package logger configures the process-wide slog logger and threads
// request-scoped loggers through context.Context.
//
// Output is JSON. Attributes that look like secrets or connection strings
// are masked by the redact package before they are written.
package logger
