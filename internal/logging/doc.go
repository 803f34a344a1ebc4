// Package logging assembles the structured slog loggers used by the transporter.
//
// It owns the console and JSON handlers, level and output plumbing, the
// pass-scoped context fields attached to every transfer log line, and log file
// retention. NewNop serves tests and wiring code that cannot fail.
package logging
