package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "download_completed").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldPassID identifies a single download or upload pass.
	FieldPassID = "pass_id"
	// FieldDirection is "download" or "upload".
	FieldDirection = "direction"
	// FieldFile is the recording file name.
	FieldFile = "file"
	// FieldTarget is the upload target name.
	FieldTarget = "target"
	// FieldErrorKind is the transfer error category.
	FieldErrorKind = "error_kind"
)

type contextKey int

const (
	passIDKey contextKey = iota
	directionKey
)

// WithPass attaches a pass identifier and direction to ctx.
func WithPass(ctx context.Context, passID, direction string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, passIDKey, passID)
	return context.WithValue(ctx, directionKey, direction)
}

// PassFromContext returns the pass identifier stored by WithPass.
func PassFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(passIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := PassFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPassID, id))
	}
	if direction, ok := ctx.Value(directionKey).(string); ok && direction != "" {
		fields = append(fields, slog.String(FieldDirection, direction))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
