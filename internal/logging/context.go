package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldImageID is the standardized structured logging key for image identifiers.
	FieldImageID = "image_id"
	// FieldAttemptID is the standardized structured logging key for generation attempt identifiers.
	FieldAttemptID = "attempt_id"
	// FieldSource is the standardized structured logging key for prediction source names.
	FieldSource = "source"
	// FieldTagID is the standardized structured logging key for tag identifiers.
	FieldTagID = "tag_id"
	// FieldEventType is the standardized structured logging key for event classification.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator guidance.
	FieldErrorHint = "error_hint"
)

type contextKey string

const (
	imageIDKey   contextKey = "image_id"
	attemptIDKey contextKey = "attempt_id"
	sourceKey    contextKey = "source"
)

// WithImageID stores an image identifier on the context for log enrichment.
func WithImageID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, imageIDKey, id)
}

// ImageIDFromContext extracts a previously stored image identifier.
func ImageIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(imageIDKey).(int64)
	return id, ok
}

// WithAttemptID stores a generation attempt identifier on the context.
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptIDKey, id)
}

// AttemptIDFromContext extracts a previously stored attempt identifier.
func AttemptIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(attemptIDKey).(string)
	return id, ok
}

// WithSource stores a prediction source name on the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext extracts a previously stored source name.
func SourceFromContext(ctx context.Context) (string, bool) {
	source, ok := ctx.Value(sourceKey).(string)
	return source, ok
}

// ContextFields extracts standardized attributes from the provided context.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var attrs []Attr
	if id, ok := ImageIDFromContext(ctx); ok {
		attrs = append(attrs, Int64(FieldImageID, id))
	}
	if id, ok := AttemptIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldAttemptID, id))
	}
	if source, ok := SourceFromContext(ctx); ok {
		attrs = append(attrs, String(FieldSource, source))
	}
	return attrs
}

// WithContext returns a logger enriched with any standardized fields stored on ctx.
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
