package logging

import (
	"context"
	"log/slog"

	"shothook/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAction is the structured logging key for action identifiers.
	FieldAction = "action"
	// FieldUser is the structured logging key for the username that triggered an event.
	FieldUser = "user"
	// FieldEventID is the structured logging key for host event identifiers.
	FieldEventID = "event_id"
	// FieldTopic is the structured logging key for event topics.
	FieldTopic = "topic"
	// FieldJobID is the structured logging key for background job identifiers.
	FieldJobID = "job_id"
	// FieldJobKind is the structured logging key for background job kinds.
	FieldJobKind = "job_kind"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Classify output.
	FieldErrorKind = "error_kind"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 5)
	if action, ok := services.ActionFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAction, action))
	}
	if user, ok := services.UserFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUser, user))
	}
	if id, ok := services.EventIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEventID, id))
	}
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
	return logger.With(attrsToArgs(fields)...)
}
