package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actionKey    contextKey = "action"
	userKey      contextKey = "user"
	eventIDKey   contextKey = "event_id"
	jobIDKey     contextKey = "job_id"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

// WithAction annotates context with the action identifier handling the event.
func WithAction(ctx context.Context, action string) context.Context {
	if action == "" {
		return ctx
	}
	return context.WithValue(ctx, actionKey, action)
}

// ActionFromContext returns the action identifier if present.
func ActionFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, actionKey)
}

// WithUser annotates context with the username that triggered the event.
func WithUser(ctx context.Context, user string) context.Context {
	if user == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the triggering username if present.
func UserFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, userKey)
}

// WithEventID annotates context with the host event identifier.
func WithEventID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, eventIDKey, id)
}

// EventIDFromContext returns the host event identifier if present.
func EventIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, eventIDKey)
}

// WithJobID annotates context with a background job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext returns the background job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, jobIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
