package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Attr is the attribute type accepted by the helpers below.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Int(key string, value int) Attr { return slog.Int(key, value) }
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }
func String(key string, value string) Attr { return slog.String(key, value) }
func Strings(key string, values []string) Attr { return slog.Any(key, values) }

// Error records err under "error"; a nil error is written as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact, filling generic values for whichever attrs omit.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "check logs for details")
	attrs = withDefault(attrs, FieldImpact, "operation completed with warnings")
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, FieldEventType, eventType)
	attrs = withDefault(attrs, FieldErrorHint, "check logs for details")
	logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

func withDefault(attrs []Attr, key, value string) []Attr {
	if slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == key }) {
		return attrs
	}
	return append(attrs, String(key, value))
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }
func (noopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h noopHandler) WithGroup(string) slog.Handler { return h }
