package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one header line per record followed by indented
// fields:
//
//	2026-03-01 10:00:00 INFO [uploader] sde_output_manager – upload started
//	    - File: shot010.mov
//
// Info and above show a curated subset of fields; debug shows every key.
type consoleHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	source bool
	attrs  []kv
	groups []string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, source: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	fields = append(fields, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.groups, attr)
		return true
	})
	fields = dedupeKVsByKey(fields)

	var component, action, jobID string
	shown := fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
			continue
		case FieldAction:
			action = attrString(f.value)
		case FieldJobID:
			jobID = attrString(f.value)
		}
		shown = append(shown, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(formatTimestamp(ts))
	b.WriteByte(' ')
	b.WriteString(levelLabel(record.Level))
	if component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	if subject := FormatSubject(action, jobID); subject != "" {
		b.WriteByte(' ')
		b.WriteString(subject)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	b.WriteString(" – ")
	b.WriteString(message)
	if src := record.Source(); h.source && src != nil {
		fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
	}
	b.WriteByte('\n')

	if record.Level < slog.LevelInfo {
		for _, f := range shown {
			fmt.Fprintf(&b, "    %s: %s\n", f.key, formatValue(f.value))
		}
	} else {
		info, hidden := selectInfoFields(shown, infoAttrLimit)
		for _, f := range info {
			fmt.Fprintf(&b, "    - %s: %s\n", f.label, f.value)
		}
		switch {
		case hidden == 1:
			b.WriteString("    + 1 more field hidden\n")
		case hidden > 1:
			fmt.Fprintf(&b, "    + %d more fields hidden\n", hidden)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]kv(nil), h.attrs...)
	flattenAttrs(&next.attrs, h.groups, attrs)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = appendPrefix(h.groups, name)
	return &next
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
