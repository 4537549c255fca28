package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEvent is one log record as served to `shothook logs`.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Action        string            `json:"action,omitempty"`
	User          string            `json:"user,omitempty"`
	EventID       string            `json:"event_id,omitempty"`
	JobID         string            `json:"job_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// StreamHub keeps the most recent log events in a fixed ring. Sequence
// numbers start at 1 and never repeat, so readers resume with the last
// sequence they saw.
type StreamHub struct {
	mu      sync.Mutex
	ring    []LogEvent
	start   int
	count   int
	lastSeq uint64
	// changed is closed and replaced on every Publish.
	changed chan struct{}
}

// NewStreamHub returns a hub holding up to capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = 512
	}
	return &StreamHub{ring: make([]LogEvent, capacity), changed: make(chan struct{})}
}

// Publish stores evt, evicting the oldest event once the ring is full.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSeq++
	evt.Sequence = h.lastSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	size := len(h.ring)
	if h.count < size {
		h.ring[(h.start+h.count)%size] = evt
		h.count++
	} else {
		h.ring[h.start] = evt
		h.start = (h.start + 1) % size
	}
	close(h.changed)
	h.changed = make(chan struct{})
}

// Fetch returns up to limit events newer than since, plus the latest
// sequence. With wait set it blocks until an event arrives or ctx ends; the
// context error is returned in the latter case.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	for {
		h.mu.Lock()
		events := h.collectLocked(since, limit)
		last, changed := h.lastSeq, h.changed
		h.mu.Unlock()
		if len(events) > 0 || !wait {
			return events, last, nil
		}
		select {
		case <-ctx.Done():
			return nil, last, ctx.Err()
		case <-changed:
		}
	}
}

// Tail returns the newest limit events without blocking.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogEvent, 0, n)
	for i := h.count - n; i < h.count; i++ {
		out = append(out, h.at(i))
	}
	return out, h.lastSeq
}

func (h *StreamHub) collectLocked(since uint64, limit int) []LogEvent {
	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	var out []LogEvent
	for i := 0; i < h.count && len(out) < limit; i++ {
		if evt := h.at(i); evt.Sequence > since {
			out = append(out, evt)
		}
	}
	return out
}

func (h *StreamHub) at(i int) LogEvent {
	return h.ring[(h.start+i)%len(h.ring)]
}

// streamHandler copies every handled record into a StreamHub before passing
// it on.
type streamHandler struct {
	next   slog.Handler
	hub    *StreamHub
	attrs  []kv
	groups []string
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	fields = append(fields, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.groups, attr)
		return true
	})
	h.hub.Publish(newLogEvent(record, dedupeKVsByKey(fields)))
	return h.next.Handle(ctx, record)
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.next = h.next.WithAttrs(attrs)
	next.attrs = append([]kv(nil), h.attrs...)
	flattenAttrs(&next.attrs, h.groups, attrs)
	return &next
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.next = h.next.WithGroup(name)
	next.groups = appendPrefix(h.groups, name)
	return &next
}

func newLogEvent(record slog.Record, fields []kv) LogEvent {
	evt := LogEvent{
		Timestamp: record.Time,
		Level:     strings.ToUpper(record.Level.String()),
		Message:   strings.TrimSpace(record.Message),
	}
	for _, f := range fields {
		value := attrString(f.value)
		switch f.key {
		case FieldComponent:
			evt.Component = value
		case FieldAction:
			evt.Action = value
		case FieldUser:
			evt.User = value
		case FieldEventID:
			evt.EventID = value
		case FieldJobID:
			evt.JobID = value
		case FieldCorrelationID:
			evt.CorrelationID = value
		default:
			if evt.Fields == nil {
				evt.Fields = make(map[string]string, len(fields))
			}
			evt.Fields[f.key] = value
		}
	}
	return evt
}
