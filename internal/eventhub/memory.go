package eventhub

import (
	"context"
	"errors"
	"sync"
)

// MemoryTransport is an in-process transport. Published events are recorded
// and, unless they are replies, delivered to the consumer.
type MemoryTransport struct {
	mu        sync.Mutex
	queue     chan Event
	published []Event
	closed    bool
	// done is closed by Close; queue is never closed.
	done      chan struct{}
	loopback  func(Event) bool
}

// NewMemoryTransport creates a transport with the given buffer size.
func NewMemoryTransport(buffer int) *MemoryTransport {
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryTransport{
		queue:    make(chan Event, buffer),
		done:     make(chan struct{}),
		loopback: consumable,
	}
}

// Publish records ev and queues it for consumption.
func (m *MemoryTransport) Publish(ctx context.Context, ev Event) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("memory transport closed")
	}
	m.published = append(m.published, ev)
	deliver := m.loopback(ev)
	m.mu.Unlock()
	if !deliver {
		return nil
	}
	select {
	case m.queue <- ev:
		return nil
	case <-m.done:
		return errors.New("memory transport closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume delivers queued events until ctx is done or the transport closes.
func (m *MemoryTransport) Consume(ctx context.Context, fn func(context.Context, Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.queue:
			fn(ctx, ev)
		case <-m.done:
			for {
				select {
				case ev := <-m.queue:
					fn(ctx, ev)
				default:
					return nil
				}
			}
		}
	}
}

// Published returns a copy of every published event.
func (m *MemoryTransport) Published() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.published...)
}

// Replies returns published events on topic.
func (m *MemoryTransport) Replies(topic string) []Event {
	var out []Event
	for _, ev := range m.Published() {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

// Close stops Consume after queued events drain.
func (m *MemoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}
