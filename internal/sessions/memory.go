package sessions

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore is a process-local Store. Expired entries are dropped on access
// and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

// SetClock overrides the time source.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Save(_ context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, key string, out any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !m.now().Before(entry.expires) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := decode(entry.data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryStore) Close() error { return nil }
