package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a Memory cache built by NewMemory.
const DefaultMaxEntries = 1024

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is a process-local cache. Expired entries are dropped on read and
// swept on write; when full, the entry closest to expiry is evicted.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]entry{}, maxEntries: DefaultMaxEntries, now: time.Now}
}

var _ Cache = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

// Set with a non-positive ttl stores nothing.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.sweep(now)
		if len(m.entries) >= m.maxEntries {
			m.evictSoonest()
		}
	}

	cp := make([]byte, len(val))
	copy(cp, val)
	m.entries[key] = entry{val: cp, expires: now.Add(ttl)}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) sweep(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) evictSoonest() {
	var (
		victim string
		first  = true
		soon   time.Time
	)
	for k, e := range m.entries {
		if first || e.expires.Before(soon) {
			victim, soon, first = k, e.expires, false
		}
	}
	if !first {
		delete(m.entries, victim)
	}
}
