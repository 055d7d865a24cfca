package kvstore

import (
	"context"
	"maps"
	"sync"

	"git.home.luguber.info/inful/bgtimer/internal/foundation"
)

// MemoryStore is an in-process Store. It backs the memory backend and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	calls  MemoryCalls
	closed bool
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Get    int
	Set    int
	Delete int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value under key.
func (m *MemoryStore) Get(_ context.Context, key string) (foundation.Option[string], error) {
	if err := checkKey(key); err != nil {
		return foundation.None[string](), err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return foundation.None[string](), ErrClosed
	}
	m.calls.Get++
	if v, ok := m.values[key]; ok {
		return foundation.Some(v), nil
	}
	return foundation.None[string](), nil
}

// Set stores value under key.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.calls.Set++
	m.values[key] = value
	return nil
}

// Delete removes key; missing keys are ignored.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.calls.Delete++
	delete(m.values, key)
	return nil
}

// Close marks the store closed. Later calls fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Snapshot returns a copy of all stored values.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// Calls returns the method call counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Reset clears values and call counters.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	m.calls = MemoryCalls{}
}
