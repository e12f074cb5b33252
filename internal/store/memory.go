package store

import (
	"context"
	"sync"
)

// NewMemoryBackend returns a Backend held entirely in memory.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// MemoryBackend implements Backend for tests and ephemeral sessions.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// Get retrieves the value stored under key.
func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	value, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Remove deletes the value stored under key.
func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// Has reports whether a key exists. Useful for tests.
func (m *MemoryBackend) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}
