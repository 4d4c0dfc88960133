// Package kv provides the small key-value capability the client persists its
// session token through. Implementations cover an in-memory map, a no-op stub
// for contexts without durable storage, and a file-backed store.
package kv

import "sync"

// Store is a minimal string key-value capability. Remove of an absent key
// succeeds silently.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Memory is a mutex-guarded map store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Noop discards writes and never holds a value. It stands in for durable
// storage on execution contexts that have none, which keeps the session
// permanently anonymous.
type Noop struct{}

// NewNoop returns the always-absent store.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) Get(string) (string, bool) { return "", false }
func (*Noop) Set(string, string) error  { return nil }
func (*Noop) Remove(string) error       { return nil }
