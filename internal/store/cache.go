package store

import (
	"errors"
	"sync"
)

var ErrCacheMiss = errors.New("cache miss")

// LocalCache is the on-device key-value store. Entries are namespaced by device id.
type LocalCache interface {
	Get(namespace, key string) ([]byte, error)
	Set(namespace, key string, value []byte) error
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]map[string][]byte),
	}
}

func (m *MemoryCache) Get(namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[namespace][key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryCache) Set(namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.entries[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.entries[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryCache) Close() error {
	return nil
}
