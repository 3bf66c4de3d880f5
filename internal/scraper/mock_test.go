package scraper

import (
	"errors"
	"time"
)

// mockCache is a simple in-memory cache stand-in for the block-key tests.
type mockCache struct {
	store map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(key string) ([]byte, error) {
	if val, ok := m.store[key]; ok {
		return val, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(key string, value []byte, expiration time.Duration) error {
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(key string) error {
	delete(m.store, key)
	return nil
}
