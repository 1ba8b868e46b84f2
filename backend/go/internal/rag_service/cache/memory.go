package cache

import (
	"DocQA/backend/go/pkg/util"
	"context"
	"sync/atomic"
	"time"
)

// MemoryStore keeps entries in an in-process LRU.
type MemoryStore struct {
	lru        *util.LRUCache[string, []byte]
	generation atomic.Int64
}

// NewMemoryStore holds at most capacity entries, each living for ttl.
func NewMemoryStore(capacity int, ttl time.Duration) (*MemoryStore, error) {
	lru, err := util.NewWithConfig[string, []byte](util.CacheConfig{Capacity: capacity, TTL: ttl})
	if err != nil {
		return nil, err
	}
	return &MemoryStore{lru: lru}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

// Set ignores ttl; the LRU applies its own.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.lru.Put(key, value, 1)
	return nil
}

func (m *MemoryStore) Generation(context.Context) (int64, error) {
	return m.generation.Load(), nil
}

// Bump also drops the old entries since nothing can reach them anymore.
func (m *MemoryStore) Bump(context.Context) error {
	m.generation.Add(1)
	m.lru.Purge()
	return nil
}
