package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache. Expired entries are purged every cleanup
// interval.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a memory cache whose entries live for ttl unless Set is
// given another value. A ttl of 0 keeps entries until the process exits.
func NewMemory(ttl time.Duration) *Memory {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &Memory{store: gocache.New(expiration, cleanup)}
}

// Get returns the cached bytes for key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	return data, ok, nil
}

// Set stores a copy of data under key.
func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.store.Set(key, buf, ttl)
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// Len reports the number of entries, including expired ones not yet purged.
func (m *Memory) Len() int {
	return m.store.ItemCount()
}

// Close flushes all entries.
func (m *Memory) Close() error {
	m.store.Flush()
	return nil
}

var _ Cache = (*Memory)(nil)
