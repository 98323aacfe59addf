// Package cache stores the results of slow collaborator calls (translation and
// geocoding) so repeated scans of the same sign do not hit the network again.
//
// Two backends are provided:
//   - Memory: in-process, backed by patrickmn/go-cache
//   - Redis: shared between instances, backed by go-redis
//
// A Null cache disables caching.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by GetJSON when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte store with per-entry TTL. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the data and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 uses the backend default.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key builds a cache key from a namespace and free-form parts. The parts are
// hashed so OCR text of any length and content yields a safe key.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

// GetJSON reads key and unmarshals it into v. It returns ErrCacheMiss when the
// key is absent.
func GetJSON(ctx context.Context, c Cache, key string, v interface{}) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
