// Package memory is an in-process store backend for tests and throwaway runs.
package memory

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// Backend keeps records in a go-cache instance that never expires entries.
type Backend struct {
	cache *cache.Cache
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{cache: cache.New(cache.NoExpiration, 0)}
}

// Get returns a copy of the stored value.
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw := v.([]byte)
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

// Set stores a copy of value.
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	b.cache.Set(key, cp, cache.NoExpiration)
	return nil
}

// Delete removes key.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.cache.Delete(key)
	return nil
}

// Ping always succeeds.
func (b *Backend) Ping(context.Context) error { return nil }

// Close drops every record.
func (b *Backend) Close() error {
	b.cache.Flush()
	return nil
}
