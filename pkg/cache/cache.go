// Package cache provides generic, thread-safe cache implementations used for
// the engine's memoization of combinator output and other read-through maps.
//
// Two cache types are offered:
//   - SimpleCache: no eviction policy (stores items indefinitely)
//   - LRUCache: least-recently-used eviction bounded by size
//
// All implementations are thread-safe with built-in statistics (always
// enabled) and optional Prometheus metrics via functional options. Entries
// are keyed by structurally immutable inputs, so a race that computes the
// same entry twice is correctness-neutral.
package cache

import (
	"github.com/nikolozi2001/pcaxis-server-sub000/errors"
)

// Cache represents a generic cache interface that all implementations satisfy.
// The cache is parameterized by value type V for type safety.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found,
	// zero value and false otherwise.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry was
	// created, false if an existing one was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns a slice of all keys currently in the cache.
	Keys() []string

	// Stats returns cache statistics.
	Stats() *Statistics
}

// EvictCallback is called when an entry is evicted from the cache.
type EvictCallback[V any] func(key string, value V)

// validateKey validates a cache key for basic requirements.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
