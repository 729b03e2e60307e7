// Package cache provides a TTL cache for venue market metadata.
package cache

import "time"

// Cache stores metadata lookups so hot paths avoid repeated REST calls.
type Cache interface {
	// Get retrieves a value. Returns (value, true) on a hit.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. Returns false if the value was not
	// admitted.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value.
	Delete(key string)

	// Clear removes all values.
	Clear()

	// Close releases cache resources.
	Close()
}
