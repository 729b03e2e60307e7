package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// RistrettoCache is a Cache backed by Ristretto's admission-controlled store.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds Ristretto sizing parameters.
type RistrettoConfig struct {
	NumCounters int64 // keys tracked for frequency, roughly 10x max items
	MaxCost     int64 // max items (cost 1 per entry)
	BufferItems int64 // keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a Ristretto-backed cache. A nil config gets
// defaults sized for roughly a thousand markets.
func NewRistrettoCache(cfg *RistrettoConfig) (*RistrettoCache, error) {
	if cfg == nil {
		cfg = &RistrettoConfig{}
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 10000
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1000
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{cache: cache, logger: logger}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.cache.Get(key)
	if found {
		HitsTotal.Inc()
	} else {
		MissesTotal.Inc()
	}
	return value, found
}

// Set stores a value with a TTL.
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	ok := r.cache.SetWithTTL(key, value, 1, ttl)
	if ok {
		SetsTotal.Inc()
		r.logger.Debug("cache-set", zap.String("key", key), zap.Duration("ttl", ttl))
	}
	return ok
}

// Delete removes a value.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)
}

// Clear removes all values.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
}

// Close releases cache resources.
func (r *RistrettoCache) Close() {
	r.cache.Close()
}

// Wait blocks until pending writes are applied. Needed before reading back
// a value that was just set.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
