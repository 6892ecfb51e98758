package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/hilal/internal/model"
)

// Cache stores fetched page bodies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from a URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "hilal:v1:" + hex.EncodeToString(hash[:])
}

// New builds the configured tiers: memory, then disk, then Redis when a
// URL is set. The returned close function releases the Redis connection.
func New(cfg model.CacheConfig) (Cache, func() error, error) {
	tiers := []Cache{
		NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
		NewDiskCache(cfg.Dir, cfg.DiskTTL),
	}
	closeFn := func() error { return nil }

	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis tier: %w", err)
		}
		tiers = append(tiers, rc)
		closeFn = rc.Close
	}

	return NewLayeredCache(tiers...), closeFn, nil
}
