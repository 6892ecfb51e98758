package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through tiers in order, fastest first, and promotes
// hits into the faster tiers. Writes go to every tier.
type LayeredCache struct {
	tiers []Cache
}

// NewLayeredCache creates a layered cache over tiers
func NewLayeredCache(tiers ...Cache) *LayeredCache {
	return &LayeredCache{tiers: tiers}
}

// Get returns the first hit and copies it into the tiers above it
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, tier := range c.tiers {
		val, found := tier.Get(key)
		if !found {
			continue
		}
		for _, upper := range c.tiers[:i] {
			_ = upper.Set(key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set stores a value in every tier
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Set(key, value, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes a value from every tier
func (c *LayeredCache) Delete(key string) error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties every tier
func (c *LayeredCache) Clear() error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
