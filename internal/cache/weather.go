// Package cache holds the process-wide weather snapshot cache.
package cache

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pawwalk/pawwalk/internal/integrations/weather"
	"github.com/pawwalk/pawwalk/pkg/metrics"
)

const (
	DefaultWeatherTTL      = 600 * time.Second
	DefaultWeatherCapacity = 1024
)

// Snapshot is a cached observation annotated with its freshness.
type Snapshot struct {
	Data            weather.Observation `json:"data"`
	StoredAt        time.Time           `json:"stored_at"`
	IsStale         bool                `json:"is_stale"`
	CacheAgeSeconds int                 `json:"cache_age_seconds"`
}

type weatherEntry struct {
	data     weather.Observation
	storedAt time.Time
}

// WeatherOption customises a WeatherCache.
type WeatherOption func(*WeatherCache)

// WithTTL overrides the soft expiry.
func WithTTL(ttl time.Duration) WeatherOption {
	return func(c *WeatherCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCapacity bounds the number of cached coordinates.
func WithCapacity(capacity int) WeatherOption {
	return func(c *WeatherCache) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) WeatherOption {
	return func(c *WeatherCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WeatherCache maps rounded coordinates to the last observation seen there.
// Entries past the TTL are still served, flagged as stale.
type WeatherCache struct {
	mu       sync.Mutex
	entries  map[string]weatherEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewWeatherCache constructs an empty cache.
func NewWeatherCache(opts ...WeatherOption) *WeatherCache {
	c := &WeatherCache{
		entries:  make(map[string]weatherEntry),
		ttl:      DefaultWeatherTTL,
		capacity: DefaultWeatherCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WeatherKey rounds both coordinates to four decimals (about 11m).
func WeatherKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", round4(lat), round4(lng))
}

func round4(v float64) float64 {
	r := math.Round(v*10000) / 10000
	if r == 0 {
		// Collapse -0 so both sides of the equator or meridian share a key.
		return 0
	}
	return r
}

// Get returns the snapshot stored for the coordinates, if any.
func (c *WeatherCache) Get(lat, lng float64) (Snapshot, bool) {
	key := WeatherKey(lat, lng)

	c.mu.Lock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.Unlock()

	if !ok {
		metrics.WeatherCache.WithLabelValues("miss").Inc()
		return Snapshot{}, false
	}

	age := now.Sub(entry.storedAt)
	snap := Snapshot{
		Data:            entry.data,
		StoredAt:        entry.storedAt,
		IsStale:         age > c.ttl,
		CacheAgeSeconds: int(age / time.Second),
	}
	if snap.IsStale {
		metrics.WeatherCache.WithLabelValues("stale").Inc()
	} else {
		metrics.WeatherCache.WithLabelValues("hit").Inc()
	}
	return snap, true
}

// Put stores data for the coordinates, evicting the oldest entry when full.
func (c *WeatherCache) Put(lat, lng float64, data weather.Observation) {
	key := WeatherKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = weatherEntry{data: data, storedAt: c.now()}
}

// Len reports the number of cached coordinates.
func (c *WeatherCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *WeatherCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, entry.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
