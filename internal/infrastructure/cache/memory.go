// Package cache holds the process-local TTL cache used for geocoded ZIP
// codes and regional wine answers.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verre/backend/internal/domain"
)

const (
	defaultCleanupInterval = 10 * time.Minute
	defaultMaxEntries      = 10000
)

// Options configures a MemoryCache
type Options struct {
	// CleanupInterval is how often expired entries are swept
	CleanupInterval time.Duration
	// MaxEntries bounds the cache; when full, the entry closest to expiry
	// is evicted to make room
	MaxEntries int
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache is a bounded, thread-safe in-memory cache with TTL support.
// Values are stored as-is, so callers get back exactly the type they put in.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int
	stop       chan struct{}
	once       sync.Once
	logger     *zap.Logger
}

// NewMemoryCache creates a cache with default options
func NewMemoryCache() *MemoryCache {
	return New(Options{})
}

// New creates a cache and starts its background sweeper. Call Close to stop it.
func New(opts Options) *MemoryCache {
	interval := opts.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	c := &MemoryCache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
		logger:     zap.L().Named("cache"),
	}
	go c.sweepEvery(interval)
	return c
}

// Get retrieves a live value or returns domain.ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// evictLocked drops expired entries, or failing that the one expiring soonest
func (c *MemoryCache) evictLocked(now time.Time) {
	if c.removeExpiredLocked(now) > 0 {
		return
	}

	var victim string
	var soonest time.Time
	for key, e := range c.entries {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim, soonest = key, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

// Delete removes a value
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists reports whether key holds a live value
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && !e.expired(time.Now()), nil
}

// Close stops the background sweeper
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			removed := c.removeExpiredLocked(time.Now())
			c.mu.Unlock()
			if removed > 0 {
				c.logger.Debug("swept expired entries", zap.Int("removed", removed))
			}
		}
	}
}

func (c *MemoryCache) removeExpiredLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of stored entries, expired or not
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes everything
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
