package stats

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"signaltracker/src/model"
)

// Cache is a caller-controlled snapshot cache for channel statistics.
// Mutations in this process must invalidate or refresh the affected
// channel; entries additionally expire after ttl so signals resolved by
// another process sharing the database are picked up again. A cached entry
// is only ever a copy of a recomputation, never a source of truth of its
// own.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	stats    model.ChannelStatistics
	storedAt time.Time
}

// NewCache creates a cache whose entries expire after ttl. A zero or
// negative ttl disables expiry, which is only safe when every writer runs
// in this process.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached snapshot for a channel, if present and not yet
// expired.
func (c *Cache) Get(channelName string) (model.ChannelStatistics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[channelName]
	if !ok || !c.fresh(entry.storedAt) {
		return model.ChannelStatistics{}, false
	}
	return entry.stats, true
}

// Put stores a freshly computed snapshot.
func (c *Cache) Put(stats model.ChannelStatistics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[stats.ChannelName] = cacheEntry{stats: stats, storedAt: c.now()}
}

// Fresh reports whether statistics stamped at t are still inside the
// expiry window. Used to judge persisted snapshots written by the checker
// process before serving them.
func (c *Cache) Fresh(t time.Time) bool {
	return c.fresh(t)
}

func (c *Cache) fresh(t time.Time) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(t) < c.ttl
}

// Invalidate drops the snapshot for one channel.
func (c *Cache) Invalidate(channelName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, channelName)

	logger.WithFields(map[string]interface{}{
		"component": "StatsCache",
		"channel":   channelName,
	}).Debug("Invalidated stats cache entry")
}

// InvalidateAll drops every snapshot, e.g. after a bulk import.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
