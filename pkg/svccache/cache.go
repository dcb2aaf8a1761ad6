// Package svccache is a small TTL cache for idempotent service reads. Keys
// are built from the method name plus its parameters in sorted order, so two
// calls with the same arguments share an entry regardless of map iteration.
//
// It must never hold generative-model output keyed on raw user text: the
// same wording can carry different meaning across sessions, and a stale hit
// would answer the wrong question. The cache therefore only fronts the
// service-hub integrations, never the fallback chain.
package svccache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// Entry is the bookkeeping view of one cached value, exposed to eviction
// policies.
type Entry struct {
	Key          string
	Value        string
	StoredAt     time.Time
	LastAccessAt time.Time
	HitCount     int64
}

// Cache is an in-memory TTL cache with a bounded entry count. Safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry

	ttl        time.Duration
	maxEntries int
	policy     victimPolicy
	enabled    bool
}

// New builds a cache from config. A disabled cache accepts all calls and
// misses every Get, so callers never branch on enablement.
func New(cfg config.CacheConfig) *Cache {
	return &Cache{
		entries:    make(map[string]*Entry),
		ttl:        cfg.TTL(),
		maxEntries: cfg.MaxEntries,
		policy:     policyFor(cfg.EvictionPolicy),
		enabled:    cfg.Enabled,
	}
}

// Key derives the cache key for a method call: the method name followed by
// "k=v" pairs in sorted key order.
func Key(method string, params map[string]string) string {
	if len(params) == 0 {
		return method
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(method)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		metrics.RecordCacheMiss()
		return "", false
	}
	if c.expired(entry, time.Now()) {
		delete(c.entries, key)
		metrics.RecordCacheMiss()
		return "", false
	}

	entry.LastAccessAt = time.Now()
	entry.HitCount++
	metrics.RecordCacheHit()
	return entry.Value, true
}

// Set stores value under key, evicting one entry by policy when full.
func (c *Cache) Set(key, value string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = &Entry{
		Key:          key,
		Value:        value,
		StoredAt:     now,
		LastAccessAt: now,
	}
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) expired(entry *Entry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(entry.StoredAt) > c.ttl
}

// evictLocked drops expired entries first; if none expired, the policy
// selects a victim. Caller holds the lock.
func (c *Cache) evictLocked() {
	now := time.Now()
	dropped := false
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
			metrics.RecordCacheEviction()
			dropped = true
		}
	}
	if dropped {
		return
	}

	if victim := selectVictim(c.entries, c.policy); victim != nil {
		delete(c.entries, victim.Key)
		metrics.RecordCacheEviction()
	}
}
