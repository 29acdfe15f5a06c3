package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes rendered chart HTML so repeated page renders are cheap.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache is an in-memory TTL cache for rendered charts.
type ChartCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL
// disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedChart),
	}
}

// GetOrRender returns a cached entry or renders/stores a new one.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, html)
	return html, nil
}

// Prune drops expired entries and returns how many were removed.
func (c *ChartCache) Prune() int {
	if c == nil {
		return 0
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired or not.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ChartCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return "", false
	}
	return entry.html, true
}

func (c *ChartCache) set(key, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedChart{
		html:    html,
		expires: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// contentHash returns a deterministic hash of the chart inputs.
func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
