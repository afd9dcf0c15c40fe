package server

import (
	"strconv"
	"sync"
	"time"
)

type themeEntry struct {
	text    string
	created time.Time
}

// themeCache holds generated stylesheets keyed by target and options.
// Entries expire after the TTL; a zero TTL disables caching entirely.
type themeCache struct {
	mu   sync.RWMutex
	now  func() time.Time
	ttl  time.Duration
	data map[string]themeEntry
}

func newThemeCache(now func() time.Time, ttl time.Duration) *themeCache {
	if now == nil {
		now = time.Now
	}
	return &themeCache{
		now:  now,
		ttl:  ttl,
		data: make(map[string]themeEntry),
	}
}

func themeKey(target string, sel selection) string {
	return target + "|" + string(sel.Flavor) + "/" + string(sel.Accent) + "/" + string(sel.Variant) +
		":v=" + strconv.Itoa(boolToInt(sel.Verbose))
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (c *themeCache) Get(key string) (string, bool) {
	if c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.created) > c.ttl {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return "", false
	}
	return entry.text, true
}

func (c *themeCache) Put(key, text string) {
	if c.ttl <= 0 || text == "" {
		return
	}
	c.mu.Lock()
	c.data[key] = themeEntry{text: text, created: c.now()}
	c.mu.Unlock()
}
