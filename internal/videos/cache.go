package videos

import (
	"sync"
	"time"
)

type repairEntry struct {
	thumbURL string
	expires  time.Time
}

// repairCache remembers thumbnail repairs per media URL for a TTL. An entry
// with an empty thumbURL records that extraction produced nothing, so a broken
// source is not re-decoded on every gallery load.
type repairCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]repairEntry
}

func newRepairCache(ttl time.Duration) *repairCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &repairCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]repairEntry),
	}
}

func (c *repairCache) lookup(mediaURL string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.items[mediaURL]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expires) {
		return "", false
	}
	return entry.thumbURL, true
}

func (c *repairCache) store(mediaURL, thumbURL string) {
	c.mu.Lock()
	c.items[mediaURL] = repairEntry{thumbURL: thumbURL, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
