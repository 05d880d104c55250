package image_scanner

import "sync/atomic"

// lookupCounter counts hash cache lookups. It lives in memory only, so the
// numbers describe the current process.
type lookupCounter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *lookupCounter) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *lookupCounter) snapshot() map[string]interface{} {
	hits, misses := c.hits.Load(), c.misses.Load()
	return map[string]interface{}{
		"total_requests": hits + misses,
		"cache_hits":     hits,
		"cache_misses":   misses,
	}
}

func (c *lookupCounter) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}
