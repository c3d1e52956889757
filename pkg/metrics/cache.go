package metrics

import "sync/atomic"

// CacheMetric counts hits and misses for one memoized stage.
type CacheMetric struct {
	name   string
	hits   atomic.Int64
	misses atomic.Int64
}

func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

// Name returns the metric name.
func (c *CacheMetric) Name() string {
	return c.name
}

// Hit records a cache hit.
func (c *CacheMetric) Hit() {
	if c == nil || !Enabled() {
		return
	}
	c.hits.Add(1)
}

// Miss records a cache miss.
func (c *CacheMetric) Miss() {
	if c == nil || !Enabled() {
		return
	}
	c.misses.Add(1)
}

// Hits returns the number of recorded hits.
func (c *CacheMetric) Hits() int64 {
	return c.hits.Load()
}

// Misses returns the number of recorded misses.
func (c *CacheMetric) Misses() int64 {
	return c.misses.Load()
}

// HitRate returns hits/(hits+misses), or 0 with no lookups.
func (c *CacheMetric) HitRate() float64 {
	h, m := c.Hits(), c.Misses()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

// Reset clears both counters.
func (c *CacheMetric) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// CacheStats is a snapshot of one cache metric.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns the current counters.
func (c *CacheMetric) Stats() CacheStats {
	return CacheStats{Name: c.name, Hits: c.Hits(), Misses: c.Misses(), HitRate: c.HitRate()}
}

// Memo caches, one per pipeline stage.
var (
	FilterCache    = newCacheMetric("filter_cache")
	SortCache      = newCacheMetric("sort_cache")
	PaginateCache  = newCacheMetric("paginate_cache")
	AggregateCache = newCacheMetric("aggregate_cache")
)

// AllCacheMetrics returns all registered cache metrics.
func AllCacheMetrics() []*CacheMetric {
	return []*CacheMetric{FilterCache, SortCache, PaginateCache, AggregateCache}
}

// AllCacheStats returns stats for every cache metric.
func AllCacheStats() []CacheStats {
	out := make([]CacheStats, 0, 4)
	for _, c := range AllCacheMetrics() {
		out = append(out, c.Stats())
	}
	return out
}
