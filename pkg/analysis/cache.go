package analysis

import (
	"sync"

	"github.com/vanderheijden86/teamboard/pkg/metrics"
)

// Memo caches the result of one pipeline stage for the last argument tuple it
// saw. A lookup with a different key recomputes and replaces the entry, so a
// stage never holds more than one result. Thread-safe for concurrent access;
// concurrent misses may compute twice, which is harmless because stages are pure.
type Memo[K comparable, V any] struct {
	mu     sync.RWMutex
	key    K
	val    V
	ok     bool
	metric *metrics.CacheMetric
}

// NewMemo creates an empty memo reporting to metric (which may be nil).
func NewMemo[K comparable, V any](metric *metrics.CacheMetric) *Memo[K, V] {
	return &Memo[K, V]{metric: metric}
}

// Get returns the cached value for key, calling compute on a miss.
func (m *Memo[K, V]) Get(key K, compute func() V) V {
	if v, ok := m.Peek(key); ok {
		m.metric.Hit()
		return v
	}
	m.metric.Miss()

	v := compute()

	m.mu.Lock()
	m.key = key
	m.val = v
	m.ok = true
	m.mu.Unlock()
	return v
}

// Peek returns the cached value without computing.
func (m *Memo[K, V]) Peek(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ok && m.key == key {
		return m.val, true
	}
	var zero V
	return zero, false
}

// Invalidate drops the cached entry.
func (m *Memo[K, V]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zeroK K
	var zeroV V
	m.key, m.val, m.ok = zeroK, zeroV, false
}

// Len returns the number of cached entries (0 or 1).
func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ok {
		return 1
	}
	return 0
}
