package metrics

import (
	"sync"
	"time"
)

// cachedValue is a value with the time it was fetched
type cachedValue[T any] struct {
	value     T
	fetchedAt time.Time
}

// TTLCache memoizes slow readings (disk usage, battery) for a fixed time.
// Failed refreshes are not stored.
type TTLCache[T any] struct {
	entries map[string]cachedValue[T]
	now     func() time.Time
	mutex   sync.Mutex
}

// NewTTLCache creates an empty cache using the wall clock
func NewTTLCache[T any]() *TTLCache[T] {
	return newTTLCacheWithClock[T](time.Now)
}

func newTTLCacheWithClock[T any](now func() time.Time) *TTLCache[T] {
	return &TTLCache[T]{
		entries: make(map[string]cachedValue[T]),
		now:     now,
	}
}

// GetOrRefresh returns the cached value for key when it is at most ttl old,
// otherwise calls refresh and stores its result. Refresh errors propagate and
// leave any previous entry untouched.
func (c *TTLCache[T]) GetOrRefresh(key string, ttl time.Duration, refresh func() (T, error)) (T, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if entry, ok := c.entries[key]; ok && now.Sub(entry.fetchedAt) <= ttl {
		return entry.value, nil
	}

	value, err := refresh()
	if err != nil {
		var zero T
		return zero, err
	}

	c.entries[key] = cachedValue[T]{value: value, fetchedAt: now}
	return value, nil
}

// Invalidate drops a key so the next read refreshes
func (c *TTLCache[T]) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}
