package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process payload cache bounded by total bytes. When an
// insert exceeds the budget, entries closest to expiry are evicted first.
type MemoryCache struct {
	mu        sync.RWMutex
	data      map[string]*cacheItem
	size      int64
	maxBytes  int64
	done      chan struct{}
	closeOnce sync.Once
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return now.After(i.expiration)
}

// NewMemoryCache creates a new in-memory cache. maxBytes <= 0 disables the
// size bound.
func NewMemoryCache(cleanupInterval time.Duration, maxBytes int64) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	mc := &MemoryCache{
		data:     make(map[string]*cacheItem),
		maxBytes: maxBytes,
		done:     make(chan struct{}),
	}

	go mc.cleanup(cleanupInterval)

	return mc
}

// Len returns the number of stored entries, expired or not
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Size returns the number of payload bytes held
func (m *MemoryCache) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Get returns a copy of the stored value
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.data[key]
	if !exists || item.expired(time.Now()) {
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a copy of value. A value larger than the whole budget is not
// stored.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	n := int64(len(value))
	if m.maxBytes > 0 && n > m.maxBytes {
		return nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	if m.maxBytes > 0 && m.size+n > m.maxBytes {
		m.evictLocked(m.size + n - m.maxBytes)
	}

	m.data[key] = &cacheItem{
		value:      stored,
		expiration: time.Now().Add(ttl),
	}
	m.size += n
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.data[key]
	return exists && !item.expired(time.Now()), nil
}

// Clear removes all keys matching pattern (only a trailing * is supported)
func (m *MemoryCache) Clear(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.data {
		if matchPattern(key, pattern) {
			m.removeLocked(key)
		}
	}
	return nil
}

func (m *MemoryCache) removeLocked(key string) {
	if item, ok := m.data[key]; ok {
		m.size -= int64(len(item.value))
		delete(m.data, key)
	}
}

// evictLocked frees at least need bytes, soonest-expiring entries first
func (m *MemoryCache) evictLocked(need int64) {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return m.data[keys[i]].expiration.Before(m.data[keys[j]].expiration)
	})

	var freed int64
	for _, key := range keys {
		if freed >= need {
			return
		}
		freed += int64(len(m.data[key].value))
		m.removeLocked(key)
	}
}

// cleanup periodically removes expired items
func (m *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, item := range m.data {
				if item.expired(now) {
					m.removeLocked(key)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// Close stops the cleanup goroutine. Calling it twice is safe.
func (m *MemoryCache) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func matchPattern(s, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(s, strings.TrimSuffix(pattern, "*"))
	}
	return s == pattern
}
