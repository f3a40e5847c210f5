package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   []byte
	expires time.Time // нулевое время - без истечения
}

// MemoryCache реализует CacheRepo в памяти процесса.
// Истёкшие записи удаляются при обращении.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stats   stats
	now     func() time.Time
}

// NewMemoryCache создаёт пустой кеш
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get возвращает копию значения
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer m.stats.recordLatency(start)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		m.mu.Lock()
		// Запись могла быть обновлена между блокировками
		if current, still := m.entries[key]; still && current.expires.Equal(entry.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		ok = false
	}
	if !ok {
		m.stats.miss()
		return nil, ErrCacheMiss
	}

	m.stats.hit()
	return append([]byte(nil), entry.value...), nil
}

// Set сохраняет копию значения
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer m.stats.recordLatency(start)

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete удаляет ключ
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close очищает кеш
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (m *MemoryCache) GetMetrics() *CacheMetrics {
	m.mu.RLock()
	keys := int64(len(m.entries))
	m.mu.RUnlock()
	return m.stats.snapshot(keys)
}

var _ CacheRepo = (*MemoryCache)(nil)
