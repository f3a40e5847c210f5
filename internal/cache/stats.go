package cache

import (
	"sync/atomic"
	"time"
)

// stats - счётчики попаданий и задержек, общие для реализаций CacheRepo
type stats struct {
	requests int64
	hits     int64
	misses   int64

	// Статистика latency в наносекундах
	latencySum   int64
	latencyCount int64
	maxLatency   int64
}

func (s *stats) hit() {
	atomic.AddInt64(&s.requests, 1)
	atomic.AddInt64(&s.hits, 1)
}

func (s *stats) miss() {
	atomic.AddInt64(&s.requests, 1)
	atomic.AddInt64(&s.misses, 1)
}

// recordLatency записывает длительность операции
func (s *stats) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()
	atomic.AddInt64(&s.latencySum, latency)
	atomic.AddInt64(&s.latencyCount, 1)

	for {
		current := atomic.LoadInt64(&s.maxLatency)
		if latency <= current || atomic.CompareAndSwapInt64(&s.maxLatency, current, latency) {
			return
		}
	}
}

// snapshot собирает CacheMetrics на текущий момент
func (s *stats) snapshot(totalKeys int64) *CacheMetrics {
	m := &CacheMetrics{
		TotalRequests: atomic.LoadInt64(&s.requests),
		CacheHits:     atomic.LoadInt64(&s.hits),
		CacheMisses:   atomic.LoadInt64(&s.misses),
		MaxLatencyMs:  float64(atomic.LoadInt64(&s.maxLatency)) / 1e6,
		TotalKeys:     totalKeys,
		LastUpdate:    time.Now(),
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(m.TotalRequests)
	}
	if count := atomic.LoadInt64(&s.latencyCount); count > 0 {
		m.AvgLatencyMs = float64(atomic.LoadInt64(&s.latencySum)) / float64(count) / 1e6
	}
	return m
}
