package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-chi/httprate"
)

// MemoryRateLimiter is an in-process sliding-window limiter built on httprate's
// local counter. Used when Redis is not configured.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	now      func() time.Time
	counters map[time.Duration]httprate.LimitCounter
}

// NewMemoryRateLimiter creates an in-process rate limiter
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		now:      time.Now,
		counters: make(map[time.Duration]httprate.LimitCounter),
	}
}

// CheckRateLimit has the same contract as RedisCache.CheckRateLimit. The
// previous window is weighted by how much of it still overlaps the sliding
// window, as httprate does.
func (l *MemoryRateLimiter) CheckRateLimit(_ context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	counter, ok := l.counters[window]
	if !ok {
		counter = httprate.NewLocalLimitCounter(window)
		l.counters[window] = counter
	}

	now := l.now().UTC()
	currentWindow := now.Truncate(window)
	previousWindow := currentWindow.Add(-window)
	resetTime := currentWindow.Add(window)

	current, previous, err := counter.Get(key, currentWindow, previousWindow)
	if err != nil {
		return false, 0, resetTime, err
	}

	elapsed := now.Sub(currentWindow)
	rate := float64(previous)*(float64(window-elapsed)/float64(window)) + float64(current)
	if rate >= float64(limit) {
		return false, 0, resetTime, nil
	}

	if err := counter.Increment(key, currentWindow); err != nil {
		return false, 0, resetTime, err
	}

	remaining := limit - int64(math.Ceil(rate)) - 1
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, resetTime, nil
}
