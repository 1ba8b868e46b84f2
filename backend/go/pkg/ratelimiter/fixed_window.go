package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter allows limit requests per window. Windows are aligned
// to the first request after the previous window ended.
type FixedWindowCounter struct {
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	now         func() time.Time
	mutex       sync.Mutex
}

func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return newFixedWindowCounter(limit, window, time.Now)
}

func newFixedWindowCounter(limit int, window time.Duration, now func() time.Time) *FixedWindowCounter {
	return &FixedWindowCounter{limit: limit, window: window, windowStart: now(), now: now}
}

func (f *FixedWindowCounter) Allow() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	now := f.now()
	if !now.Before(f.windowStart.Add(f.window)) {
		f.windowStart = now
		f.count = 0
	}
	if f.count >= f.limit {
		return false
	}
	f.count++
	return true
}
