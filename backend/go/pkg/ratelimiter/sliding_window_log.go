package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindowLog allows limit requests in any window-long interval by
// remembering the time of each accepted request.
type SlidingWindowLog struct {
	limit  int
	window time.Duration
	times  []time.Time // accepted requests, oldest first
	now    func() time.Time
	mutex  sync.Mutex
}

func NewSlidingWindowLog(limit int, window time.Duration) *SlidingWindowLog {
	return newSlidingWindowLog(limit, window, time.Now)
}

func newSlidingWindowLog(limit int, window time.Duration, now func() time.Time) *SlidingWindowLog {
	return &SlidingWindowLog{limit: limit, window: window, now: now}
}

func (s *SlidingWindowLog) Allow() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	boundary := now.Add(-s.window)
	expired := 0
	for expired < len(s.times) && !s.times[expired].After(boundary) {
		expired++
	}
	s.times = s.times[expired:]

	if len(s.times) >= s.limit {
		return false
	}
	s.times = append(s.times, now)
	return true
}
