// Package limiter implements a keyed sliding-window rate limiter.
//
// Each key keeps the timestamps of its recent accepted actions. Old entries
// are pruned lazily on Allow and in bulk by Cleanup, so memory stays bounded
// by limit entries per active key.
package limiter

import (
	"sync"
	"time"
)

type SlidingWindow struct {
	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

func NewSlidingWindow() *SlidingWindow {
	return NewSlidingWindowWithClock(time.Now)
}

// NewSlidingWindowWithClock is used by tests to control time.
func NewSlidingWindowWithClock(now func() time.Time) *SlidingWindow {
	return &SlidingWindow{
		history: make(map[string][]time.Time),
		now:     now,
	}
}

// Allow records an action for key and reports whether it fits in the window.
// A rejected action is not recorded.
func (sw *SlidingWindow) Allow(key string, limit int, window time.Duration) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	recent := prune(sw.history[key], now, window)

	if len(recent) >= limit {
		sw.history[key] = recent
		return false
	}

	sw.history[key] = append(recent, now)
	return true
}

// Cleanup forgets keys with no action newer than maxAge.
func (sw *SlidingWindow) Cleanup(maxAge time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	for key, stamps := range sw.history {
		recent := prune(stamps, now, maxAge)
		if len(recent) == 0 {
			delete(sw.history, key)
			continue
		}
		sw.history[key] = recent
	}
}

// Keys returns the number of tracked keys.
func (sw *SlidingWindow) Keys() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return len(sw.history)
}

// prune drops the leading timestamps that fell out of the window. Timestamps
// are appended in order, so the first survivor ends the scan.
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(stamps) && now.Sub(stamps[i]) >= window {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[i:]...)
}
