package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow keeps the timestamps of the last requests per key in memory.
// Every request is recorded, including rejected ones, and a request is
// rejected when more than limit timestamps fall inside the window.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string][]time.Time
}

func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	o := buildOptions(opts)
	return &SlidingWindow{
		limit:    limit,
		window:   window,
		now:      o.now,
		requests: make(map[string][]time.Time),
	}
}

func (s *SlidingWindow) Allow(_ context.Context, key string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	timestamps := evict(append(s.requests[key], now), now.Add(-s.window))
	s.requests[key] = timestamps

	count := len(timestamps)
	d := Decision{
		Allowed:   count <= s.limit,
		Limit:     s.limit,
		Remaining: remaining(s.limit, count),
	}
	if !d.Allowed {
		// the next request passes once this timestamp has left the window
		d.RetryAfter = timestamps[count-s.limit].Add(s.window).Sub(now)
		if d.RetryAfter <= 0 {
			d.RetryAfter = s.window
		}
	}
	return d, nil
}

// evict drops the timestamps older than cutoff. Timestamps are ordered.
func evict(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && timestamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return timestamps
	}
	return append(timestamps[:0], timestamps[i:]...)
}

// Sweep forgets every key with no timestamp inside the window.
func (s *SlidingWindow) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.window)
	removed := 0
	for key, timestamps := range s.requests {
		timestamps = evict(timestamps, cutoff)
		if len(timestamps) == 0 {
			delete(s.requests, key)
			removed++
			continue
		}
		s.requests[key] = timestamps
	}
	return removed
}

// Keys returns the number of tracked keys.
func (s *SlidingWindow) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// StartJanitor sweeps idle keys every interval until ctx is done.
func (s *SlidingWindow) StartJanitor(ctx context.Context, interval time.Duration) {
	runJanitor(ctx, interval, func() { s.Sweep() })
}

func runJanitor(ctx context.Context, interval time.Duration, sweep func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
