package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedBucket hands every key its own token bucket.
type KeyedBucket struct {
	rate  rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewKeyedBucket refills perSecond tokens per key up to burst. Buckets
// untouched for idle are dropped by Sweep.
func NewKeyedBucket(perSecond float64, burst int, idle time.Duration, opts ...Option) *KeyedBucket {
	o := buildOptions(opts)
	return &KeyedBucket{
		rate:    rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		now:     o.now,
		buckets: make(map[string]*bucket),
	}
}

func (k *KeyedBucket) Allow(_ context.Context, key string) (Decision, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	b, ok := k.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(k.rate, k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now

	d := Decision{Limit: k.burst}
	if b.limiter.AllowN(now, 1) {
		d.Allowed = true
		d.Remaining = int(math.Max(0, math.Floor(b.limiter.TokensAt(now))))
		return d, nil
	}

	// time until one full token is available again
	missing := 1 - b.limiter.TokensAt(now)
	d.RetryAfter = time.Duration(missing / float64(k.rate) * float64(time.Second))
	return d, nil
}

// Sweep drops the buckets idle for longer than the idle period.
func (k *KeyedBucket) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-k.idle)
	removed := 0
	for key, b := range k.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle buckets every interval until ctx is done.
func (k *KeyedBucket) StartJanitor(ctx context.Context, interval time.Duration) {
	runJanitor(ctx, interval, func() { k.Sweep() })
}
