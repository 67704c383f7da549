package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisSlidingWindow is the sliding window kept in a Redis sorted set, so
// every replica of the service draws from the same budget. Scores are
// request times in microseconds.
type RedisSlidingWindow struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisSlidingWindow(client redis.UniversalClient, limit int, window time.Duration, opts ...Option) *RedisSlidingWindow {
	o := buildOptions(opts)
	return &RedisSlidingWindow{
		client: client,
		limit:  limit,
		window: window,
		now:    o.now,
	}
}

func (r *RedisSlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	redisKey := redisKeyPrefix + key
	cutoff := now.Add(-r.window).UnixMicro()
	score := now.UnixMicro()

	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.ZAdd(ctx, redisKey, redis.Z{
			Score:  float64(score),
			Member: strconv.FormatInt(score, 10) + ":" + uuid.NewString(),
		})
		card = pipe.ZCard(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, r.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis sliding window for %q: %w", key, err)
	}

	count := int(card.Val())
	d := Decision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: remaining(r.limit, count),
	}
	if !d.Allowed {
		d.RetryAfter = r.window
	}
	return d, nil
}
