package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore is a sliding-log limiter: each request is a sorted set
// member scored by its arrival time in milliseconds.
type RateLimitStore struct {
	client goredis.UniversalClient
	space  keyspace
	now    func() time.Time
}

func NewRateLimitStore(client goredis.UniversalClient) *RateLimitStore {
	return &RateLimitStore{client: client, space: "ratelimit", now: time.Now}
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // unix seconds when the oldest counted request leaves the window
}

// Allow records one request for key and counts those inside window.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	if window < time.Millisecond {
		window = time.Second
	}
	now := s.now()
	nowMs := now.UnixMilli()
	redisKey := s.space.key(key)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(nowMs-window.Milliseconds(), 10))
	pipe.ZAdd(ctx, redisKey, goredis.Z{Score: float64(nowMs), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis rate limit %s: %w", key, err)
	}

	resetAt := now.Add(window)
	if first := oldest.Val(); len(first) > 0 {
		resetAt = time.UnixMilli(int64(first[0].Score)).Add(window)
	}

	n := count.Val()
	return &RateLimitResult{
		Allowed:   n <= limit,
		Limit:     limit,
		Remaining: max(limit-n, 0),
		ResetAt:   resetAt.Unix(),
	}, nil
}
