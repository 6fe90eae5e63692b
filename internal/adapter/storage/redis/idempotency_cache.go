package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyCache holds serialized transaction responses by idempotency
// key. The idempotency_logs table stays authoritative; this only saves a
// round trip on replays.
type IdempotencyCache struct {
	blobs blobStore
}

func NewIdempotencyCache(client goredis.UniversalClient) *IdempotencyCache {
	return &IdempotencyCache{blobs: blobStore{client: client, space: "idempotency"}}
}

func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.blobs.load(ctx, key)
}

func (c *IdempotencyCache) Set(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return c.blobs.store(ctx, key, response, ttl)
}
