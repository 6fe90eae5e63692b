package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arc-exchange/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// HistoryCache keeps CoinCap series per pair as JSON so repeated history
// requests do not hit the rate-limited upstream.
type HistoryCache struct {
	blobs blobStore
}

func NewHistoryCache(client goredis.UniversalClient) *HistoryCache {
	return &HistoryCache{blobs: blobStore{client: client, space: "history"}}
}

// Get returns the cached series for pair, or nil on a miss.
func (c *HistoryCache) Get(ctx context.Context, pair string) ([]domain.PricePoint, error) {
	raw, err := c.blobs.load(ctx, pair)
	if err != nil || raw == nil {
		return nil, err
	}

	var points []domain.PricePoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("decode cached history for %s: %w", pair, err)
	}
	return points, nil
}

func (c *HistoryCache) Set(ctx context.Context, pair string, points []domain.PricePoint, ttl time.Duration) error {
	raw, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encode history for %s: %w", pair, err)
	}
	return c.blobs.store(ctx, pair, raw, ttl)
}
