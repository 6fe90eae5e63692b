package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayGuard marks identifiers as redeemed with SET NX so a face ticket
// authorizes a single payment even across API replicas.
type ReplayGuard struct {
	client goredis.UniversalClient
	space  keyspace
}

func NewReplayGuard(client goredis.UniversalClient) *ReplayGuard {
	return &ReplayGuard{client: client, space: "replay"}
}

// FirstUse reports whether id is redeemed for the first time in scope.
// The mark expires after ttl, which should cover the id's own lifetime.
func (g *ReplayGuard) FirstUse(ctx context.Context, scope, id string, ttl time.Duration) (bool, error) {
	set, err := g.client.SetNX(ctx, g.space.key(scope, id), time.Now().Unix(), ttl).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis replay guard %s: %w", scope, err)
	}
	return set, nil
}
