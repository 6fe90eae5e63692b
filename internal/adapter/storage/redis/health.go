package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const probeTTL = 30 * time.Second

// HealthCheck probes Redis with a short-lived write, which also catches a
// read-only replica left behind after a failover.
type HealthCheck struct {
	client  goredis.UniversalClient
	space   keyspace
	timeout time.Duration
}

func NewHealthCheck(client goredis.UniversalClient) *HealthCheck {
	return &HealthCheck{client: client, space: "health", timeout: ioTimeout}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.client.Set(ctx, h.space.key("probe"), time.Now().Unix(), probeTTL).Err(); err != nil {
		return fmt.Errorf("redis write probe: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string { return "redis" }
