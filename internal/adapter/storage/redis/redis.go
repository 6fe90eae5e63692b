package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"arc-exchange/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	namespace    = "arc"
	dialTimeout  = 5 * time.Second
	ioTimeout    = 2 * time.Second
	connectProbe = 5 * time.Second
)

// NewClient dials Redis and fails fast when the server does not answer.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	probeCtx, cancel := context.WithTimeout(ctx, connectProbe)
	defer cancel()
	if err := client.Ping(probeCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("redis ready")
	return client, nil
}

// keyspace scopes the keys of one store: arc:<space>:<parts>.
type keyspace string

func (k keyspace) key(parts ...string) string {
	return namespace + ":" + string(k) + ":" + strings.Join(parts, ":")
}

// blobStore keeps opaque values with a TTL. A miss loads as (nil, nil).
type blobStore struct {
	client goredis.UniversalClient
	space  keyspace
}

func (b blobStore) load(ctx context.Context, id string) ([]byte, error) {
	raw, err := b.client.Get(ctx, b.space.key(id)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis %s get: %w", b.space, err)
	}
	return raw, nil
}

func (b blobStore) store(ctx context.Context, id string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.space.key(id), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis %s set: %w", b.space, err)
	}
	return nil
}
