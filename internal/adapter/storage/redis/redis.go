// Package redis caches the exchange rate in Redis so restarts and sibling
// processes share the last fetched value.
package redis

import (
	"context"
	"fmt"

	"stable-channels/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const clientName = "stabled"

// NewClient creates the rate cache's Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:       cfg.Addr(),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: clientName,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Str("rate_key", rateKey).
		Dur("rate_ttl", cfg.RateTTL).
		Msg("rate cache connected")

	return client, nil
}
