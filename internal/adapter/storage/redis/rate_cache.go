package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const rateKey = "rate:btcusd"

var _ ports.RateCache = (*RateCache)(nil)

// RateCache implements ports.RateCache. The rate is stored as a decimal string.
type RateCache struct {
	client *goredis.Client
	key    string
}

// NewRateCache creates a rate cache on client.
func NewRateCache(client *goredis.Client) *RateCache {
	return &RateCache{client: client, key: rateKey}
}

// GetRate returns the zero rate on a miss.
func (c *RateCache) GetRate(ctx context.Context) (domain.ExchangeRate, error) {
	val, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.ExchangeRate{}, nil
		}
		return domain.ExchangeRate{}, fmt.Errorf("redis rate get: %w", err)
	}

	rate, err := domain.ParseExchangeRate(val)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("redis rate get: %w", err)
	}
	return rate, nil
}

// SetRate stores rate for ttl. Invalid rates are rejected.
func (c *RateCache) SetRate(ctx context.Context, rate domain.ExchangeRate, ttl time.Duration) error {
	if !rate.IsValid() {
		return fmt.Errorf("redis rate set: refusing to cache rate %s", rate.Decimal())
	}
	if err := c.client.Set(ctx, c.key, rate.Decimal().String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis rate set: %w", err)
	}
	return nil
}
