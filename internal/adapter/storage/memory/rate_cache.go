package memory

import (
	"context"
	"sync"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
)

var _ ports.RateCache = (*RateCache)(nil)

// RateCache holds one rate with an expiry.
type RateCache struct {
	mu        sync.RWMutex
	rate      domain.ExchangeRate
	expiresAt time.Time
	now       func() time.Time
}

// NewRateCache creates an empty cache.
func NewRateCache() *RateCache {
	return &RateCache{now: time.Now}
}

// GetRate returns the zero rate on a miss or after expiry.
func (c *RateCache) GetRate(_ context.Context) (domain.ExchangeRate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt.IsZero() || !c.now().Before(c.expiresAt) {
		return domain.ExchangeRate{}, nil
	}
	return c.rate, nil
}

// SetRate stores rate for ttl. A non-positive ttl expires at once.
func (c *RateCache) SetRate(_ context.Context, rate domain.ExchangeRate, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
	c.expiresAt = c.now().Add(ttl)
	return nil
}
