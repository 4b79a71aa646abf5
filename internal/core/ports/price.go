package ports

//go:generate mockgen -source=price.go -destination=mocks/price_mock.go -package=mocks

import (
	"context"
	"time"

	"stable-channels/internal/core/domain"
)

// PriceService provides the BTC/USD exchange rate.
type PriceService interface {
	// CachedRate returns the last known rate, or the zero rate when unknown.
	CachedRate(ctx context.Context) domain.ExchangeRate
	// FetchLatestRate queries the configured feeds.
	FetchLatestRate(ctx context.Context) (domain.ExchangeRate, error)
}

// RateCache stores the last fetched rate with an expiry.
type RateCache interface {
	// GetRate returns the zero rate and nil error on a miss.
	GetRate(ctx context.Context) (domain.ExchangeRate, error)
	SetRate(ctx context.Context, rate domain.ExchangeRate, ttl time.Duration) error
}

// PriceFeed is one upstream ticker.
type PriceFeed interface {
	Name() string
	FetchRate(ctx context.Context) (domain.ExchangeRate, error)
}
