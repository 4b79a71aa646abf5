package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrNoQuotes is returned when every feed failed.
var ErrNoQuotes = errors.New("no price feed returned a quote")

// Config tunes the aggregating service.
type Config struct {
	// TTL is how long a fetched rate stays in the cache.
	TTL time.Duration
	// MinFetchInterval bounds how often the feeds are queried.
	MinFetchInterval time.Duration
	// Timeout bounds one round of feed requests.
	Timeout time.Duration
}

// Service implements ports.PriceService as the median of several feeds.
type Service struct {
	feeds   []ports.PriceFeed
	cache   ports.RateCache
	cfg     Config
	limiter *rate.Limiter
	flight  singleflight.Group
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	last   domain.ExchangeRate
	lastAt time.Time
}

var _ ports.PriceService = (*Service)(nil)

// NewService aggregates feeds, caching the median in cache.
func NewService(feeds []ports.PriceFeed, cache ports.RateCache, cfg Config, log zerolog.Logger) *Service {
	limit := rate.Inf
	if cfg.MinFetchInterval > 0 {
		limit = rate.Every(cfg.MinFetchInterval)
	}
	return &Service{
		feeds:   feeds,
		cache:   cache,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
		now:     time.Now,
	}
}

// CachedRate returns the cached rate. When the cache is unreachable it falls
// back to the last rate this process fetched, until that rate is older than
// the cache TTL; after that it returns the zero rate.
func (s *Service) CachedRate(ctx context.Context) domain.ExchangeRate {
	r, err := s.cache.GetRate(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("rate cache read failed")
		return s.freshLastRate()
	}
	return r
}

// FetchLatestRate queries every feed and returns the median quote. Concurrent
// calls share one round; calls faster than MinFetchInterval reuse the last rate
// while it is younger than TTL.
func (s *Service) FetchLatestRate(ctx context.Context) (domain.ExchangeRate, error) {
	if !s.limiter.Allow() {
		if last := s.freshLastRate(); last.IsValid() {
			return last, nil
		}
	}

	v, err, _ := s.flight.Do("rate", func() (any, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	return v.(domain.ExchangeRate), nil
}

func (s *Service) fetch(ctx context.Context) (domain.ExchangeRate, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	quotes := make([]domain.ExchangeRate, len(s.feeds))
	var eg errgroup.Group
	for i, feed := range s.feeds {
		eg.Go(func() error {
			r, err := feed.FetchRate(ctx)
			if err != nil {
				metrics.PriceFeedErrors.WithLabelValues(feed.Name()).Inc()
				s.log.Warn().Err(err).Str("feed", feed.Name()).Msg("price feed failed")
				return nil
			}
			quotes[i] = r
			return nil
		})
	}
	_ = eg.Wait()

	valid := quotes[:0]
	for _, q := range quotes {
		if q.IsValid() {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return domain.ExchangeRate{}, fmt.Errorf("%w (%d feeds)", ErrNoQuotes, len(s.feeds))
	}

	r := Median(valid)

	s.mu.Lock()
	s.last = r
	s.lastAt = s.now()
	s.mu.Unlock()
	metrics.ExchangeRate.Set(r.Float64())

	if err := s.cache.SetRate(ctx, r, s.cfg.TTL); err != nil {
		s.log.Warn().Err(err).Msg("rate cache write failed")
	}

	s.log.Debug().Str("rate", r.String()).Int("quotes", len(valid)).Msg("exchange rate updated")
	return r, nil
}

// freshLastRate returns the last fetched rate while it is younger than TTL.
func (s *Service) freshLastRate() domain.ExchangeRate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg.TTL <= 0 || !s.now().Before(s.lastAt.Add(s.cfg.TTL)) {
		return domain.ExchangeRate{}
	}
	return s.last
}

// Median returns the middle quote, averaging the two middle quotes of an even set.
// quotes must be non-empty.
func Median(quotes []domain.ExchangeRate) domain.ExchangeRate {
	values := make([]decimal.Decimal, len(quotes))
	for i, q := range quotes {
		values[i] = q.Decimal()
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return domain.NewExchangeRate(values[mid])
	}
	return domain.NewExchangeRate(values[mid-1].Add(values[mid]).Div(decimal.NewFromInt(2)))
}
