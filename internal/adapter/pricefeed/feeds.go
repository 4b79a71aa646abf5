// Package pricefeed fetches the BTC/USD rate from public exchange tickers.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
)

const maxBodyBytes = 1 << 20

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Default ticker endpoints.
const (
	BitstampURL = "https://www.bitstamp.net/api/v2/ticker/btcusd/"
	CoinbaseURL = "https://api.coinbase.com/v2/prices/BTC-USD/spot"
	KrakenURL   = "https://api.kraken.com/0/public/Ticker?pair=XBTUSD"
)

// tickerFeed is a JSON ticker endpoint with a feed-specific price extractor.
type tickerFeed struct {
	name    string
	url     string
	client  HTTPClient
	extract func(body []byte) (string, error)
}

var _ ports.PriceFeed = (*tickerFeed)(nil)

func (f *tickerFeed) Name() string { return f.name }

func (f *tickerFeed) FetchRate(ctx context.Context) (domain.ExchangeRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("%s: build request: %w", f.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stabled")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("%s: %w", f.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ExchangeRate{}, fmt.Errorf("%s: unexpected status %d", f.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("%s: read body: %w", f.name, err)
	}

	raw, err := f.extract(body)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("%s: %w", f.name, err)
	}
	rate, err := domain.ParseExchangeRate(raw)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("%s: %w", f.name, err)
	}
	if !rate.IsValid() {
		return domain.ExchangeRate{}, fmt.Errorf("%s: non-positive price %q", f.name, raw)
	}
	return rate, nil
}

// NewBitstamp reads {"last": "50000.00"}.
func NewBitstamp(client HTTPClient, url string) ports.PriceFeed {
	return &tickerFeed{name: "bitstamp", url: url, client: client, extract: func(b []byte) (string, error) {
		var r struct {
			Last string `json:"last"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return "", fmt.Errorf("decode: %w", err)
		}
		if r.Last == "" {
			return "", fmt.Errorf("missing last price")
		}
		return r.Last, nil
	}}
}

// NewCoinbase reads {"data": {"amount": "50000.00"}}.
func NewCoinbase(client HTTPClient, url string) ports.PriceFeed {
	return &tickerFeed{name: "coinbase", url: url, client: client, extract: func(b []byte) (string, error) {
		var r struct {
			Data struct {
				Amount string `json:"amount"`
			} `json:"data"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return "", fmt.Errorf("decode: %w", err)
		}
		if r.Data.Amount == "" {
			return "", fmt.Errorf("missing amount")
		}
		return r.Data.Amount, nil
	}}
}

// NewKraken reads the last trade price from {"result": {"XXBTZUSD": {"c": ["50000.0", "0.1"]}}}.
func NewKraken(client HTTPClient, url string) ports.PriceFeed {
	return &tickerFeed{name: "kraken", url: url, client: client, extract: func(b []byte) (string, error) {
		var r struct {
			Error  []string `json:"error"`
			Result map[string]struct {
				Close []string `json:"c"`
			} `json:"result"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return "", fmt.Errorf("decode: %w", err)
		}
		if len(r.Error) > 0 {
			return "", fmt.Errorf("api error: %s", strings.Join(r.Error, "; "))
		}
		for _, pair := range r.Result {
			if len(pair.Close) > 0 && pair.Close[0] != "" {
				return pair.Close[0], nil
			}
		}
		return "", fmt.Errorf("missing last trade price")
	}}
}

// FeedsByName builds the named feeds against their default endpoints.
func FeedsByName(names []string, client HTTPClient) ([]ports.PriceFeed, error) {
	feeds := make([]ports.PriceFeed, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "bitstamp":
			feeds = append(feeds, NewBitstamp(client, BitstampURL))
		case "coinbase":
			feeds = append(feeds, NewCoinbase(client, CoinbaseURL))
		case "kraken":
			feeds = append(feeds, NewKraken(client, KrakenURL))
		default:
			return nil, fmt.Errorf("unknown price feed %q", name)
		}
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no price feeds configured")
	}
	return feeds, nil
}
