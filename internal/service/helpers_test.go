package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"stable-channels/internal/core/domain"
	"stable-channels/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChannelID(b byte) domain.ChannelID {
	var id domain.ChannelID
	for i := range id {
		id[i] = b
	}
	return id
}

func testNodeID(t *testing.T, b string) domain.NodeID {
	t.Helper()
	id, err := domain.ParseNodeID("02" + strings.Repeat(b, 32))
	require.NoError(t, err)
	return id
}

func usd(s string) domain.FiatAmount { return domain.NewFiatAmount(decimal.RequireFromString(s)) }

var rate50k = domain.RateFromFloat(50000)

// snapshot builds a ready channel of capacity sat where we hold ourSat.
func snapshot(id domain.ChannelID, peer domain.NodeID, capacity, ourSat domain.NativeAmount) domain.ChannelSnapshot {
	return domain.ChannelSnapshot{
		ChannelID:            id,
		Handle:               "123x1x0",
		CapacityNative:       capacity,
		OutboundCapacityMsat: uint64(ourSat) * 1000,
		Ready:                true,
		Counterparty:         peer,
	}
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, expectedCode, appErr.Code)
}

// fakeRuntime is a programmable in-memory channel runtime.
type fakeRuntime struct {
	mu       sync.Mutex
	channels []domain.ChannelSnapshot
	sent     []uint64
	sendErr  error
	// sendGate, when set, blocks SendSpontaneousPayment until closed.
	sendGate    chan struct{}
	sendStarted chan struct{}

	events chan domain.Event
	acked  chan struct{}
}

func newFakeRuntime(channels ...domain.ChannelSnapshot) *fakeRuntime {
	return &fakeRuntime{
		channels: channels,
		events:   make(chan domain.Event, 16),
		acked:    make(chan struct{}, 16),
	}
}

func (f *fakeRuntime) ListChannels(_ context.Context) ([]domain.ChannelSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChannelSnapshot, len(f.channels))
	copy(out, f.channels)
	return out, nil
}

func (f *fakeRuntime) SendSpontaneousPayment(ctx context.Context, amountMsat uint64, _ domain.NodeID) (domain.PaymentHandle, error) {
	f.mu.Lock()
	gate, started := f.sendGate, f.sendStarted
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.PaymentHandle{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return domain.PaymentHandle{}, f.sendErr
	}
	f.sent = append(f.sent, amountMsat)
	return domain.PaymentHandle{PaymentHash: strings.Repeat("ab", 32)}, nil
}

func (f *fakeRuntime) NextEvent(ctx context.Context) (domain.Event, error) {
	select {
	case ev := <-f.events:
		return ev, nil
	case <-ctx.Done():
		return domain.Event{}, ctx.Err()
	}
}

func (f *fakeRuntime) EventHandled(_ context.Context) error {
	f.acked <- struct{}{}
	return nil
}

func (f *fakeRuntime) setChannels(channels ...domain.ChannelSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = channels
}

func (f *fakeRuntime) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fixedPrices returns the same rate from cache and network.
type fixedPrices struct {
	mu   sync.Mutex
	rate domain.ExchangeRate
	err  error
}

func (p *fixedPrices) CachedRate(_ context.Context) domain.ExchangeRate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *fixedPrices) FetchLatestRate(_ context.Context) (domain.ExchangeRate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return domain.ExchangeRate{}, p.err
	}
	return p.rate, nil
}

func (p *fixedPrices) set(r domain.ExchangeRate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = r
}
