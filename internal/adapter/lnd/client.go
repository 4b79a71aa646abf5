// Package lnd implements the channel runtime against an lnd node over gRPC.
package lnd

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"stable-channels/config"
	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/macaroons"
	"github.com/lightningnetwork/lnd/record"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/macaroon.v2"
)

const (
	eventBuffer        = 128
	resubscribeInitial = time.Second
	resubscribeMax     = 30 * time.Second
	// trackGrace extends the payment stream past lnd's own payment timeout.
	trackGrace = 30 * time.Second
)

var _ ports.ChannelRuntime = (*Runtime)(nil)

// Runtime implements ports.ChannelRuntime and ports.HealthChecker.
type Runtime struct {
	ln     lnrpc.LightningClient
	router routerrpc.RouterClient
	conn   *grpc.ClientConn
	cfg    config.LNDConfig
	log    zerolog.Logger
	events chan domain.Event

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to lnd with TLS and macaroon credentials.
func Dial(cfg config.LNDConfig, log zerolog.Logger) (*Runtime, error) {
	creds, err := credentials.NewClientTLSFromFile(cfg.TLSCertPath, "")
	if err != nil {
		return nil, fmt.Errorf("loading lnd TLS cert: %w", err)
	}

	macBytes, err := os.ReadFile(cfg.MacaroonPath)
	if err != nil {
		return nil, fmt.Errorf("reading lnd macaroon: %w", err)
	}
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, fmt.Errorf("decoding lnd macaroon: %w", err)
	}
	macCreds, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("creating macaroon credential: %w", err)
	}

	conn, err := grpc.NewClient(cfg.Host,
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(macCreds),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to lnd at %s: %w", cfg.Host, err)
	}

	r := New(lnrpc.NewLightningClient(conn), routerrpc.NewRouterClient(conn), cfg, log)
	r.conn = conn
	log.Info().Str("host", cfg.Host).Msg("lnd client configured")
	return r, nil
}

// New wraps existing lnd clients.
func New(ln lnrpc.LightningClient, router routerrpc.RouterClient, cfg config.LNDConfig, log zerolog.Logger) *Runtime {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = time.Minute
	}
	return &Runtime{
		ln:     ln,
		router: router,
		cfg:    cfg,
		log:    log,
		events: make(chan domain.Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Close closes the gRPC connection and ends NextEvent.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Ping calls GetInfo.
func (r *Runtime) Ping(ctx context.Context) error {
	_, err := r.ln.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	return err
}

// Name returns the dependency name.
func (r *Runtime) Name() string { return "lnd" }

// ListChannels returns every open channel, active or not.
func (r *Runtime) ListChannels(ctx context.Context) ([]domain.ChannelSnapshot, error) {
	resp, err := r.ln.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return nil, fmt.Errorf("lnd list channels: %w", err)
	}

	out := make([]domain.ChannelSnapshot, 0, len(resp.Channels))
	for _, c := range resp.Channels {
		s, err := toSnapshot(c)
		if err != nil {
			r.log.Warn().Err(err).Str("channel_point", c.ChannelPoint).Msg("skipping unreadable channel")
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type paymentUpdate struct {
	err error
}

// SendSpontaneousPayment sends a keysend and returns once lnd reports the
// payment in flight. Final settlement arrives later as a PaymentSucceeded or
// PaymentFailed event.
func (r *Runtime) SendSpontaneousPayment(ctx context.Context, amountMsat uint64, dest domain.NodeID) (domain.PaymentHandle, error) {
	if amountMsat > math.MaxInt64 {
		return domain.PaymentHandle{}, fmt.Errorf("amount %d msat out of range", amountMsat)
	}

	var preimage lntypes.Preimage
	if _, err := rand.Read(preimage[:]); err != nil {
		return domain.PaymentHandle{}, fmt.Errorf("generating preimage: %w", err)
	}
	hash := preimage.Hash()
	handle := domain.PaymentHandle{PaymentHash: hash.String()}

	req := &routerrpc.SendPaymentRequest{
		Dest:              dest[:],
		AmtMsat:           int64(amountMsat),
		PaymentHash:       hash[:],
		DestCustomRecords: map[uint64][]byte{uint64(record.KeySendType): preimage[:]},
		TimeoutSeconds:    int32(r.cfg.PaymentTimeout / time.Second),
		FeeLimitSat:       r.cfg.FeeLimitSat,
	}

	// The stream outlives the caller so settlement is still observed.
	streamCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.PaymentTimeout+trackGrace)
	stream, err := r.router.SendPaymentV2(streamCtx, req)
	if err != nil {
		cancel()
		return domain.PaymentHandle{}, fmt.Errorf("lnd send payment: %w", err)
	}

	first := make(chan paymentUpdate, 1)
	go r.trackPayment(streamCtx, cancel, stream, handle.PaymentHash, first)

	select {
	case u := <-first:
		if u.err != nil {
			return handle, u.err
		}
		return handle, nil
	case <-ctx.Done():
		return handle, fmt.Errorf("waiting for payment %s: %w", handle.PaymentHash, ctx.Err())
	}
}

// trackPayment reads payment updates. The first decisive update goes to first;
// a final state after that is emitted as an event.
func (r *Runtime) trackPayment(
	ctx context.Context,
	cancel context.CancelFunc,
	stream routerrpc.Router_SendPaymentV2Client,
	hash string,
	first chan<- paymentUpdate,
) {
	defer cancel()
	reported := false
	report := func(err error) {
		if !reported {
			reported = true
			first <- paymentUpdate{err: err}
		}
	}

	for {
		p, err := stream.Recv()
		if err != nil {
			if !reported {
				report(fmt.Errorf("lnd payment stream: %w", err))
				return
			}
			if !errors.Is(err, io.EOF) {
				r.log.Warn().Err(err).Str("payment_hash", hash).Msg("lost payment stream before settlement")
			}
			return
		}

		switch p.Status {
		case lnrpc.Payment_IN_FLIGHT:
			report(nil)
		case lnrpc.Payment_SUCCEEDED:
			report(nil)
			r.emit(ctx, domain.Event{Type: domain.EventPaymentSucceeded, PaymentHash: hash, AmountMsat: uint64(p.ValueMsat)})
			return
		case lnrpc.Payment_FAILED:
			reason := p.FailureReason.String()
			if !reported {
				report(errors.New(reason))
				return
			}
			r.emit(ctx, domain.Event{Type: domain.EventPaymentFailed, PaymentHash: hash, Reason: reason})
			return
		}
	}
}

// Subscribe streams channel and invoice events into NextEvent until ctx is
// cancelled, resubscribing with backoff.
func (r *Runtime) Subscribe(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		r.resubscribe(ctx, "channel_events", r.streamChannelEvents)
		return nil
	})
	eg.Go(func() error {
		r.resubscribe(ctx, "invoices", r.streamInvoices)
		return nil
	})
	return eg.Wait()
}

func (r *Runtime) resubscribe(ctx context.Context, name string, stream func(context.Context) error) {
	backoff := resubscribeInitial
	for {
		err := stream(ctx)
		if ctx.Err() != nil {
			return
		}
		r.log.Warn().Err(err).Str("stream", name).Dur("retry_in", backoff).Msg("lnd subscription ended")

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		backoff = min(backoff*2, resubscribeMax)
	}
}

func (r *Runtime) streamChannelEvents(ctx context.Context) error {
	stream, err := r.ln.SubscribeChannelEvents(ctx, &lnrpc.ChannelEventSubscription{})
	if err != nil {
		return fmt.Errorf("subscribe channel events: %w", err)
	}
	for {
		u, err := stream.Recv()
		if err != nil {
			return err
		}
		ev, ok, err := channelEvent(u)
		if err != nil {
			r.log.Warn().Err(err).Str("type", u.Type.String()).Msg("unreadable channel event")
			continue
		}
		if ok {
			r.emit(ctx, ev)
		}
	}
}

func (r *Runtime) streamInvoices(ctx context.Context) error {
	stream, err := r.ln.SubscribeInvoices(ctx, &lnrpc.InvoiceSubscription{})
	if err != nil {
		return fmt.Errorf("subscribe invoices: %w", err)
	}
	for {
		inv, err := stream.Recv()
		if err != nil {
			return err
		}
		if ev, ok := invoiceEvent(inv); ok {
			r.emit(ctx, ev)
		}
	}
}

func (r *Runtime) emit(ctx context.Context, ev domain.Event) {
	select {
	case r.events <- ev:
	case <-ctx.Done():
	case <-r.done:
	}
}

// NextEvent blocks until an event is available.
func (r *Runtime) NextEvent(ctx context.Context) (domain.Event, error) {
	select {
	case ev := <-r.events:
		return ev, nil
	case <-ctx.Done():
		return domain.Event{}, ctx.Err()
	case <-r.done:
		return domain.Event{}, errors.New("lnd runtime closed")
	}
}

// EventHandled is a no-op: lnd streams need no acknowledgement.
func (r *Runtime) EventHandled(context.Context) error { return nil }
