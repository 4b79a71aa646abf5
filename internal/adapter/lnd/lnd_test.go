package lnd

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"stable-channels/config"
	"stable-channels/internal/core/domain"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/record"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

const (
	// Displayed txid: last byte 0x01, so internal order starts with 0x01.
	testTxid   = "0000000000000000000000000000000000000000000000000000000000000001"
	testPeer   = "02" + "11111111111111111111111111111111" + "11111111111111111111111111111111"
	testPointA = testTxid + ":1"
)

func TestChannelIDFromPoint(t *testing.T) {
	id, err := ChannelIDFromPoint(testPointA)
	require.NoError(t, err)
	assert.Equal(t, "01"+strings.Repeat("00", 30)+"01", id.String())

	id, err = ChannelIDFromPoint(testTxid + ":258")
	require.NoError(t, err)
	assert.Equal(t, "01"+strings.Repeat("00", 29)+"0102", id.String(), "index XORs into the last two bytes")

	for _, bad := range []string{"", testTxid, "zz:1", testTxid + ":x", testTxid + ":65536"} {
		_, err := ChannelIDFromPoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestChannelIDFromRPCPoint(t *testing.T) {
	want, err := ChannelIDFromPoint(testPointA)
	require.NoError(t, err)

	byStr, err := channelIDFromRPCPoint(&lnrpc.ChannelPoint{
		FundingTxid: &lnrpc.ChannelPoint_FundingTxidStr{FundingTxidStr: testTxid},
		OutputIndex: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, want, byStr)

	raw := make([]byte, 32)
	raw[0] = 0x01
	byBytes, err := channelIDFromRPCPoint(&lnrpc.ChannelPoint{
		FundingTxid: &lnrpc.ChannelPoint_FundingTxidBytes{FundingTxidBytes: raw},
		OutputIndex: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, want, byBytes, "bytes are already in internal order")

	_, err = channelIDFromRPCPoint(nil)
	assert.Error(t, err)
}

func testChannel() *lnrpc.Channel {
	return &lnrpc.Channel{
		Active:           true,
		RemotePubkey:     testPeer,
		ChannelPoint:     testPointA,
		ChanId:           (700_000 << 40) | (12 << 16) | 1,
		Capacity:         100_000,
		LocalBalance:     26_000,
		LocalConstraints: &lnrpc.ChannelConstraints{ChanReserveSat: 1_000},
	}
}

func TestToSnapshot(t *testing.T) {
	s, err := toSnapshot(testChannel())
	require.NoError(t, err)

	assert.Equal(t, domain.NativeAmount(100_000), s.CapacityNative)
	assert.Equal(t, uint64(25_000_000), s.OutboundCapacityMsat)
	assert.Equal(t, domain.NativeAmount(1_000), s.UnspendableReserve)
	assert.Equal(t, domain.NativeAmount(26_000), s.OurNative(), "spendable plus reserve is the whole local balance")
	assert.Equal(t, "700000:12:1", s.Handle)
	assert.True(t, s.Ready)
	assert.Equal(t, testPeer, s.Counterparty.String())
}

func TestToSnapshot_ReserveAboveBalance(t *testing.T) {
	c := testChannel()
	c.LocalBalance = 500

	s, err := toSnapshot(c)
	require.NoError(t, err)
	assert.Zero(t, s.OutboundCapacityMsat)
	assert.Equal(t, domain.NativeAmount(500), s.UnspendableReserve)
}

// fakeLightning overrides the calls the runtime makes.
type fakeLightning struct {
	lnrpc.LightningClient
	channels []*lnrpc.Channel
	err      error
}

func (f *fakeLightning) ListChannels(context.Context, *lnrpc.ListChannelsRequest, ...grpc.CallOption) (*lnrpc.ListChannelsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &lnrpc.ListChannelsResponse{Channels: f.channels}, nil
}

func (f *fakeLightning) GetInfo(context.Context, *lnrpc.GetInfoRequest, ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &lnrpc.GetInfoResponse{IdentityPubkey: testPeer}, nil
}

type fakePaymentStream struct {
	grpc.ClientStream
	updates chan *lnrpc.Payment
}

func (s *fakePaymentStream) Recv() (*lnrpc.Payment, error) {
	p, ok := <-s.updates
	if !ok {
		return nil, io.EOF
	}
	return p, nil
}

type fakeRouter struct {
	routerrpc.RouterClient
	stream *fakePaymentStream
	req    *routerrpc.SendPaymentRequest
	err    error
}

func (f *fakeRouter) SendPaymentV2(_ context.Context, in *routerrpc.SendPaymentRequest, _ ...grpc.CallOption) (routerrpc.Router_SendPaymentV2Client, error) {
	f.req = in
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func newTestRuntime(ln *fakeLightning, router *fakeRouter) *Runtime {
	return New(ln, router, config.LNDConfig{PaymentTimeout: 5 * time.Second, FeeLimitSat: 10}, zerolog.Nop())
}

func TestRuntime_ListChannelsSkipsUnreadable(t *testing.T) {
	bad := testChannel()
	bad.ChannelPoint = "garbage"
	rt := newTestRuntime(&fakeLightning{channels: []*lnrpc.Channel{testChannel(), bad}}, &fakeRouter{})

	list, err := rt.ListChannels(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NativeAmount(100_000), list[0].CapacityNative)
}

func TestRuntime_ListChannelsError(t *testing.T) {
	rt := newTestRuntime(&fakeLightning{err: errors.New("unavailable")}, &fakeRouter{})

	_, err := rt.ListChannels(context.Background())
	assert.ErrorContains(t, err, "unavailable")
	assert.Error(t, rt.Ping(context.Background()))
}

func testDest(t *testing.T) domain.NodeID {
	t.Helper()
	n, err := domain.ParseNodeID(testPeer)
	require.NoError(t, err)
	return n
}

func TestRuntime_SendSpontaneousPayment_InFlightThenSettled(t *testing.T) {
	stream := &fakePaymentStream{updates: make(chan *lnrpc.Payment, 2)}
	router := &fakeRouter{stream: stream}
	rt := newTestRuntime(&fakeLightning{}, router)

	stream.updates <- &lnrpc.Payment{Status: lnrpc.Payment_IN_FLIGHT}
	h, err := rt.SendSpontaneousPayment(context.Background(), 5_000_000, testDest(t))

	require.NoError(t, err)
	assert.Len(t, h.PaymentHash, 64)
	assert.Equal(t, int64(5_000_000), router.req.AmtMsat)
	assert.Equal(t, int64(10), router.req.FeeLimitSat)
	assert.Equal(t, int32(5), router.req.TimeoutSeconds)
	require.Contains(t, router.req.DestCustomRecords, uint64(record.KeySendType))
	assert.Len(t, router.req.DestCustomRecords[uint64(record.KeySendType)], 32)

	stream.updates <- &lnrpc.Payment{Status: lnrpc.Payment_SUCCEEDED, ValueMsat: 5_000_000}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := rt.NextEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentSucceeded, ev.Type)
	assert.Equal(t, h.PaymentHash, ev.PaymentHash)
	assert.Equal(t, uint64(5_000_000), ev.AmountMsat)
}

func TestRuntime_SendSpontaneousPayment_FailsAfterInFlight(t *testing.T) {
	stream := &fakePaymentStream{updates: make(chan *lnrpc.Payment, 2)}
	rt := newTestRuntime(&fakeLightning{}, &fakeRouter{stream: stream})

	stream.updates <- &lnrpc.Payment{Status: lnrpc.Payment_IN_FLIGHT}
	h, err := rt.SendSpontaneousPayment(context.Background(), 1000, testDest(t))
	require.NoError(t, err)

	stream.updates <- &lnrpc.Payment{Status: lnrpc.Payment_FAILED, FailureReason: lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := rt.NextEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentFailed, ev.Type)
	assert.Equal(t, h.PaymentHash, ev.PaymentHash)
	assert.Equal(t, "FAILURE_REASON_NO_ROUTE", ev.Reason)
}

func TestRuntime_SendSpontaneousPayment_ImmediateFailure(t *testing.T) {
	stream := &fakePaymentStream{updates: make(chan *lnrpc.Payment, 1)}
	rt := newTestRuntime(&fakeLightning{}, &fakeRouter{stream: stream})

	stream.updates <- &lnrpc.Payment{Status: lnrpc.Payment_FAILED, FailureReason: lnrpc.PaymentFailureReason_FAILURE_REASON_INSUFFICIENT_BALANCE}
	_, err := rt.SendSpontaneousPayment(context.Background(), 1000, testDest(t))

	assert.ErrorContains(t, err, "INSUFFICIENT_BALANCE")
}

func TestRuntime_SendSpontaneousPayment_StreamClosedEarly(t *testing.T) {
	stream := &fakePaymentStream{updates: make(chan *lnrpc.Payment)}
	close(stream.updates)
	rt := newTestRuntime(&fakeLightning{}, &fakeRouter{stream: stream})

	_, err := rt.SendSpontaneousPayment(context.Background(), 1000, testDest(t))
	assert.Error(t, err)
}

func TestRuntime_SendSpontaneousPayment_CallerGivesUpKeepsHash(t *testing.T) {
	stream := &fakePaymentStream{updates: make(chan *lnrpc.Payment, 1)}
	rt := newTestRuntime(&fakeLightning{}, &fakeRouter{stream: stream})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	h, err := rt.SendSpontaneousPayment(ctx, 1000, testDest(t))

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, h.PaymentHash, 64, "hash is known before the first update")

	stream.updates <- &lnrpc.Payment{Status: lnrpc.Payment_SUCCEEDED, ValueMsat: 1000}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	ev, err := rt.NextEvent(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentSucceeded, ev.Type)
	assert.Equal(t, h.PaymentHash, ev.PaymentHash)
}

func TestRuntime_SendSpontaneousPayment_RPCError(t *testing.T) {
	rt := newTestRuntime(&fakeLightning{}, &fakeRouter{err: errors.New("permission denied")})

	_, err := rt.SendSpontaneousPayment(context.Background(), 1000, testDest(t))
	assert.ErrorContains(t, err, "permission denied")
}

func TestChannelEvent(t *testing.T) {
	want, err := ChannelIDFromPoint(testPointA)
	require.NoError(t, err)

	active := &lnrpc.ChannelEventUpdate{
		Type: lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL,
		Channel: &lnrpc.ChannelEventUpdate_ActiveChannel{ActiveChannel: &lnrpc.ChannelPoint{
			FundingTxid: &lnrpc.ChannelPoint_FundingTxidStr{FundingTxidStr: testTxid},
			OutputIndex: 1,
		}},
	}
	ev, ok, err := channelEvent(active)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.EventChannelReady, ev.Type)
	assert.Equal(t, want, ev.ChannelID)

	open := &lnrpc.ChannelEventUpdate{
		Type:    lnrpc.ChannelEventUpdate_OPEN_CHANNEL,
		Channel: &lnrpc.ChannelEventUpdate_OpenChannel{OpenChannel: testChannel()},
	}
	ev, ok, err = channelEvent(open)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.EventChannelReady, ev.Type)
	assert.Equal(t, testPeer, ev.Counterparty.String())

	closed := &lnrpc.ChannelEventUpdate{
		Type: lnrpc.ChannelEventUpdate_CLOSED_CHANNEL,
		Channel: &lnrpc.ChannelEventUpdate_ClosedChannel{ClosedChannel: &lnrpc.ChannelCloseSummary{
			ChannelPoint: testPointA,
			RemotePubkey: testPeer,
			CloseType:    lnrpc.ChannelCloseSummary_COOPERATIVE_CLOSE,
		}},
	}
	ev, ok, err = channelEvent(closed)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.EventChannelClosed, ev.Type)
	assert.Equal(t, want, ev.ChannelID)
	assert.Equal(t, "COOPERATIVE_CLOSE", ev.Reason)

	_, ok, err = channelEvent(&lnrpc.ChannelEventUpdate{Type: lnrpc.ChannelEventUpdate_INACTIVE_CHANNEL})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInvoiceEvent(t *testing.T) {
	ev, ok := invoiceEvent(&lnrpc.Invoice{State: lnrpc.Invoice_SETTLED, RHash: []byte{0xab, 0xcd}, AmtPaidMsat: 7_000})
	require.True(t, ok)
	assert.Equal(t, domain.EventPaymentReceived, ev.Type)
	assert.Equal(t, "abcd", ev.PaymentHash)
	assert.Equal(t, uint64(7_000), ev.AmountMsat)
	assert.True(t, ev.ChannelID.IsZero())

	_, ok = invoiceEvent(&lnrpc.Invoice{State: lnrpc.Invoice_OPEN})
	assert.False(t, ok)
}

func TestRuntime_NextEventAfterClose(t *testing.T) {
	rt := newTestRuntime(&fakeLightning{}, &fakeRouter{})
	require.NoError(t, rt.Close())

	_, err := rt.NextEvent(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "lnd", rt.Name())
}
