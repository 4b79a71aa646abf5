package lnd

import (
	"encoding/hex"
	"fmt"

	"stable-channels/internal/core/domain"

	"github.com/lightningnetwork/lnd/lnrpc"
)

// channelEvent maps a channel event update. ok is false for update types the
// engine does not consume.
func channelEvent(u *lnrpc.ChannelEventUpdate) (domain.Event, bool, error) {
	switch u.Type {
	case lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL:
		id, err := channelIDFromRPCPoint(u.GetActiveChannel())
		if err != nil {
			return domain.Event{}, false, err
		}
		return domain.Event{Type: domain.EventChannelReady, ChannelID: id}, true, nil

	case lnrpc.ChannelEventUpdate_OPEN_CHANNEL:
		c := u.GetOpenChannel()
		if c == nil {
			return domain.Event{}, false, fmt.Errorf("open channel event without channel")
		}
		s, err := toSnapshot(c)
		if err != nil {
			return domain.Event{}, false, err
		}
		return domain.Event{Type: domain.EventChannelReady, ChannelID: s.ChannelID, Counterparty: s.Counterparty}, true, nil

	case lnrpc.ChannelEventUpdate_CLOSED_CHANNEL:
		c := u.GetClosedChannel()
		if c == nil {
			return domain.Event{}, false, fmt.Errorf("closed channel event without summary")
		}
		id, err := ChannelIDFromPoint(c.ChannelPoint)
		if err != nil {
			return domain.Event{}, false, err
		}
		ev := domain.Event{Type: domain.EventChannelClosed, ChannelID: id, Reason: c.CloseType.String()}
		if peer, err := domain.ParseNodeID(c.RemotePubkey); err == nil {
			ev.Counterparty = peer
		}
		return ev, true, nil
	}
	return domain.Event{}, false, nil
}

// invoiceEvent maps a settled invoice, keysend or not, to PaymentReceived.
// Invoices do not name the channel, so the event carries the zero id.
func invoiceEvent(inv *lnrpc.Invoice) (domain.Event, bool) {
	if inv.State != lnrpc.Invoice_SETTLED {
		return domain.Event{}, false
	}
	return domain.Event{
		Type:        domain.EventPaymentReceived,
		PaymentHash: hex.EncodeToString(inv.RHash),
		AmountMsat:  uint64(max(inv.AmtPaidMsat, 0)),
	}, true
}
