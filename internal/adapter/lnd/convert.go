package lnd

import (
	"fmt"
	"strconv"
	"strings"

	"stable-channels/internal/core/domain"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
)

// channelIDFromOutpoint derives the BOLT-2 channel id: the funding txid in
// internal byte order with the output index XORed into the last two bytes.
func channelIDFromOutpoint(txid chainhash.Hash, index uint32) (domain.ChannelID, error) {
	if index > 0xffff {
		return domain.ChannelID{}, fmt.Errorf("output index %d does not fit a channel id", index)
	}
	var id domain.ChannelID
	copy(id[:], txid[:])
	id[30] ^= byte(index >> 8)
	id[31] ^= byte(index)
	return id, nil
}

// ChannelIDFromPoint converts an lnd "txid:index" channel point string.
func ChannelIDFromPoint(point string) (domain.ChannelID, error) {
	txidStr, idxStr, ok := strings.Cut(point, ":")
	if !ok {
		return domain.ChannelID{}, fmt.Errorf("malformed channel point %q", point)
	}
	txid, err := chainhash.NewHashFromStr(txidStr)
	if err != nil {
		return domain.ChannelID{}, fmt.Errorf("channel point %q: %w", point, err)
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return domain.ChannelID{}, fmt.Errorf("channel point %q: %w", point, err)
	}
	return channelIDFromOutpoint(*txid, uint32(idx))
}

// channelIDFromRPCPoint converts the structured channel point used by channel events.
func channelIDFromRPCPoint(cp *lnrpc.ChannelPoint) (domain.ChannelID, error) {
	if cp == nil {
		return domain.ChannelID{}, fmt.Errorf("missing channel point")
	}
	var txid chainhash.Hash
	switch f := cp.FundingTxid.(type) {
	case *lnrpc.ChannelPoint_FundingTxidBytes:
		h, err := chainhash.NewHash(f.FundingTxidBytes)
		if err != nil {
			return domain.ChannelID{}, err
		}
		txid = *h
	case *lnrpc.ChannelPoint_FundingTxidStr:
		h, err := chainhash.NewHashFromStr(f.FundingTxidStr)
		if err != nil {
			return domain.ChannelID{}, err
		}
		txid = *h
	default:
		return domain.ChannelID{}, fmt.Errorf("channel point without funding txid")
	}
	return channelIDFromOutpoint(txid, cp.OutputIndex)
}

// toSnapshot maps an lnd channel. LocalBalance includes our channel reserve,
// which is reported as unspendable.
func toSnapshot(c *lnrpc.Channel) (domain.ChannelSnapshot, error) {
	id, err := ChannelIDFromPoint(c.ChannelPoint)
	if err != nil {
		return domain.ChannelSnapshot{}, err
	}
	peer, err := domain.ParseNodeID(c.RemotePubkey)
	if err != nil {
		return domain.ChannelSnapshot{}, fmt.Errorf("channel %s remote pubkey: %w", c.ChannelPoint, err)
	}

	local := nonNegative(c.LocalBalance)
	var reserve uint64
	if c.LocalConstraints != nil {
		reserve = min(c.LocalConstraints.ChanReserveSat, local)
	}

	return domain.ChannelSnapshot{
		ChannelID:            id,
		Handle:               lnwire.NewShortChanIDFromInt(c.ChanId).String(),
		CapacityNative:       domain.NativeAmount(nonNegative(c.Capacity)),
		OutboundCapacityMsat: (local - reserve) * domain.MsatPerSat,
		UnspendableReserve:   domain.NativeAmount(reserve),
		Ready:                c.Active,
		Counterparty:         peer,
	}, nil
}

func nonNegative(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
