package service

import (
	"fmt"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/pkg/apperror"
)

// resolveRate picks the rate a pass runs at. A zero supplied rate falls back
// to the rate stored on the record.
func resolveRate(pc *domain.PeggedChannel, supplied domain.ExchangeRate) (domain.ExchangeRate, error) {
	if supplied.IsNegative() {
		return domain.ExchangeRate{}, apperror.ErrInvalidRate()
	}
	if supplied.IsValid() {
		return supplied, nil
	}
	if pc.LatestRate.IsValid() {
		return pc.LatestRate, nil
	}
	return domain.ExchangeRate{}, apperror.ErrRateUnavailable()
}

// selectChannel performs the one-time adoption of an unbound record.
func selectChannel(channels []domain.ChannelSnapshot) (domain.ChannelSnapshot, error) {
	switch len(channels) {
	case 0:
		return domain.ChannelSnapshot{}, apperror.ErrChannelNotFound("")
	case 1:
		return channels[0], nil
	default:
		return domain.ChannelSnapshot{}, apperror.ErrAmbiguousChannel(len(channels))
	}
}

// Reconcile recomputes the record's balances from a channel snapshot at rate.
// Every check runs before the first write, so on error the record is untouched.
// Performs no I/O.
func Reconcile(pc *domain.PeggedChannel, channels []domain.ChannelSnapshot, rate domain.ExchangeRate, now time.Time) error {
	rate, err := resolveRate(pc, rate)
	if err != nil {
		return err
	}

	id := pc.ChannelID
	if id.IsZero() {
		adopted, err := selectChannel(channels)
		if err != nil {
			return err
		}
		id = adopted.ChannelID
	}

	snap, ok := domain.FindChannel(channels, id)
	if !ok {
		return apperror.ErrChannelNotFound(id.String())
	}

	our := snap.OurNative()
	if our > snap.CapacityNative {
		return apperror.ErrInconsistentSnapshot(
			fmt.Sprintf("local balance %d sat exceeds capacity %d sat", our, snap.CapacityNative))
	}
	their := snap.CapacityNative - our

	receiver, provider := our, their
	if pc.Role == domain.RoleStableProvider {
		receiver, provider = their, our
	}

	receiverFiat, err := domain.ToFiat(receiver, rate)
	if err != nil {
		return err
	}
	providerFiat, err := domain.ToFiat(provider, rate)
	if err != nil {
		return err
	}

	pc.BindChannel(id)
	pc.BindCounterparty(snap.Counterparty)
	pc.CapacityNative = snap.CapacityNative
	pc.ReceiverNative = receiver
	pc.ProviderNative = provider
	pc.ReceiverFiat = receiverFiat
	pc.ProviderFiat = providerFiat
	pc.LatestRate = rate
	pc.LastReconciledAt = now

	return nil
}
