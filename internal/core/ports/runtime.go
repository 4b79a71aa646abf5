package ports

//go:generate mockgen -source=runtime.go -destination=mocks/runtime_mock.go -package=mocks

import (
	"context"

	"stable-channels/internal/core/domain"
)

// ChannelRuntime is the payment-channel node the engine drives.
type ChannelRuntime interface {
	// ListChannels returns a snapshot of every open channel.
	ListChannels(ctx context.Context) ([]domain.ChannelSnapshot, error)
	// SendSpontaneousPayment sends a keysend. Success means accepted for sending, not settled.
	// On error the handle still carries the payment hash once one was chosen.
	SendSpontaneousPayment(ctx context.Context, amountMsat uint64, dest domain.NodeID) (domain.PaymentHandle, error)
	// NextEvent blocks until an event is available or ctx is done.
	NextEvent(ctx context.Context) (domain.Event, error)
	// EventHandled acknowledges the last event returned by NextEvent.
	EventHandled(ctx context.Context) error
}
