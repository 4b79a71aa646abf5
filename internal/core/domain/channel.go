package domain

// ChannelSnapshot is a read-only view of a live channel as reported by the runtime.
type ChannelSnapshot struct {
	ChannelID            ChannelID    `json:"channel_id"`
	Handle               string       `json:"handle"` // Runtime-local handle, e.g. LND chan_id or channel point
	CapacityNative       NativeAmount `json:"capacity_sat"`
	OutboundCapacityMsat uint64       `json:"outbound_capacity_msat"`
	UnspendableReserve   NativeAmount `json:"unspendable_reserve_sat"`
	Ready                bool         `json:"ready"`
	Counterparty         NodeID       `json:"counterparty"`
}

// OurNative is the local side including the reserve we would reclaim on a unilateral close.
func (s ChannelSnapshot) OurNative() NativeAmount {
	return NativeFromMsat(s.OutboundCapacityMsat) + s.UnspendableReserve
}

// FindChannel returns the snapshot with the given id.
func FindChannel(channels []ChannelSnapshot, id ChannelID) (ChannelSnapshot, bool) {
	for _, ch := range channels {
		if ch.ChannelID == id {
			return ch, true
		}
	}
	return ChannelSnapshot{}, false
}

// EventType identifies a runtime notification.
type EventType string

const (
	EventChannelReady     EventType = "CHANNEL_READY"
	EventChannelClosed    EventType = "CHANNEL_CLOSED"
	EventPaymentReceived  EventType = "PAYMENT_RECEIVED"
	EventPaymentSucceeded EventType = "PAYMENT_SUCCEEDED"
	EventPaymentFailed    EventType = "PAYMENT_FAILED"
)

// Event is one runtime notification. Fields not relevant to Type are zero.
type Event struct {
	Type         EventType
	ChannelID    ChannelID
	Counterparty NodeID
	PaymentHash  string
	AmountMsat   uint64
	Reason       string
}

// TriggersPass reports whether the event should schedule a reconciliation pass.
func (e Event) TriggersPass() bool {
	return e.Type == EventChannelReady || e.Type == EventPaymentReceived
}

// PaymentHandle identifies a payment accepted for sending.
type PaymentHandle struct {
	PaymentHash string
}
