package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a corrective payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Payment is a ledger entry for one corrective keysend.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	ChannelID     ChannelID       `json:"channel_id"`
	PaymentHash   string          `json:"payment_hash,omitempty"`
	AmountMsat    uint64          `json:"amount_msat"`
	Destination   NodeID          `json:"destination"`
	Status        PaymentStatus   `json:"status"`
	Rate          ExchangeRate    `json:"rate"`
	DeviationPct  decimal.Decimal `json:"deviation_pct"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
}

// IsTerminal returns true once settlement has been observed.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusFailed
}

// Settleable reports whether a settlement event with status may update the
// row. A row failed locally before settlement was observed can still be
// corrected to SUCCEEDED when the payment went through.
func (p *Payment) Settleable(status PaymentStatus) bool {
	if p.SettledAt != nil {
		return false
	}
	return p.Status == PaymentStatusPending ||
		(p.Status == PaymentStatusFailed && status == PaymentStatusSucceeded)
}
