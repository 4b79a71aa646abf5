package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role is which side of the peg this node plays.
type Role string

const (
	RoleStableReceiver Role = "STABLE_RECEIVER"
	RoleStableProvider Role = "STABLE_PROVIDER"
)

// ParseRole accepts the role names case-insensitively, with or without the STABLE_ prefix.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STABLE_RECEIVER", "RECEIVER":
		return RoleStableReceiver, nil
	case "STABLE_PROVIDER", "PROVIDER":
		return RoleStableProvider, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsValid reports whether r is one of the two peg roles.
func (r Role) IsValid() bool {
	return r == RoleStableReceiver || r == RoleStableProvider
}

// PassState is where a record is in the reconciliation state machine.
type PassState string

const (
	StateIdle        PassState = "IDLE"
	StateReconciling PassState = "RECONCILING"
	StateDeciding    PassState = "DECIDING"
	StatePaying      PassState = "PAYING"
)

// PeggedChannel tracks one channel's peg target, current split, role and risk state.
// It is owned by the engine and never handed to readers directly.
type PeggedChannel struct {
	ChannelID        ChannelID
	Counterparty     NodeID
	Role             Role
	ExpectedFiat     FiatAmount
	ExpectedNative   NativeAmount
	ReceiverNative   NativeAmount
	ReceiverFiat     FiatAmount
	ProviderNative   NativeAmount
	ProviderFiat     FiatAmount
	CapacityNative   NativeAmount
	LatestRate       ExchangeRate
	RiskLevel        int
	PaymentMade      bool
	LastReconciledAt time.Time
}

// NewPeggedChannel builds a record from a designation. Balances start empty.
func NewPeggedChannel(d Designation) *PeggedChannel {
	return &PeggedChannel{
		ChannelID:      d.ChannelID,
		Counterparty:   d.Counterparty,
		Role:           d.Role,
		ExpectedFiat:   d.ExpectedFiat,
		ExpectedNative: d.ExpectedNative,
		RiskLevel:      d.RiskLevel,
	}
}

// BindChannel sets the channel id once. Returns false if already bound.
func (pc *PeggedChannel) BindChannel(id ChannelID) bool {
	if !pc.ChannelID.IsZero() {
		return false
	}
	pc.ChannelID = id
	return true
}

// BindCounterparty sets the counterparty once. Returns false if already set.
func (pc *PeggedChannel) BindCounterparty(id NodeID) bool {
	if !pc.Counterparty.IsZero() {
		return false
	}
	pc.Counterparty = id
	return true
}

// Redesignate replaces the peg target. Balances, rate and risk are kept.
func (pc *PeggedChannel) Redesignate(expected FiatAmount, expectedNative NativeAmount) {
	pc.ExpectedFiat = expected
	pc.ExpectedNative = expectedNative
}

// AddRisk raises the risk level by n. Non-positive n is ignored, so risk only grows.
func (pc *PeggedChannel) AddRisk(n int) {
	if n > 0 {
		pc.RiskLevel += n
	}
}

// ResetRisk clears the risk level after operator review.
func (pc *PeggedChannel) ResetRisk() {
	pc.RiskLevel = 0
}

// IsReconciled reports whether balances have been derived at a known rate.
func (pc *PeggedChannel) IsReconciled() bool {
	return pc.LatestRate.IsValid() && !pc.LastReconciledAt.IsZero()
}

// Designation returns the persisted part of the record.
func (pc *PeggedChannel) Designation() Designation {
	return Designation{
		ChannelID:      pc.ChannelID,
		Counterparty:   pc.Counterparty,
		Role:           pc.Role,
		ExpectedFiat:   pc.ExpectedFiat,
		ExpectedNative: pc.ExpectedNative,
		RiskLevel:      pc.RiskLevel,
	}
}

// PassOutcome summarises the last pass for readers.
type PassOutcome struct {
	State        PassState       `json:"state"`
	Kind         DecisionKind    `json:"outcome,omitempty"`
	Status       string          `json:"status,omitempty"`
	DeviationPct decimal.Decimal `json:"deviation_pct"`
	Error        string          `json:"error,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	At           time.Time       `json:"at"`
}

// PeggedChannelView is an immutable copy of a record for display.
type PeggedChannelView struct {
	ChannelID        ChannelID    `json:"channel_id"`
	Counterparty     NodeID       `json:"counterparty"`
	Role             Role         `json:"role"`
	ExpectedFiat     FiatAmount   `json:"expected_fiat"`
	ExpectedNative   NativeAmount `json:"expected_native_sat"`
	ReceiverNative   NativeAmount `json:"receiver_native_sat"`
	ReceiverFiat     FiatAmount   `json:"receiver_fiat"`
	ProviderNative   NativeAmount `json:"provider_native_sat"`
	ProviderFiat     FiatAmount   `json:"provider_fiat"`
	CapacityNative   NativeAmount `json:"capacity_sat"`
	LatestRate       ExchangeRate `json:"latest_rate"`
	RiskLevel        int          `json:"risk_level"`
	PaymentMade      bool         `json:"payment_made"`
	LastReconciledAt time.Time    `json:"last_reconciled_at"`
	LastPass         PassOutcome  `json:"last_pass"`
}

// View copies the record together with the given pass outcome.
func (pc *PeggedChannel) View(last PassOutcome) *PeggedChannelView {
	return &PeggedChannelView{
		ChannelID:        pc.ChannelID,
		Counterparty:     pc.Counterparty,
		Role:             pc.Role,
		ExpectedFiat:     pc.ExpectedFiat,
		ExpectedNative:   pc.ExpectedNative,
		ReceiverNative:   pc.ReceiverNative,
		ReceiverFiat:     pc.ReceiverFiat,
		ProviderNative:   pc.ProviderNative,
		ProviderFiat:     pc.ProviderFiat,
		CapacityNative:   pc.CapacityNative,
		LatestRate:       pc.LatestRate,
		RiskLevel:        pc.RiskLevel,
		PaymentMade:      pc.PaymentMade,
		LastReconciledAt: pc.LastReconciledAt,
		LastPass:         last,
	}
}
