package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DecisionKind classifies the action a pass should take.
type DecisionKind string

const (
	DecisionStable       DecisionKind = "STABLE"
	DecisionWait         DecisionKind = "WAIT"
	DecisionPay          DecisionKind = "PAY"
	DecisionSuspended    DecisionKind = "SUSPENDED"
	DecisionUnreconciled DecisionKind = "UNRECONCILED"
)

// PegPolicy carries the decision thresholds.
type PegPolicy struct {
	StabilityThresholdPct decimal.Decimal
	RiskSuspendThreshold  int
}

// DefaultPegPolicy is a 0.1% dead-band and a risk gate above 100.
func DefaultPegPolicy() PegPolicy {
	return PegPolicy{
		StabilityThresholdPct: decimal.RequireFromString("0.1"),
		RiskSuspendThreshold:  100,
	}
}

// Decision is the output of Decide. Amount fields are set only for DecisionPay.
type Decision struct {
	Kind          DecisionKind    `json:"kind"`
	DeviationFiat FiatAmount      `json:"deviation_fiat"`
	DeviationPct  decimal.Decimal `json:"deviation_pct"`
	Amount        NativeAmount    `json:"amount_sat,omitempty"`
	AmountMsat    uint64          `json:"amount_msat,omitempty"`
	RiskLevel     int             `json:"risk_level,omitempty"`
	Destination   NodeID          `json:"destination,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// Status renders the decision as a one-line operator status.
func (d Decision) Status() string {
	pct := d.DeviationPct.StringFixed(2)
	switch d.Kind {
	case DecisionStable:
		return fmt.Sprintf("STABLE: within dead-band (deviation %s%%)", pct)
	case DecisionWait:
		return fmt.Sprintf("WAIT: counterparty expected to pay (deviation %s%%)", pct)
	case DecisionPay:
		return fmt.Sprintf("PAY: %d sat to counterparty (deviation %s%%)", d.Amount, pct)
	case DecisionSuspended:
		return fmt.Sprintf("SUSPENDED: risk level %d (deviation %s%%)", d.RiskLevel, pct)
	default:
		return fmt.Sprintf("UNRECONCILED: %s", d.Reason)
	}
}

// Decide classifies a reconciled record. It performs no I/O and never mutates pc.
//
// Steps run in order: unreconciled, dead-band, risk gate, directional wait, pay.
func Decide(pc *PeggedChannel, policy PegPolicy) Decision {
	switch {
	case !pc.LatestRate.IsValid():
		return Decision{Kind: DecisionUnreconciled, Reason: "no exchange rate"}
	case pc.LastReconciledAt.IsZero():
		return Decision{Kind: DecisionUnreconciled, Reason: "balances never computed"}
	case pc.ExpectedFiat.IsZero():
		return Decision{Kind: DecisionUnreconciled, Reason: "expected fiat is zero"}
	}

	dev := pc.ReceiverFiat.Sub(pc.ExpectedFiat)
	d := Decision{
		DeviationFiat: dev,
		DeviationPct:  dev.PercentOf(pc.ExpectedFiat),
		RiskLevel:     pc.RiskLevel,
	}

	if d.DeviationPct.LessThan(policy.StabilityThresholdPct) {
		d.Kind = DecisionStable
		return d
	}

	if pc.RiskLevel > policy.RiskSuspendThreshold {
		d.Kind = DecisionSuspended
		return d
	}

	receiverBelow := pc.ReceiverFiat.LessThan(pc.ExpectedFiat)
	if (pc.Role == RoleStableReceiver && receiverBelow) || (pc.Role == RoleStableProvider && !receiverBelow) {
		d.Kind = DecisionWait
		return d
	}

	amount, err := ToNativeSubunit(dev.Abs(), pc.LatestRate)
	if err != nil {
		return Decision{Kind: DecisionUnreconciled, DeviationFiat: dev, DeviationPct: d.DeviationPct, Reason: err.Error()}
	}
	msat, err := amount.ToMsat()
	if err != nil {
		return Decision{Kind: DecisionUnreconciled, DeviationFiat: dev, DeviationPct: d.DeviationPct, Reason: err.Error()}
	}

	d.Kind = DecisionPay
	d.Amount = amount
	d.AmountMsat = msat
	d.Destination = pc.Counterparty
	return d
}
