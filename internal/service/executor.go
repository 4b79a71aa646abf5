package service

import (
	"context"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/internal/metrics"
	"stable-channels/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentExecutor validates and sends corrective keysend payments.
type PaymentExecutor struct {
	runtime     ports.ChannelRuntime
	payments    ports.PaymentRepository
	riskPenalty int
	log         zerolog.Logger
	now         func() time.Time
}

// NewPaymentExecutor creates a new PaymentExecutor. payments may be nil to skip the ledger.
func NewPaymentExecutor(
	runtime ports.ChannelRuntime,
	payments ports.PaymentRepository,
	riskPenalty int,
	log zerolog.Logger,
) *PaymentExecutor {
	return &PaymentExecutor{
		runtime:     runtime,
		payments:    payments,
		riskPenalty: riskPenalty,
		log:         log,
		now:         time.Now,
	}
}

// Execute checks preconditions in order and, if all hold, sends d.AmountMsat
// to the record's counterparty. Success means accepted for sending.
// A failed send adds the risk penalty to pc.
func (e *PaymentExecutor) Execute(
	ctx context.Context,
	pc *domain.PeggedChannel,
	d domain.Decision,
	channels []domain.ChannelSnapshot,
) (*domain.Payment, error) {
	if d.AmountMsat == 0 {
		return nil, apperror.ErrZeroAmountPayment()
	}

	snap, ok := domain.FindChannel(channels, pc.ChannelID)
	if !ok || pc.ChannelID.IsZero() {
		return nil, apperror.ErrChannelNotFound(pc.ChannelID.String())
	}
	if !snap.Ready {
		return nil, apperror.ErrChannelNotReady(pc.ChannelID.String())
	}
	if snap.OutboundCapacityMsat < d.AmountMsat {
		return nil, apperror.ErrInsufficientCapacity(snap.OutboundCapacityMsat, d.AmountMsat)
	}
	if snap.Counterparty != pc.Counterparty {
		return nil, apperror.ErrCounterpartyMismatch(pc.Counterparty.String(), snap.Counterparty.String())
	}

	payment := &domain.Payment{
		ID:           uuid.New(),
		ChannelID:    pc.ChannelID,
		AmountMsat:   d.AmountMsat,
		Destination:  pc.Counterparty,
		Status:       domain.PaymentStatusPending,
		Rate:         pc.LatestRate,
		DeviationPct: d.DeviationPct,
		CreatedAt:    e.now().UTC(),
	}

	handle, err := e.runtime.SendSpontaneousPayment(ctx, d.AmountMsat, pc.Counterparty)
	payment.PaymentHash = handle.PaymentHash
	if err != nil {
		pc.AddRisk(e.riskPenalty)
		metrics.PaymentsTotal.WithLabelValues("send_failed").Inc()

		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = err.Error()
		e.record(ctx, payment)

		e.log.Warn().Err(err).
			Str("channel_id", pc.ChannelID.String()).
			Str("payment_hash", handle.PaymentHash).
			Uint64("amount_msat", d.AmountMsat).
			Int("risk_level", pc.RiskLevel).
			Msg("corrective payment send failed")
		return nil, apperror.ErrPaymentSendFailed(err)
	}

	pc.PaymentMade = true
	e.record(ctx, payment)

	metrics.PaymentsTotal.WithLabelValues("accepted").Inc()
	metrics.PaymentMsatTotal.Add(float64(d.AmountMsat))

	e.log.Info().
		Str("channel_id", pc.ChannelID.String()).
		Str("payment_hash", handle.PaymentHash).
		Uint64("amount_msat", d.AmountMsat).
		Str("deviation_pct", d.DeviationPct.StringFixed(2)).
		Msg("corrective payment accepted")

	return payment, nil
}

// record writes the ledger entry. The payment has already been sent or
// rejected by the runtime, so a write failure is logged, not returned.
func (e *PaymentExecutor) record(ctx context.Context, p *domain.Payment) {
	if e.payments == nil {
		return
	}
	if err := e.payments.Create(ctx, p); err != nil {
		e.log.Error().Err(err).
			Str("payment_id", p.ID.String()).
			Str("payment_hash", p.PaymentHash).
			Msg("failed to record payment")
	}
}
