package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"stable-channels/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, channel_id, payment_hash, amount_msat, destination, status, rate::text, deviation_pct::text, failure_reason, created_at, settled_at`

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a payment ledger on pool.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a ledger row.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	if p.AmountMsat > math.MaxInt64 {
		return fmt.Errorf("insert payment: amount %d msat exceeds column range", p.AmountMsat)
	}

	query := `INSERT INTO peg_payments (id, channel_id, payment_hash, amount_msat, destination, status, rate, deviation_pct, failure_reason, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.ChannelID.String(), p.PaymentHash, int64(p.AmountMsat),
		nodeText(p.Destination), string(p.Status), p.Rate.Decimal().String(), p.DeviationPct.String(),
		p.FailureReason, p.CreatedAt, p.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// UpdateStatusByHash settles the newest unsettled payment with the given hash.
// The row filter matches domain.Payment.Settleable.
func (r *PaymentRepo) UpdateStatusByHash(
	ctx context.Context,
	hash string,
	status domain.PaymentStatus,
	reason string,
	at time.Time,
) (*domain.Payment, error) {
	query := `UPDATE peg_payments SET status=$2, failure_reason=$3, settled_at=$4
		WHERE id = (
			SELECT id FROM peg_payments
			WHERE payment_hash=$1 AND settled_at IS NULL
				AND (status='PENDING' OR (status='FAILED' AND $2='SUCCEEDED'))
			ORDER BY created_at DESC LIMIT 1
		)
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.pool.QueryRow(ctx, query, hash, string(status), reason, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("settle payment %s: %w", hash, err)
	}
	return p, nil
}

// ListByChannel returns a channel's payments, newest first.
func (r *PaymentRepo) ListByChannel(ctx context.Context, channelID domain.ChannelID, limit int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM peg_payments
		WHERE channel_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, channelID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p                                        domain.Payment
		channelID, dest, status, rate, deviation string
		amount                                   int64
	)
	err := row.Scan(
		&p.ID, &channelID, &p.PaymentHash, &amount, &dest, &status,
		&rate, &deviation, &p.FailureReason, &p.CreatedAt, &p.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	if p.ChannelID, err = domain.ParseChannelID(channelID); err != nil {
		return nil, fmt.Errorf("payment %s channel_id: %w", p.ID, err)
	}
	if dest != "" {
		if p.Destination, err = domain.ParseNodeID(dest); err != nil {
			return nil, fmt.Errorf("payment %s destination: %w", p.ID, err)
		}
	}
	if p.Rate, err = domain.ParseExchangeRate(rate); err != nil {
		return nil, fmt.Errorf("payment %s rate: %w", p.ID, err)
	}
	if p.DeviationPct, err = decimal.NewFromString(deviation); err != nil {
		return nil, fmt.Errorf("payment %s deviation: %w", p.ID, err)
	}
	p.AmountMsat = uint64(amount)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
