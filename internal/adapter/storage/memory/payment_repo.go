package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
)

var _ ports.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo is an append-only in-memory ledger.
type PaymentRepo struct {
	mu       sync.RWMutex
	payments []domain.Payment
}

// NewPaymentRepo creates an empty ledger.
func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{}
}

// Create appends a ledger row. Ids must be unique.
func (r *PaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payments {
		if existing.ID == p.ID {
			return fmt.Errorf("payment %s already exists", p.ID)
		}
	}
	r.payments = append(r.payments, *p)
	return nil
}

// UpdateStatusByHash settles the newest unsettled payment with the given hash.
func (r *PaymentRepo) UpdateStatusByHash(
	_ context.Context,
	hash string,
	status domain.PaymentStatus,
	reason string,
	at time.Time,
) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.payments) - 1; i >= 0; i-- {
		p := &r.payments[i]
		if p.PaymentHash != hash || !p.Settleable(status) {
			continue
		}
		p.Status = status
		p.FailureReason = reason
		settled := at
		p.SettledAt = &settled
		out := *p
		return &out, nil
	}
	return nil, nil
}

// ListByChannel returns a channel's payments, newest first.
func (r *PaymentRepo) ListByChannel(_ context.Context, channelID domain.ChannelID, limit int) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Payment{}
	for i := len(r.payments) - 1; i >= 0 && len(out) < limit; i-- {
		if r.payments[i].ChannelID == channelID {
			out = append(out, r.payments[i])
		}
	}
	return out, nil
}
