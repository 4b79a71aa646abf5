package ports

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

import (
	"context"
	"time"

	"stable-channels/internal/core/domain"
)

// DesignationRepository persists the set of pegged channels.
type DesignationRepository interface {
	// Upsert inserts or replaces the designation keyed by channel id.
	Upsert(ctx context.Context, d *domain.Designation) error
	List(ctx context.Context) ([]domain.Designation, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, channelID domain.ChannelID) error
}

// PaymentRepository is the ledger of corrective payments.
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	// UpdateStatusByHash settles a pending payment. Returns nil, nil for unknown hashes.
	UpdateStatusByHash(ctx context.Context, hash string, status domain.PaymentStatus, reason string, at time.Time) (*domain.Payment, error)
	// ListByChannel returns newest first.
	ListByChannel(ctx context.Context, channelID domain.ChannelID, limit int) ([]domain.Payment, error)
}
