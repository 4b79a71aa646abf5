package ports

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

import (
	"context"
	"time"

	"stable-channels/internal/core/domain"
)

// TokenService handles operator JWT operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// --- Service Ports (Business Logic) ---

// PegService is the operator surface of the peg engine.
type PegService interface {
	// Designate pegs a live channel, or re-targets one already pegged.
	Designate(ctx context.Context, req DesignateRequest) (*domain.PeggedChannelView, error)
	// Undesignate stops pegging and removes the persisted designation.
	Undesignate(ctx context.Context, channelID domain.ChannelID) error
	CurrentState(channelID domain.ChannelID) (*domain.PeggedChannelView, error)
	ListStates() []*domain.PeggedChannelView
	// ForceReconcile runs a pass now and returns the resulting view.
	ForceReconcile(ctx context.Context, channelID domain.ChannelID) (*domain.PeggedChannelView, error)
	ResetRisk(ctx context.Context, channelID domain.ChannelID) (*domain.PeggedChannelView, error)
	ListPayments(ctx context.Context, channelID domain.ChannelID, limit int) ([]domain.Payment, error)
}

// DesignateRequest holds validated input for designation.
type DesignateRequest struct {
	ChannelID    string // Raw id, parsed by the service
	Role         domain.Role
	ExpectedFiat domain.FiatAmount
	// ExpectedNative defaults to ExpectedFiat at the current rate when zero.
	ExpectedNative domain.NativeAmount
}
