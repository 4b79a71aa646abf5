package service

import (
	"context"
	"fmt"
	"strings"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/internal/metrics"
	"stable-channels/pkg/apperror"
)

const (
	defaultPaymentLimit = 50
	maxPaymentLimit     = 500
)

var _ ports.PegService = (*PegEngine)(nil)

// Designate pegs a live channel. An empty channel id adopts the node's only
// channel. Designating an already pegged channel with the same role replaces
// its target and keeps balances and risk.
func (g *PegEngine) Designate(ctx context.Context, req ports.DesignateRequest) (*domain.PeggedChannelView, error) {
	if !req.Role.IsValid() {
		return nil, apperror.ErrInvalidDesignation(fmt.Sprintf("unknown role %q", req.Role))
	}
	if !req.ExpectedFiat.IsPositive() {
		return nil, apperror.ErrInvalidDesignation("expected_fiat must be positive")
	}

	var id domain.ChannelID
	if strings.TrimSpace(req.ChannelID) != "" {
		parsed, err := domain.ParseChannelID(req.ChannelID)
		if err != nil {
			return nil, err
		}
		id = parsed
	}

	g.designateMu.Lock()
	defer g.designateMu.Unlock()

	if id.IsZero() {
		adopted, err := g.adoptChannel(ctx)
		if err != nil {
			return nil, err
		}
		id = adopted
	}

	if e := g.lookup(id); e != nil {
		return g.redesignate(ctx, e, req)
	}
	return g.create(ctx, id, req.Role, req.ExpectedFiat, req.ExpectedNative)
}

// adoptChannel resolves an empty channel id to the node's only channel.
func (g *PegEngine) adoptChannel(ctx context.Context) (domain.ChannelID, error) {
	channels, err := g.runtime.ListChannels(ctx)
	if err != nil {
		return domain.ChannelID{}, apperror.InternalError(fmt.Errorf("listing channels: %w", err))
	}
	snap, err := selectChannel(channels)
	if err != nil {
		return domain.ChannelID{}, err
	}
	return snap.ChannelID, nil
}

func (g *PegEngine) redesignate(ctx context.Context, e *entry, req ports.DesignateRequest) (*domain.PeggedChannelView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pc := e.pc
	if pc.Role != req.Role {
		return nil, apperror.ErrAlreadyDesignated(pc.ChannelID.String())
	}

	expectedNative := req.ExpectedNative
	if expectedNative == 0 {
		rate := pc.LatestRate
		if !rate.IsValid() {
			r, err := g.currentRate(ctx)
			if err != nil {
				return nil, err
			}
			rate = r
		}
		n, err := domain.ToNativeSubunit(req.ExpectedFiat, rate)
		if err != nil {
			return nil, err
		}
		expectedNative = n
	}

	// Persist before mutating so a storage failure leaves the record untouched.
	d := pc.Designation()
	d.ExpectedFiat = req.ExpectedFiat
	d.ExpectedNative = expectedNative
	d.UpdatedAt = g.now().UTC()
	if err := g.designations.Upsert(ctx, &d); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persisting designation: %w", err))
	}

	pc.Redesignate(req.ExpectedFiat, expectedNative)
	e.publish()

	g.log.Info().
		Str("channel_id", pc.ChannelID.String()).
		Str("expected_fiat", req.ExpectedFiat.String()).
		Msg("channel re-designated")
	return e.view.Load(), nil
}

// create builds, reconciles and persists a new record. A zero expected
// target pegs at the receiver's current value. Must hold designateMu.
func (g *PegEngine) create(
	ctx context.Context,
	id domain.ChannelID,
	role domain.Role,
	expected domain.FiatAmount,
	expectedNative domain.NativeAmount,
) (*domain.PeggedChannelView, error) {
	channels, err := g.runtime.ListChannels(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("listing channels: %w", err))
	}
	if !id.IsZero() {
		if _, ok := domain.FindChannel(channels, id); !ok {
			return nil, apperror.ErrChannelNotFound(id.String())
		}
	}

	rate, err := g.currentRate(ctx)
	if err != nil {
		return nil, err
	}

	pc := domain.NewPeggedChannel(domain.Designation{ChannelID: id, Role: role, ExpectedFiat: expected})
	if err := Reconcile(pc, channels, rate, g.now().UTC()); err != nil {
		return nil, err
	}
	if g.lookup(pc.ChannelID) != nil {
		return nil, apperror.ErrAlreadyDesignated(pc.ChannelID.String())
	}

	if pc.ExpectedFiat.IsZero() {
		if !pc.ReceiverFiat.IsPositive() {
			return nil, apperror.ErrInvalidDesignation("cannot peg an empty receiver balance")
		}
		pc.ExpectedFiat = pc.ReceiverFiat
	}
	if expectedNative == 0 {
		n, err := domain.ToNativeSubunit(pc.ExpectedFiat, rate)
		if err != nil {
			return nil, err
		}
		expectedNative = n
	}
	pc.ExpectedNative = expectedNative

	d := pc.Designation()
	d.CreatedAt = g.now().UTC()
	d.UpdatedAt = d.CreatedAt
	if err := g.designations.Upsert(ctx, &d); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persisting designation: %w", err))
	}

	e := newEntry(pc)
	decision := domain.Decide(pc, g.cfg.Policy)
	e.last = domain.PassOutcome{
		State:        domain.StateIdle,
		Kind:         decision.Kind,
		DeviationPct: decision.DeviationPct,
		Status:       decision.Status(),
		At:           g.now().UTC(),
	}
	e.publish()

	g.mu.Lock()
	g.entries[pc.ChannelID] = e
	metrics.ActiveChannels.Set(float64(len(g.entries)))
	g.mu.Unlock()

	g.log.Info().
		Str("channel_id", pc.ChannelID.String()).
		Str("counterparty", pc.Counterparty.String()).
		Str("role", string(pc.Role)).
		Str("expected_fiat", pc.ExpectedFiat.String()).
		Uint64("expected_native_sat", uint64(pc.ExpectedNative)).
		Msg("channel designated")

	return e.view.Load(), nil
}

// autoDesignate pegs a newly ready channel with the configured policy.
func (g *PegEngine) autoDesignate(ctx context.Context, id domain.ChannelID) (*domain.PeggedChannelView, error) {
	g.designateMu.Lock()
	defer g.designateMu.Unlock()

	if g.lookup(id) != nil {
		return nil, apperror.ErrAlreadyDesignated(id.String())
	}
	policy := g.cfg.AutoDesignate
	return g.create(ctx, id, policy.Role, policy.ExpectedFiat, 0)
}

// Undesignate stops pegging a channel and deletes its designation. It waits
// for an in-flight pass to finish.
func (g *PegEngine) Undesignate(ctx context.Context, channelID domain.ChannelID) error {
	g.designateMu.Lock()
	defer g.designateMu.Unlock()

	e := g.lookup(channelID)
	if e == nil {
		return apperror.ErrNotDesignated(channelID.String())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := g.designations.Delete(ctx, channelID); err != nil {
		return apperror.InternalError(fmt.Errorf("deleting designation: %w", err))
	}
	e.removed = true

	g.mu.Lock()
	delete(g.entries, channelID)
	metrics.ActiveChannels.Set(float64(len(g.entries)))
	g.mu.Unlock()
	metrics.DeviationPct.DeleteLabelValues(channelID.String())

	g.log.Info().Str("channel_id", channelID.String()).Msg("channel undesignated")
	return nil
}

// CurrentState returns the last published view of a pegged channel.
func (g *PegEngine) CurrentState(channelID domain.ChannelID) (*domain.PeggedChannelView, error) {
	e := g.lookup(channelID)
	if e == nil {
		return nil, apperror.ErrNotDesignated(channelID.String())
	}
	return e.view.Load(), nil
}

// ListStates returns the published view of every pegged channel.
func (g *PegEngine) ListStates() []*domain.PeggedChannelView {
	entries := g.snapshotEntries()
	out := make([]*domain.PeggedChannelView, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.view.Load())
	}
	return out
}

// ForceReconcile runs a pass in the caller's goroutine.
func (g *PegEngine) ForceReconcile(ctx context.Context, channelID domain.ChannelID) (*domain.PeggedChannelView, error) {
	e := g.lookup(channelID)
	if e == nil {
		return nil, apperror.ErrNotDesignated(channelID.String())
	}
	return g.runPass(ctx, e, "manual")
}

// ResetRisk clears a channel's risk level, lifting a suspension. It waits for
// an in-flight pass.
func (g *PegEngine) ResetRisk(ctx context.Context, channelID domain.ChannelID) (*domain.PeggedChannelView, error) {
	e := g.lookup(channelID)
	if e == nil {
		return nil, apperror.ErrNotDesignated(channelID.String())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return nil, apperror.ErrNotDesignated(channelID.String())
	}

	d := e.pc.Designation()
	d.RiskLevel = 0
	d.UpdatedAt = g.now().UTC()
	if err := g.designations.Upsert(ctx, &d); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persisting designation: %w", err))
	}

	prev := e.pc.RiskLevel
	e.pc.ResetRisk()
	e.publish()

	g.log.Info().Str("channel_id", channelID.String()).Int("previous_risk", prev).Msg("risk level reset")
	return e.view.Load(), nil
}

// ListPayments returns the ledger for a channel, newest first. History is
// kept after a channel is undesignated.
func (g *PegEngine) ListPayments(ctx context.Context, channelID domain.ChannelID, limit int) ([]domain.Payment, error) {
	if g.payments == nil {
		return []domain.Payment{}, nil
	}
	if limit <= 0 {
		limit = defaultPaymentLimit
	}
	limit = min(limit, maxPaymentLimit)

	payments, err := g.payments.ListByChannel(ctx, channelID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("listing payments: %w", err))
	}
	return payments, nil
}
