package service

import (
	"context"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/metrics"
)

// pumpEvents consumes runtime events until ctx is cancelled. Each event is
// acknowledged after it has been handled.
func (g *PegEngine) pumpEvents(ctx context.Context) error {
	backoff := eventBackoffStart
	for {
		ev, err := g.runtime.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			g.log.Warn().Err(err).Dur("retry_in", backoff).Msg("runtime event stream error")
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, eventBackoffMax)
			continue
		}
		backoff = eventBackoffStart

		metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()
		g.HandleEvent(ctx, ev)

		if err := g.runtime.EventHandled(ctx); err != nil && ctx.Err() == nil {
			g.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("failed to acknowledge event")
		}
	}
}

// HandleEvent applies one runtime event.
func (g *PegEngine) HandleEvent(ctx context.Context, ev domain.Event) {
	log := g.log.With().Str("event", string(ev.Type)).Str("channel_id", ev.ChannelID.String()).Logger()

	switch ev.Type {
	case domain.EventChannelReady:
		if g.lookup(ev.ChannelID) != nil {
			g.Trigger(ev.ChannelID, "channel_ready")
			return
		}
		if !g.cfg.AutoDesignate.Enabled || ev.ChannelID.IsZero() {
			log.Debug().Msg("ready channel is not pegged")
			return
		}
		if _, err := g.autoDesignate(ctx, ev.ChannelID); err != nil {
			log.Warn().Err(err).Msg("auto-designation failed")
		}

	case domain.EventPaymentReceived:
		if ev.ChannelID.IsZero() {
			for _, e := range g.snapshotEntries() {
				g.Trigger(e.view.Load().ChannelID, "payment_received")
			}
			return
		}
		g.Trigger(ev.ChannelID, "payment_received")

	case domain.EventChannelClosed:
		if err := g.Undesignate(ctx, ev.ChannelID); err != nil {
			log.Debug().Err(err).Msg("closed channel was not pegged")
			return
		}
		log.Info().Msg("pegged channel closed, designation removed")

	case domain.EventPaymentSucceeded:
		g.settlePayment(ctx, ev, domain.PaymentStatusSucceeded)

	case domain.EventPaymentFailed:
		p := g.settlePayment(ctx, ev, domain.PaymentStatusFailed)
		if p == nil {
			return
		}
		if e := g.lookup(p.ChannelID); e != nil {
			e.mu.Lock()
			if !e.removed {
				e.pc.AddRisk(g.cfg.RiskPenalty)
				g.persist(ctx, e.pc)
				e.publish()
			}
			e.mu.Unlock()
			log.Warn().Str("payment_hash", ev.PaymentHash).Str("reason", ev.Reason).Msg("corrective payment failed")
		}

	default:
		log.Debug().Msg("ignoring event")
	}
}

// settlePayment updates the ledger entry for ev.PaymentHash. It returns nil
// when there is no ledger or the payment is unknown.
func (g *PegEngine) settlePayment(ctx context.Context, ev domain.Event, status domain.PaymentStatus) *domain.Payment {
	metrics.PaymentsTotal.WithLabelValues(string(status)).Inc()
	if g.payments == nil || ev.PaymentHash == "" {
		return nil
	}
	p, err := g.payments.UpdateStatusByHash(ctx, ev.PaymentHash, status, ev.Reason, g.now().UTC())
	if err != nil {
		g.log.Error().Err(err).Str("payment_hash", ev.PaymentHash).Msg("failed to settle payment")
		return nil
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
