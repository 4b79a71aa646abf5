package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/internal/metrics"
	"stable-channels/pkg/apperror"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	triggerBuffer     = 64
	eventBackoffStart = 500 * time.Millisecond
	eventBackoffMax   = 30 * time.Second
)

// AutoDesignatePolicy controls pegging of channels that become ready undesignated.
type AutoDesignatePolicy struct {
	Enabled bool
	Role    domain.Role
	// ExpectedFiat zero means peg at the receiver's value when the channel opens.
	ExpectedFiat domain.FiatAmount
}

// EngineConfig holds the loop cadence and decision policy.
type EngineConfig struct {
	Interval      time.Duration
	PassTimeout   time.Duration
	Policy        domain.PegPolicy
	RiskPenalty   int
	AutoDesignate AutoDesignatePolicy
}

// entry is one pegged channel. mu is held for a whole pass and for operator
// mutations. busy is set while a pass is admitted so concurrent triggers are
// dropped instead of queued. Readers only load view.
type entry struct {
	mu      sync.Mutex
	busy    atomic.Bool
	pc      *domain.PeggedChannel
	last    domain.PassOutcome
	removed bool
	view    atomic.Pointer[domain.PeggedChannelView]
}

func newEntry(pc *domain.PeggedChannel) *entry {
	e := &entry{pc: pc, last: domain.PassOutcome{State: domain.StateIdle}}
	e.publish()
	return e
}

// publish must be called with mu held (or before the entry is shared).
func (e *entry) publish() {
	e.view.Store(e.pc.View(e.last))
}

func (e *entry) setState(s domain.PassState) {
	e.last.State = s
	e.publish()
}

type trigger struct {
	channelID domain.ChannelID
	source    string
}

// PegEngine runs reconciliation passes for every pegged channel.
type PegEngine struct {
	runtime      ports.ChannelRuntime
	prices       ports.PriceService
	designations ports.DesignationRepository
	payments     ports.PaymentRepository
	executor     *PaymentExecutor
	cfg          EngineConfig
	log          zerolog.Logger
	now          func() time.Time

	// designateMu serialises creation and removal of entries.
	designateMu sync.Mutex

	mu       sync.RWMutex
	entries  map[domain.ChannelID]*entry
	triggers chan trigger
}

// NewPegEngine creates a new PegEngine. payments may be nil.
func NewPegEngine(
	runtime ports.ChannelRuntime,
	prices ports.PriceService,
	designations ports.DesignationRepository,
	payments ports.PaymentRepository,
	cfg EngineConfig,
	log zerolog.Logger,
) *PegEngine {
	return &PegEngine{
		runtime:      runtime,
		prices:       prices,
		designations: designations,
		payments:     payments,
		executor:     NewPaymentExecutor(runtime, payments, cfg.RiskPenalty, log),
		cfg:          cfg,
		log:          log,
		now:          time.Now,
		entries:      make(map[domain.ChannelID]*entry),
		triggers:     make(chan trigger, triggerBuffer),
	}
}

// Restore loads persisted designations. Entries whose channel is gone are kept
// and simply fail to reconcile until it reappears.
func (g *PegEngine) Restore(ctx context.Context) error {
	list, err := g.designations.List(ctx)
	if err != nil {
		return fmt.Errorf("loading designations: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range list {
		d := list[i]
		if d.ChannelID.IsZero() || !d.Role.IsValid() {
			g.log.Warn().Str("channel_id", d.ChannelID.String()).Str("role", string(d.Role)).
				Msg("skipping invalid persisted designation")
			continue
		}
		g.entries[d.ChannelID] = newEntry(domain.NewPeggedChannel(d))
	}
	metrics.ActiveChannels.Set(float64(len(g.entries)))

	g.log.Info().Int("count", len(g.entries)).Msg("designations restored")
	return nil
}

// Run drives the ticker worker and the event pump until ctx is cancelled.
func (g *PegEngine) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return g.worker(ctx) })
	eg.Go(func() error { return g.pumpEvents(ctx) })
	return eg.Wait()
}

func (g *PegEngine) worker(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	g.log.Info().Dur("interval", g.cfg.Interval).Msg("peg worker started")
	g.passAll(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			g.log.Info().Msg("peg worker stopped")
			return nil
		case <-ticker.C:
			g.passAll(ctx, "tick")
		case t := <-g.triggers:
			if e := g.lookup(t.channelID); e != nil {
				_, _ = g.runPass(ctx, e, t.source)
			}
		}
	}
}

func (g *PegEngine) passAll(ctx context.Context, source string) {
	for _, e := range g.snapshotEntries() {
		if ctx.Err() != nil {
			return
		}
		_, _ = g.runPass(ctx, e, source)
	}
}

// Trigger schedules a pass on the worker. It returns false when the trigger
// was dropped because a pass is in flight or the queue is full.
func (g *PegEngine) Trigger(channelID domain.ChannelID, source string) bool {
	e := g.lookup(channelID)
	if e == nil {
		return false
	}
	if e.busy.Load() {
		metrics.DroppedTriggers.WithLabelValues(source).Inc()
		return false
	}
	select {
	case g.triggers <- trigger{channelID: channelID, source: source}:
		return true
	default:
		metrics.DroppedTriggers.WithLabelValues(source).Inc()
		return false
	}
}

// runPass admits and runs one pass for e. The returned error is about
// admission only; pass failures are reported in the view.
func (g *PegEngine) runPass(ctx context.Context, e *entry, source string) (*domain.PeggedChannelView, error) {
	if !e.busy.CompareAndSwap(false, true) {
		metrics.DroppedTriggers.WithLabelValues(source).Inc()
		return nil, apperror.ErrPassInFlight(e.view.Load().ChannelID.String())
	}
	defer e.busy.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, apperror.ErrNotDesignated(e.pc.ChannelID.String())
	}

	// Passes always run to completion; only the pass timeout bounds them.
	passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.PassTimeout)
	defer cancel()

	start := g.now()
	d, err := g.pass(passCtx, e)
	g.finish(e, d, err, start, source)

	return e.view.Load(), nil
}

func (g *PegEngine) pass(ctx context.Context, e *entry) (*domain.Decision, error) {
	pc := e.pc
	e.setState(domain.StateReconciling)

	rate, err := g.currentRate(ctx)
	if err != nil {
		return nil, err
	}

	channels, err := g.runtime.ListChannels(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("listing channels: %w", err))
	}

	if err := Reconcile(pc, channels, rate, g.now().UTC()); err != nil {
		return nil, err
	}

	e.setState(domain.StateDeciding)
	d := domain.Decide(pc, g.cfg.Policy)
	if d.Kind != domain.DecisionUnreconciled {
		metrics.DeviationPct.WithLabelValues(pc.ChannelID.String()).Set(d.DeviationPct.InexactFloat64())
	}
	if d.Kind != domain.DecisionPay {
		return &d, nil
	}

	e.setState(domain.StatePaying)
	riskBefore := pc.RiskLevel
	_, err = g.executor.Execute(ctx, pc, d, channels)
	if pc.RiskLevel != riskBefore {
		g.persist(ctx, pc)
	}
	return &d, err
}

// currentRate prefers the cached rate and falls back to the network.
func (g *PegEngine) currentRate(ctx context.Context) (domain.ExchangeRate, error) {
	if r := g.prices.CachedRate(ctx); r.IsValid() {
		return r, nil
	}
	r, err := g.prices.FetchLatestRate(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("exchange rate fetch failed")
		return domain.ExchangeRate{}, apperror.ErrRateUnavailable()
	}
	if !r.IsValid() {
		return domain.ExchangeRate{}, apperror.ErrRateUnavailable()
	}
	return r, nil
}

func (g *PegEngine) finish(e *entry, d *domain.Decision, err error, start time.Time, source string) {
	out := domain.PassOutcome{State: domain.StateIdle, At: g.now().UTC()}
	label := "error"

	if d != nil {
		out.Kind = d.Kind
		out.DeviationPct = d.DeviationPct
		out.Status = d.Status()
		label = string(d.Kind)
	}
	if err != nil {
		out.Error = err.Error()
		out.ErrorCode = apperror.Code(err)
		if out.ErrorCode != "" {
			label = out.ErrorCode
		}
		if d != nil {
			out.Status = fmt.Sprintf("%s failed: %s", out.Status, err.Error())
		} else {
			out.Status = fmt.Sprintf("ERROR: %s (deviation n/a)", err.Error())
		}
	}

	e.last = out
	e.publish()

	metrics.PassesTotal.WithLabelValues(label).Inc()
	metrics.PassDuration.Observe(g.now().Sub(start).Seconds())

	ev := g.log.Info()
	if err != nil {
		ev = g.log.Warn().Err(err)
	}
	ev.Str("channel_id", e.pc.ChannelID.String()).
		Str("source", source).
		Str("outcome", label).
		Str("status", out.Status).
		Int("risk_level", e.pc.RiskLevel).
		Msg("pass complete")
}

// persist writes the record's designation, logging on failure.
func (g *PegEngine) persist(ctx context.Context, pc *domain.PeggedChannel) {
	d := pc.Designation()
	d.UpdatedAt = g.now().UTC()
	if err := g.designations.Upsert(ctx, &d); err != nil {
		g.log.Error().Err(err).Str("channel_id", pc.ChannelID.String()).Msg("failed to persist designation")
	}
}

func (g *PegEngine) lookup(id domain.ChannelID) *entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entries[id]
}

func (g *PegEngine) snapshotEntries() []*entry {
	g.mu.RLock()
	out := make([]*entry, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, e)
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].view.Load().ChannelID, out[j].view.Load().ChannelID
		return a.String() < b.String()
	})
	return out
}
