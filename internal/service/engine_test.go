package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stable-channels/internal/adapter/storage/memory"
	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineTestDeps struct {
	engine       *PegEngine
	runtime      *fakeRuntime
	prices       *fixedPrices
	designations *memory.DesignationRepo
	payments     *memory.PaymentRepo
	peer         domain.NodeID
	channelID    domain.ChannelID
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		Interval:    time.Hour,
		PassTimeout: 5 * time.Second,
		Policy:      domain.DefaultPegPolicy(),
		RiskPenalty: 10,
	}
}

// setupEngine wires an engine to one ready channel where we hold ourSat of 100,000.
func setupEngine(t *testing.T, ourSat domain.NativeAmount, cfg EngineConfig) *engineTestDeps {
	t.Helper()
	d := &engineTestDeps{
		peer:         testNodeID(t, "11"),
		channelID:    testChannelID(0xab),
		prices:       &fixedPrices{rate: rate50k},
		designations: memory.NewDesignationRepo(),
		payments:     memory.NewPaymentRepo(),
	}
	d.runtime = newFakeRuntime(snapshot(d.channelID, d.peer, 100_000, ourSat))
	d.engine = NewPegEngine(d.runtime, d.prices, d.designations, d.payments, cfg, zerolog.Nop())
	return d
}

func (d *engineTestDeps) designate(t *testing.T, role domain.Role, expected string) *domain.PeggedChannelView {
	t.Helper()
	v, err := d.engine.Designate(context.Background(), ports.DesignateRequest{
		ChannelID:    d.channelID.String(),
		Role:         role,
		ExpectedFiat: usd(expected),
	})
	require.NoError(t, err)
	return v
}

func TestEngine_Designate(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())

	v := d.designate(t, domain.RoleStableReceiver, "10.00")

	assert.Equal(t, d.channelID, v.ChannelID)
	assert.Equal(t, d.peer, v.Counterparty)
	assert.Equal(t, domain.NativeAmount(25_000), v.ReceiverNative)
	assert.Equal(t, domain.NativeAmount(20_000), v.ExpectedNative, "derived from expected fiat at the current rate")
	assert.Equal(t, "12.50", v.ReceiverFiat.String())
	assert.Equal(t, domain.DecisionPay, v.LastPass.Kind, "initial decision is reported")
	assert.Equal(t, 0, d.runtime.sentCount(), "designation never pays")

	list, err := d.designations.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.RoleStableReceiver, list[0].Role)
	assert.Equal(t, "10.00", list[0].ExpectedFiat.String())
}

func TestEngine_Designate_AdoptsOnlyChannel(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())

	v, err := d.engine.Designate(context.Background(), ports.DesignateRequest{
		Role:         domain.RoleStableProvider,
		ExpectedFiat: usd("37.50"),
	})

	require.NoError(t, err)
	assert.Equal(t, d.channelID, v.ChannelID)
	assert.Equal(t, domain.NativeAmount(75_000), v.ReceiverNative)
}

func TestEngine_Designate_AdoptedChannelRedesignates(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	v, err := d.engine.Designate(context.Background(), ports.DesignateRequest{
		Role:         domain.RoleStableReceiver,
		ExpectedFiat: usd("12.50"),
	})

	require.NoError(t, err)
	assert.Equal(t, d.channelID, v.ChannelID)
	assert.Equal(t, "12.50", v.ExpectedFiat.String())
	assert.Len(t, d.engine.ListStates(), 1)

	_, err = d.engine.Designate(context.Background(), ports.DesignateRequest{
		Role:         domain.RoleStableProvider,
		ExpectedFiat: usd("10"),
	})
	assertAppError(t, err, apperror.CodeAlreadyDesignated)
}

func TestEngine_Designate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		req   func(d *engineTestDeps) ports.DesignateRequest
		setup func(d *engineTestDeps)
		code  string
	}{
		{
			name: "malformed channel id",
			req: func(d *engineTestDeps) ports.DesignateRequest {
				return ports.DesignateRequest{ChannelID: "xyz", Role: domain.RoleStableReceiver, ExpectedFiat: usd("10")}
			},
			code: apperror.CodeParse,
		},
		{
			name: "unknown channel",
			req: func(d *engineTestDeps) ports.DesignateRequest {
				return ports.DesignateRequest{ChannelID: testChannelID(1).String(), Role: domain.RoleStableReceiver, ExpectedFiat: usd("10")}
			},
			code: apperror.CodeChannelNotFound,
		},
		{
			name: "non-positive target",
			req: func(d *engineTestDeps) ports.DesignateRequest {
				return ports.DesignateRequest{ChannelID: d.channelID.String(), Role: domain.RoleStableReceiver, ExpectedFiat: usd("0")}
			},
			code: apperror.CodeInvalidDesignation,
		},
		{
			name: "unknown role",
			req: func(d *engineTestDeps) ports.DesignateRequest {
				return ports.DesignateRequest{ChannelID: d.channelID.String(), Role: "LSP", ExpectedFiat: usd("10")}
			},
			code: apperror.CodeInvalidDesignation,
		},
		{
			name: "no exchange rate",
			req: func(d *engineTestDeps) ports.DesignateRequest {
				return ports.DesignateRequest{ChannelID: d.channelID.String(), Role: domain.RoleStableReceiver, ExpectedFiat: usd("10")}
			},
			setup: func(d *engineTestDeps) {
				d.prices.set(domain.ExchangeRate{})
				d.prices.err = errors.New("feeds down")
			},
			code: apperror.CodeRateUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupEngine(t, 25_000, testEngineConfig())
			if tt.setup != nil {
				tt.setup(d)
			}

			_, err := d.engine.Designate(context.Background(), tt.req(d))

			assertAppError(t, err, tt.code)
			assert.Empty(t, d.engine.ListStates())
			list, _ := d.designations.List(context.Background())
			assert.Empty(t, list, "failed designation persists nothing")
		})
	}
}

func TestEngine_Redesignate(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	v := d.designate(t, domain.RoleStableReceiver, "12.50")
	assert.Equal(t, "12.50", v.ExpectedFiat.String())
	assert.Equal(t, domain.NativeAmount(25_000), v.ReceiverNative, "balances kept")

	_, err := d.engine.Designate(context.Background(), ports.DesignateRequest{
		ChannelID:    d.channelID.String(),
		Role:         domain.RoleStableProvider,
		ExpectedFiat: usd("10"),
	})
	assertAppError(t, err, apperror.CodeAlreadyDesignated)

	v, err = d.engine.ForceReconcile(context.Background(), d.channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionStable, v.LastPass.Kind)
}

func TestEngine_ForceReconcile_PaysScenarioAmount(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	v, err := d.engine.ForceReconcile(context.Background(), d.channelID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, v.LastPass.State)
	assert.Equal(t, domain.DecisionPay, v.LastPass.Kind)
	assert.Contains(t, v.LastPass.Status, "25.00%")
	assert.Empty(t, v.LastPass.Error)
	assert.True(t, v.PaymentMade)

	require.Equal(t, 1, d.runtime.sentCount())
	assert.Equal(t, uint64(5_000_000), d.runtime.sent[0])

	payments, err := d.engine.ListPayments(context.Background(), d.channelID, 0)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusPending, payments[0].Status)
}

func TestEngine_ProviderWaitsWhenReceiverAbove(t *testing.T) {
	// We are the provider holding 75,000; the receiver holds 25,000 ($12.50).
	d := setupEngine(t, 75_000, testEngineConfig())
	d.designate(t, domain.RoleStableProvider, "10.00")

	v, err := d.engine.ForceReconcile(context.Background(), d.channelID)

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionWait, v.LastPass.Kind)
	assert.Equal(t, 0, d.runtime.sentCount())
}

func TestEngine_RiskSuspendScenario(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	ctx := context.Background()
	require.NoError(t, d.designations.Upsert(ctx, &domain.Designation{
		ChannelID:    d.channelID,
		Counterparty: d.peer,
		Role:         domain.RoleStableReceiver,
		ExpectedFiat: usd("10.00"),
		RiskLevel:    150,
	}))
	require.NoError(t, d.engine.Restore(ctx))

	v, err := d.engine.ForceReconcile(ctx, d.channelID)

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionSuspended, v.LastPass.Kind)
	assert.Contains(t, v.LastPass.Status, "150")
	assert.Equal(t, 0, d.runtime.sentCount())

	v, err = d.engine.ResetRisk(ctx, d.channelID)
	require.NoError(t, err)
	assert.Zero(t, v.RiskLevel)

	list, _ := d.designations.List(ctx)
	assert.Zero(t, list[0].RiskLevel, "reset is persisted")

	v, err = d.engine.ForceReconcile(ctx, d.channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionPay, v.LastPass.Kind)
}

func TestEngine_RateUnavailableSkipsPass(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	before := d.designate(t, domain.RoleStableReceiver, "10.00")

	d.prices.set(domain.ExchangeRate{})
	d.prices.err = errors.New("feeds down")
	d.runtime.setChannels(snapshot(d.channelID, d.peer, 100_000, 90_000))

	v, err := d.engine.ForceReconcile(context.Background(), d.channelID)

	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, v.LastPass.State)
	assert.Equal(t, apperror.CodeRateUnavailable, v.LastPass.ErrorCode)
	assert.Contains(t, v.LastPass.Status, "RATE_002")
	assert.Equal(t, before.ReceiverNative, v.ReceiverNative, "balances untouched")
	assert.Equal(t, before.LastReconciledAt, v.LastReconciledAt)
	assert.Equal(t, 0, d.runtime.sentCount())
}

func TestEngine_ChannelGoneIsReportedNotFatal(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")
	d.runtime.setChannels()

	v, err := d.engine.ForceReconcile(context.Background(), d.channelID)

	require.NoError(t, err)
	assert.Equal(t, apperror.CodeChannelNotFound, v.LastPass.ErrorCode)
	assert.Equal(t, domain.NativeAmount(25_000), v.ReceiverNative)
}

func TestEngine_SendFailureRaisesRisk(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")
	d.runtime.sendErr = errors.New("no route")

	v, err := d.engine.ForceReconcile(context.Background(), d.channelID)

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionPay, v.LastPass.Kind)
	assert.Equal(t, apperror.CodePaymentSendFailed, v.LastPass.ErrorCode)
	assert.Contains(t, v.LastPass.Status, "failed")
	assert.Equal(t, 10, v.RiskLevel)
	assert.False(t, v.PaymentMade)

	list, _ := d.designations.List(context.Background())
	assert.Equal(t, 10, list[0].RiskLevel, "risk persisted")
}

func TestEngine_TriggerDroppedWhilePassInFlight(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	gate := make(chan struct{})
	started := make(chan struct{})
	d.runtime.mu.Lock()
	d.runtime.sendGate, d.runtime.sendStarted = gate, started
	d.runtime.mu.Unlock()

	done := make(chan *domain.PeggedChannelView)
	go func() {
		v, err := d.engine.ForceReconcile(context.Background(), d.channelID)
		assert.NoError(t, err)
		done <- v
	}()

	<-started

	// Readers see the in-flight state without blocking on the pass.
	v, err := d.engine.CurrentState(d.channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePaying, v.LastPass.State)

	_, err = d.engine.ForceReconcile(context.Background(), d.channelID)
	assertAppError(t, err, apperror.CodePassInFlight)
	assert.False(t, d.engine.Trigger(d.channelID, "tick"))

	close(gate)
	final := <-done
	assert.Equal(t, domain.StateIdle, final.LastPass.State)
	assert.Equal(t, 1, d.runtime.sentCount(), "dropped triggers never pay")
}

func TestEngine_PassSurvivesCallerCancellation(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := d.engine.ForceReconcile(ctx, d.channelID)

	require.NoError(t, err)
	assert.Empty(t, v.LastPass.Error)
	assert.Equal(t, 1, d.runtime.sentCount())
}

func TestEngine_Undesignate(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")
	ctx := context.Background()

	require.NoError(t, d.engine.Undesignate(ctx, d.channelID))

	_, err := d.engine.CurrentState(d.channelID)
	assertAppError(t, err, apperror.CodeNotDesignated)
	_, err = d.engine.ForceReconcile(ctx, d.channelID)
	assertAppError(t, err, apperror.CodeNotDesignated)
	assertAppError(t, d.engine.Undesignate(ctx, d.channelID), apperror.CodeNotDesignated)

	list, _ := d.designations.List(ctx)
	assert.Empty(t, list)
}

func TestEngine_HandleEvent_ChannelClosedRemovesRecord(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	d.engine.HandleEvent(context.Background(), domain.Event{Type: domain.EventChannelClosed, ChannelID: d.channelID})

	assert.Empty(t, d.engine.ListStates())
}

func TestEngine_HandleEvent_PaymentSettlement(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	ctx := context.Background()
	d.designate(t, domain.RoleStableReceiver, "10.00")
	_, err := d.engine.ForceReconcile(ctx, d.channelID)
	require.NoError(t, err)

	hash := strings.Repeat("ab", 32)
	d.engine.HandleEvent(ctx, domain.Event{Type: domain.EventPaymentFailed, PaymentHash: hash, Reason: "FAILURE_REASON_NO_ROUTE"})

	v, err := d.engine.CurrentState(d.channelID)
	require.NoError(t, err)
	assert.Equal(t, 10, v.RiskLevel)

	payments, err := d.engine.ListPayments(ctx, d.channelID, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domain.PaymentStatusFailed, payments[0].Status)
	assert.Equal(t, "FAILURE_REASON_NO_ROUTE", payments[0].FailureReason)

	// A second event for the same, now terminal, payment changes nothing.
	d.engine.HandleEvent(ctx, domain.Event{Type: domain.EventPaymentFailed, PaymentHash: hash})
	v, _ = d.engine.CurrentState(d.channelID)
	assert.Equal(t, 10, v.RiskLevel)
}

func TestEngine_HandleEvent_AutoDesignate(t *testing.T) {
	cfg := testEngineConfig()
	cfg.AutoDesignate = AutoDesignatePolicy{Enabled: true, Role: domain.RoleStableProvider}
	d := setupEngine(t, 80_000, cfg)

	d.engine.HandleEvent(context.Background(), domain.Event{Type: domain.EventChannelReady, ChannelID: d.channelID})

	v, err := d.engine.CurrentState(d.channelID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStableProvider, v.Role)
	assert.Equal(t, "10.00", v.ExpectedFiat.String(), "pegged at the receiver's value at open")
	assert.Equal(t, domain.DecisionStable, v.LastPass.Kind)
}

func TestEngine_HandleEvent_ReadyWithoutAutoDesignate(t *testing.T) {
	d := setupEngine(t, 80_000, testEngineConfig())

	d.engine.HandleEvent(context.Background(), domain.Event{Type: domain.EventChannelReady, ChannelID: d.channelID})

	assert.Empty(t, d.engine.ListStates())
}

func TestEngine_RestoreKeepsUnmatchedEntries(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	ctx := context.Background()
	missing := testChannelID(0x01)
	require.NoError(t, d.designations.Upsert(ctx, &domain.Designation{ChannelID: missing, Role: domain.RoleStableReceiver, ExpectedFiat: usd("5")}))
	require.NoError(t, d.designations.Upsert(ctx, &domain.Designation{ChannelID: testChannelID(0x02), Role: "BOGUS"}))

	require.NoError(t, d.engine.Restore(ctx))

	states := d.engine.ListStates()
	require.Len(t, states, 1)
	assert.Equal(t, missing, states[0].ChannelID)

	v, err := d.engine.ForceReconcile(ctx, missing)
	require.NoError(t, err)
	assert.Equal(t, apperror.CodeChannelNotFound, v.LastPass.ErrorCode)

	d.runtime.setChannels(snapshot(missing, d.peer, 100_000, 10_000))
	v, err = d.engine.ForceReconcile(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, v.LastPass.Error)
	assert.Equal(t, d.peer, v.Counterparty, "counterparty discovered on rebind")
}

func TestEngine_Run_ProcessesEventsAndStops(t *testing.T) {
	d := setupEngine(t, 25_000, testEngineConfig())
	d.designate(t, domain.RoleStableReceiver, "10.00")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.engine.Run(ctx) }()

	d.runtime.events <- domain.Event{Type: domain.EventPaymentReceived, ChannelID: d.channelID}
	select {
	case <-d.runtime.acked:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not acknowledged")
	}

	require.Eventually(t, func() bool { return d.runtime.sentCount() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"startup pass pays the deviation")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}
