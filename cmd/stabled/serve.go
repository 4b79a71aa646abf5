package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stable-channels/config"
	"stable-channels/internal/adapter/http/handler"
	"stable-channels/internal/adapter/http/middleware"
	"stable-channels/internal/adapter/lnd"
	"stable-channels/internal/adapter/pricefeed"
	"stable-channels/internal/adapter/storage/memory"
	pgStorage "stable-channels/internal/adapter/storage/postgres"
	redisStorage "stable-channels/internal/adapter/storage/redis"
	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/internal/service"
	"stable-channels/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	openAPIPath     = "docs/api/openapi.yaml"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the peg engine and the operator API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

// stores is the persistence selected by configuration.
type stores struct {
	designations ports.DesignationRepository
	payments     ports.PaymentRepository
	rates        ports.RateCache
	checkers     []ports.HealthChecker
	closers      []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects PostgreSQL and Redis when enabled and falls back to
// process memory otherwise.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{}

	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			s.close()
			return nil, err
		}
		s.designations = pgStorage.NewDesignationRepo(pool)
		s.payments = pgStorage.NewPaymentRepo(pool)
		s.checkers = append(s.checkers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL connected")
	} else {
		s.designations = memory.NewDesignationRepo()
		s.payments = memory.NewPaymentRepo()
		log.Warn().Msg("database disabled, designations are not persisted across restarts")
	}

	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		s.rates = redisStorage.NewRateCache(rdb)
		s.checkers = append(s.checkers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	} else {
		s.rates = memory.NewRateCache()
	}

	return s, nil
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("version", version).
		Str("lnd", cfg.LND.Host).
		Strs("feeds", cfg.Price.Feeds).
		Msg("Starting stabled")

	engineCfg, err := engineConfig(cfg.Peg)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	node, err := lnd.Dial(cfg.LND, log)
	if err != nil {
		return err
	}
	defer node.Close()

	feeds, err := pricefeed.FeedsByName(cfg.Price.Feeds, &http.Client{Timeout: cfg.Price.Timeout})
	if err != nil {
		return err
	}
	prices := pricefeed.NewService(feeds, st.rates, pricefeed.Config{
		TTL:              cfg.Redis.RateTTL,
		MinFetchInterval: cfg.Price.MinFetchInterval,
		Timeout:          cfg.Price.Timeout,
	}, log)

	engine := service.NewPegEngine(node, prices, st.designations, st.payments, engineCfg, log)
	if err := engine.Restore(ctx); err != nil {
		return err
	}

	var tokenSvc ports.TokenService
	if cfg.JWT.Secret != "" {
		tokenSvc = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	}

	if specBytes, err := os.ReadFile(openAPIPath); err == nil {
		handler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Debug().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := handler.SetupRouter(handler.RouterDeps{
		PegSvc:         engine,
		TokenSvc:       tokenSvc,
		Limiters:       middleware.NewLimiters(),
		HealthCheckers: append([]ports.HealthChecker{node}, st.checkers...),
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return node.Subscribe(ctx) })
	eg.Go(func() error { return engine.Run(ctx) })
	eg.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("stabled stopped")
	return nil
}

// engineConfig maps the peg section onto the engine's policy types.
func engineConfig(cfg config.PegConfig) (service.EngineConfig, error) {
	out := service.EngineConfig{
		Interval:    cfg.Interval,
		PassTimeout: cfg.PassTimeout,
		Policy: domain.PegPolicy{
			StabilityThresholdPct: decimal.NewFromFloat(cfg.StabilityThresholdPct),
			RiskSuspendThreshold:  cfg.RiskSuspendThreshold,
		},
		RiskPenalty: cfg.RiskPenalty,
	}
	if !cfg.AutoDesignate.Enabled {
		return out, nil
	}

	role, err := domain.ParseRole(cfg.AutoDesignate.Role)
	if err != nil {
		return service.EngineConfig{}, fmt.Errorf("peg.auto_designate.role: %w", err)
	}
	out.AutoDesignate = service.AutoDesignatePolicy{Enabled: true, Role: role}

	if s := strings.TrimSpace(cfg.AutoDesignate.ExpectedFiat); s != "" {
		f, err := domain.ParseFiatAmount(s)
		if err != nil {
			return service.EngineConfig{}, fmt.Errorf("peg.auto_designate.expected_fiat: %w", err)
		}
		if f.IsNegative() {
			return service.EngineConfig{}, fmt.Errorf("peg.auto_designate.expected_fiat must not be negative")
		}
		out.AutoDesignate.ExpectedFiat = f
	}
	return out, nil
}
