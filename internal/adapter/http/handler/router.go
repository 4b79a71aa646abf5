package handler

import (
	"stable-channels/internal/adapter/http/middleware"
	"stable-channels/internal/core/ports"
	"stable-channels/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PegSvc         ports.PegService
	TokenSvc       ports.TokenService   // nil = API auth disabled
	Limiters       *middleware.Limiters // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode, defaults to release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.MaxBodySize(1 << 16))

	// Health check (deep, pings every dependency)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.Limiters == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.Limiters, group, rules[group], deps.Logger)
	}

	v1 := r.Group("/api/v1")
	if deps.TokenSvc != nil {
		v1.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	} else {
		deps.Logger.Warn().Msg("operator API running without authentication")
	}
	v1.Use(middleware.AuditLog(deps.Logger))

	channelHandler := NewChannelHandler(deps.PegSvc)
	channels := v1.Group("/channels")
	{
		channels.POST("", rl("write"), channelHandler.Designate)
		channels.GET("", rl("read"), channelHandler.List)
		channels.GET("/:id", rl("read"), channelHandler.Get)
		channels.DELETE("/:id", rl("write"), channelHandler.Undesignate)
		channels.POST("/:id/reconcile", rl("reconcile"), channelHandler.Reconcile)
		channels.POST("/:id/risk/reset", rl("write"), channelHandler.ResetRisk)
		channels.GET("/:id/payments", rl("read"), channelHandler.ListPayments)
	}

	return r
}
