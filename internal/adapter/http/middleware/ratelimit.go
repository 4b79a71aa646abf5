package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"stable-channels/pkg/apperror"
	"stable-channels/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimitRule defines a token bucket for an endpoint group.
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// DefaultRateLimitRules returns the limits per endpoint group.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		"read":      {Limit: 120, Window: time.Minute},
		"write":     {Limit: 30, Window: time.Minute},
		"reconcile": {Limit: 10, Window: time.Minute},
	}
}

// Limiters keeps one bucket per client and group in process memory.
type Limiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiters creates an empty limiter set.
func NewLimiters() *Limiters {
	return &Limiters{buckets: make(map[string]*rate.Limiter)}
}

func (l *Limiters) get(key string, rule RateLimitRule) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Limit)), rule.Limit)
		l.buckets[key] = b
	}
	return b
}

// RateLimiter rejects requests over the group's rule with 429.
func RateLimiter(limiters *Limiters, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		b := limiters.get(extractIdentifier(c)+":"+group, rule)
		r := b.Reserve()
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))

		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			retryAfter := int64(math.Ceil(delay.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			log.Warn().Str("group", group).Str("client_ip", c.ClientIP()).Msg("rate limit exceeded")
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.Header("X-RateLimit-Remaining", "0")
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(b.Tokens())))
		c.Next()
	}
}

// extractIdentifier keys by operator when authenticated, else by client IP.
func extractIdentifier(c *gin.Context) string {
	if op := c.GetString(CtxOperator); op != "" {
		return "op:" + op
	}
	return "ip:" + c.ClientIP()
}
