package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuditLog records successful operator write operations once the response is
// written. Reads are not audited.
func AuditLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		event := log.Info().
			Str("action", auditAction(c.Request.Method, c.FullPath())).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("request_id", c.GetString(CtxRequestID))
		if id := c.Param("id"); id != "" {
			event = event.Str("channel_id", id)
		}
		if op := c.GetString(CtxOperator); op != "" {
			event = event.Str("operator", op)
		}
		event.Msg("operator action")
	}
}

func auditAction(method, route string) string {
	switch {
	case method == http.MethodPost && route == "/api/v1/channels":
		return "designate"
	case method == http.MethodDelete && route == "/api/v1/channels/:id":
		return "undesignate"
	case method == http.MethodPost && route == "/api/v1/channels/:id/reconcile":
		return "force_reconcile"
	case method == http.MethodPost && route == "/api/v1/channels/:id/risk/reset":
		return "reset_risk"
	}
	return "other"
}
