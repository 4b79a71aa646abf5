package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditRouter(buf *bytes.Buffer) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AuditLog(zerolog.New(buf)))
	r.POST("/api/v1/channels", func(c *gin.Context) {
		c.Set(CtxOperator, "alice")
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	r.GET("/api/v1/channels", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.DELETE("/api/v1/channels/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/api/v1/channels/:id/reconcile", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error_code": "PEG_003"})
	})
	return r
}

func TestAuditLog_Designate(t *testing.T) {
	var buf bytes.Buffer
	r := auditRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/channels", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "designate", entry["action"])
	assert.Equal(t, "alice", entry["operator"])
	assert.Equal(t, "operator action", entry["message"])
}

func TestAuditLog_UndesignateIncludesChannel(t *testing.T) {
	var buf bytes.Buffer
	r := auditRouter(&buf)

	id := strings.Repeat("ab", 32)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/channels/"+id, nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "undesignate", entry["action"])
	assert.Equal(t, id, entry["channel_id"])
}

func TestAuditLog_SkipsGET(t *testing.T) {
	var buf bytes.Buffer
	r := auditRouter(&buf)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/channels", nil))
	assert.Empty(t, buf.String())
}

func TestAuditLog_SkipsFailure(t *testing.T) {
	var buf bytes.Buffer
	r := auditRouter(&buf)

	id := strings.Repeat("ab", 32)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/channels/"+id+"/reconcile", nil))
	assert.Empty(t, buf.String())
}

func TestAuditAction(t *testing.T) {
	assert.Equal(t, "reset_risk", auditAction(http.MethodPost, "/api/v1/channels/:id/risk/reset"))
	assert.Equal(t, "force_reconcile", auditAction(http.MethodPost, "/api/v1/channels/:id/reconcile"))
	assert.Equal(t, "other", auditAction(http.MethodPut, "/api/v1/channels"))
}
