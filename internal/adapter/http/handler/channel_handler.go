package handler

import (
	"stable-channels/internal/adapter/http/dto"
	"stable-channels/internal/core/domain"
	"stable-channels/internal/core/ports"
	"stable-channels/pkg/apperror"
	"stable-channels/pkg/response"

	"github.com/gin-gonic/gin"
)

// ChannelHandler exposes pegged channel management.
type ChannelHandler struct {
	pegSvc ports.PegService
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(pegSvc ports.PegService) *ChannelHandler {
	return &ChannelHandler{pegSvc: pegSvc}
}

// Designate handles POST /api/v1/channels.
func (h *ChannelHandler) Designate(c *gin.Context) {
	var req dto.DesignateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	expected, err := domain.ParseFiatAmount(req.ExpectedFiat)
	if err != nil {
		response.Error(c, err)
		return
	}

	in := ports.DesignateRequest{
		ChannelID:    req.ChannelID,
		Role:         role,
		ExpectedFiat: expected,
	}
	if req.ExpectedNative != nil {
		in.ExpectedNative = domain.NativeAmount(*req.ExpectedNative)
	}

	view, err := h.pegSvc.Designate(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// List handles GET /api/v1/channels.
func (h *ChannelHandler) List(c *gin.Context) {
	views := h.pegSvc.ListStates()
	if views == nil {
		views = []*domain.PeggedChannelView{}
	}
	response.OK(c, dto.ChannelListResponse{Items: views, Count: len(views)})
}

// Get handles GET /api/v1/channels/:id.
func (h *ChannelHandler) Get(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	view, err := h.pegSvc.CurrentState(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Reconcile handles POST /api/v1/channels/:id/reconcile.
func (h *ChannelHandler) Reconcile(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	view, err := h.pegSvc.ForceReconcile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// ResetRisk handles POST /api/v1/channels/:id/risk/reset.
func (h *ChannelHandler) ResetRisk(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	view, err := h.pegSvc.ResetRisk(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Undesignate handles DELETE /api/v1/channels/:id.
func (h *ChannelHandler) Undesignate(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}
	if err := h.pegSvc.Undesignate(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPayments handles GET /api/v1/channels/:id/payments.
func (h *ChannelHandler) ListPayments(c *gin.Context) {
	id, ok := channelParam(c)
	if !ok {
		return
	}

	var q dto.PaymentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	payments, err := h.pegSvc.ListPayments(c.Request.Context(), id, q.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	response.OK(c, dto.PaymentListResponse{Items: payments, Count: len(payments)})
}

// channelParam parses the :id path segment, writing the error response on failure.
func channelParam(c *gin.Context) (domain.ChannelID, bool) {
	id, err := domain.ParseChannelID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return domain.ChannelID{}, false
	}
	return id, true
}
