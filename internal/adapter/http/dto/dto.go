package dto

import "stable-channels/internal/core/domain"

// DesignateRequest is the request body for pegging a channel.
// ChannelID may be empty when the node has exactly one channel.
// ExpectedNative defaults to expected_fiat at the current rate.
type DesignateRequest struct {
	ChannelID      string  `json:"channel_id" binding:"channel_id"`
	Role           string  `json:"role" binding:"required,peg_role"`
	ExpectedFiat   string  `json:"expected_fiat" binding:"required,fiat"`
	ExpectedNative *uint64 `json:"expected_native_sat,omitempty"`
}

// PaymentListQuery binds GET /channels/:id/payments.
type PaymentListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ChannelListResponse wraps the pegged channel views.
type ChannelListResponse struct {
	Items []*domain.PeggedChannelView `json:"items"`
	Count int                         `json:"count"`
}

// PaymentListResponse wraps a channel's ledger entries, newest first.
type PaymentListResponse struct {
	Items []domain.Payment `json:"items"`
	Count int              `json:"count"`
}
