package dto

import (
	"stable-channels/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("channel_id", validateChannelID)
		_ = v.RegisterValidation("peg_role", validateRole)
		_ = v.RegisterValidation("fiat", validateFiat)
	}
}

// validateChannelID accepts 64 hex chars or a formatted string containing them.
func validateChannelID(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true // empty adopts the node's only channel
	}
	_, err := domain.ParseChannelID(raw)
	return err == nil
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := domain.ParseRole(fl.Field().String())
	return err == nil
}

// validateFiat accepts a non-negative decimal string such as "10" or "12.50".
func validateFiat(fl validator.FieldLevel) bool {
	f, err := domain.ParseFiatAmount(fl.Field().String())
	return err == nil && !f.IsNegative()
}
