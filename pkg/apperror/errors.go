package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses and pass status lines.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so errors.Is works
// against a freshly constructed error of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Code returns the AppError code found in err's chain, or "" if none.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an AppError with the given code.
func HasCode(err error, code string) bool {
	return Code(err) == code
}

const (
	CodeInvalidRate          = "RATE_001"
	CodeRateUnavailable      = "RATE_002"
	CodeChannelNotFound      = "CHAN_001"
	CodeChannelNotReady      = "CHAN_002"
	CodeCounterpartyMismatch = "CHAN_003"
	CodeAmbiguousChannel     = "CHAN_004"
	CodeInconsistentSnapshot = "CHAN_005"
	CodeInsufficientCapacity = "PAY_001"
	CodeZeroAmountPayment    = "PAY_002"
	CodePaymentSendFailed    = "PAY_003"
	CodeAmountOverflow       = "PAY_004"
	CodeNegativeAmount       = "PAY_005"
	CodeParse                = "PEG_001"
	CodeNotDesignated        = "PEG_002"
	CodePassInFlight         = "PEG_003"
	CodeInvalidDesignation   = "PEG_004"
	CodeAlreadyDesignated    = "PEG_005"
	CodeInvalidToken         = "AUTH_001"
	CodeInternal             = "SYS_001"
	CodeRateLimited          = "SYS_002"
	CodeValidation           = "REQ_001"
)

// ---- Exchange rate (RATE) ----

func ErrInvalidRate() *AppError {
	return New(CodeInvalidRate, "Exchange rate must be positive", http.StatusBadRequest)
}

func ErrRateUnavailable() *AppError {
	return New(CodeRateUnavailable, "No exchange rate available", http.StatusServiceUnavailable)
}

// ---- Channel lookup (CHAN) ----

func ErrChannelNotFound(channelID string) *AppError {
	if channelID == "" {
		return New(CodeChannelNotFound, "No channel available", http.StatusNotFound)
	}
	return New(CodeChannelNotFound, fmt.Sprintf("Channel %s not found", channelID), http.StatusNotFound)
}

func ErrChannelNotReady(channelID string) *AppError {
	return New(CodeChannelNotReady, fmt.Sprintf("Channel %s is not ready", channelID), http.StatusConflict)
}

func ErrCounterpartyMismatch(expected, actual string) *AppError {
	return New(CodeCounterpartyMismatch,
		fmt.Sprintf("Channel counterparty %s does not match pegged counterparty %s", actual, expected),
		http.StatusConflict)
}

func ErrAmbiguousChannel(count int) *AppError {
	return New(CodeAmbiguousChannel,
		fmt.Sprintf("Cannot auto-bind: %d channels open, explicit designation required", count),
		http.StatusConflict)
}

func ErrInconsistentSnapshot(message string) *AppError {
	return New(CodeInconsistentSnapshot, "Inconsistent channel snapshot: "+message, http.StatusBadGateway)
}

// ---- Payments (PAY) ----

func ErrInsufficientCapacity(outboundMsat, amountMsat uint64) *AppError {
	return New(CodeInsufficientCapacity,
		fmt.Sprintf("Outbound capacity %d msat is below payment amount %d msat", outboundMsat, amountMsat),
		http.StatusPaymentRequired)
}

func ErrZeroAmountPayment() *AppError {
	return New(CodeZeroAmountPayment, "Payment amount is zero", http.StatusBadRequest)
}

func ErrPaymentSendFailed(err error) *AppError {
	return Wrap(CodePaymentSendFailed, "Payment send failed", http.StatusBadGateway, err)
}

func ErrAmountOverflow() *AppError {
	return New(CodeAmountOverflow, "Amount overflows payment unit range", http.StatusBadRequest)
}

func ErrNegativeAmount() *AppError {
	return New(CodeNegativeAmount, "Amount must not be negative", http.StatusBadRequest)
}

// ---- Designation (PEG) ----

func ErrParse(field string, err error) *AppError {
	return Wrap(CodeParse, fmt.Sprintf("Malformed %s", field), http.StatusBadRequest, err)
}

func ErrNotDesignated(channelID string) *AppError {
	return New(CodeNotDesignated, fmt.Sprintf("Channel %s is not pegged", channelID), http.StatusNotFound)
}

func ErrPassInFlight(channelID string) *AppError {
	return New(CodePassInFlight, fmt.Sprintf("Reconciliation already running for %s", channelID), http.StatusConflict)
}

func ErrInvalidDesignation(message string) *AppError {
	return New(CodeInvalidDesignation, message, http.StatusBadRequest)
}

func ErrAlreadyDesignated(channelID string) *AppError {
	return New(CodeAlreadyDesignated,
		fmt.Sprintf("Channel %s is already pegged with a different role", channelID),
		http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimited, "Too many requests", http.StatusTooManyRequests)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}
