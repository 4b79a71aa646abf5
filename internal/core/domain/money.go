package domain

import (
	"encoding/json"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"stable-channels/pkg/apperror"
)

const (
	// SatsPerBTC is the number of native subunits in one native unit.
	SatsPerBTC = 100_000_000
	// MsatPerSat is the payment sub-subunit scale.
	MsatPerSat = 1000

	satsExponent = 8
)

// NativeAmount is a non-negative count of satoshis.
type NativeAmount uint64

// ToMsat converts to millisatoshis, failing instead of wrapping on overflow.
func (n NativeAmount) ToMsat() (uint64, error) {
	if uint64(n) > math.MaxUint64/MsatPerSat {
		return 0, apperror.ErrAmountOverflow()
	}
	return uint64(n) * MsatPerSat, nil
}

func (n NativeAmount) decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0)
}

// NativeFromMsat truncates a millisatoshi amount to whole satoshis.
func NativeFromMsat(msat uint64) NativeAmount {
	return NativeAmount(msat / MsatPerSat)
}

// ExchangeRate is USD per one BTC. The zero value means no rate is known.
type ExchangeRate struct {
	value decimal.Decimal
}

// NewExchangeRate wraps a decimal rate. Validity is checked at use.
func NewExchangeRate(d decimal.Decimal) ExchangeRate {
	return ExchangeRate{value: d}
}

// RateFromFloat is a convenience for feeds and tests.
func RateFromFloat(f float64) ExchangeRate {
	return ExchangeRate{value: decimal.NewFromFloat(f)}
}

// ParseExchangeRate parses a decimal string such as "50000.12".
func ParseExchangeRate(s string) (ExchangeRate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ExchangeRate{}, apperror.ErrParse("exchange rate", err)
	}
	return ExchangeRate{value: d}, nil
}

// IsValid reports whether the rate can be used for conversion.
func (r ExchangeRate) IsValid() bool { return r.value.IsPositive() }

// IsNegative reports a rate below zero, which a feed must never supply.
func (r ExchangeRate) IsNegative() bool { return r.value.IsNegative() }

// IsZero reports an unknown rate.
func (r ExchangeRate) IsZero() bool { return r.value.IsZero() }

// Decimal returns the USD per BTC value.
func (r ExchangeRate) Decimal() decimal.Decimal { return r.value }

// Float64 is for metrics only.
func (r ExchangeRate) Float64() float64 {
	f, _ := r.value.Float64()
	return f
}

// String formats the rate at 2 decimals.
func (r ExchangeRate) String() string { return r.value.StringFixed(2) }

// MarshalJSON encodes the rate as a full-precision decimal string.
func (r ExchangeRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value.String())
}

// UnmarshalJSON accepts a decimal string or number.
func (r *ExchangeRate) UnmarshalJSON(b []byte) error {
	return r.value.UnmarshalJSON(b)
}

// FiatAmount is a signed USD value kept at full precision and displayed at 2 decimals.
type FiatAmount struct {
	value decimal.Decimal
}

// NewFiatAmount wraps a decimal fiat value, used for operator supplied peg targets.
func NewFiatAmount(d decimal.Decimal) FiatAmount {
	return FiatAmount{value: d}
}

// ParseFiatAmount parses a decimal string such as "10.00".
func ParseFiatAmount(s string) (FiatAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return FiatAmount{}, apperror.ErrParse("fiat amount", err)
	}
	return FiatAmount{value: d}, nil
}

// Decimal returns the full-precision value.
func (f FiatAmount) Decimal() decimal.Decimal { return f.value }

// IsZero reports a zero amount.
func (f FiatAmount) IsZero() bool { return f.value.IsZero() }

// IsNegative reports an amount below zero.
func (f FiatAmount) IsNegative() bool { return f.value.IsNegative() }

// IsPositive reports an amount above zero.
func (f FiatAmount) IsPositive() bool { return f.value.IsPositive() }

// LessThan compares at full precision.
func (f FiatAmount) LessThan(o FiatAmount) bool { return f.value.LessThan(o.value) }

// Equal compares at full precision, so 12.50 and 12.500 are equal.
func (f FiatAmount) Equal(o FiatAmount) bool { return f.value.Equal(o.value) }

// Sub returns f - o.
func (f FiatAmount) Sub(o FiatAmount) FiatAmount { return FiatAmount{value: f.value.Sub(o.value)} }

// Abs returns |f|.
func (f FiatAmount) Abs() FiatAmount { return FiatAmount{value: f.value.Abs()} }

// PercentOf returns |f / base| * 100. base must be non-zero.
func (f FiatAmount) PercentOf(base FiatAmount) decimal.Decimal {
	return f.value.Div(base.value).Abs().Mul(decimal.NewFromInt(100))
}

// Float64 is for metrics only.
func (f FiatAmount) Float64() float64 {
	v, _ := f.value.Float64()
	return v
}

// String formats the amount at 2 decimals.
func (f FiatAmount) String() string { return f.value.StringFixed(2) }

// MarshalJSON encodes the amount as a 2-decimal string.
func (f FiatAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.value.StringFixed(2))
}

// UnmarshalJSON accepts a decimal string or number.
func (f *FiatAmount) UnmarshalJSON(b []byte) error {
	return f.value.UnmarshalJSON(b)
}

// ToFiat values native satoshis at rate.
func ToFiat(native NativeAmount, rate ExchangeRate) (FiatAmount, error) {
	if !rate.IsValid() {
		return FiatAmount{}, apperror.ErrInvalidRate()
	}
	return FiatAmount{value: native.decimal().Mul(rate.value).Shift(-satsExponent)}, nil
}

// ToNativeSubunit converts fiat to satoshis at rate, rounding toward zero.
func ToNativeSubunit(fiat FiatAmount, rate ExchangeRate) (NativeAmount, error) {
	if !rate.IsValid() {
		return 0, apperror.ErrInvalidRate()
	}
	if fiat.IsNegative() {
		return 0, apperror.ErrNegativeAmount()
	}
	q, _ := fiat.value.Shift(satsExponent).QuoRem(rate.value, 0)
	bi := q.BigInt()
	if !bi.IsUint64() {
		return 0, apperror.ErrAmountOverflow()
	}
	return NativeAmount(bi.Uint64()), nil
}
