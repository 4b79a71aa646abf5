package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stable-channels/pkg/apperror"
)

func TestToFiat(t *testing.T) {
	tests := []struct {
		name   string
		native NativeAmount
		rate   string
		want   string
	}{
		{"one btc", SatsPerBTC, "50000", "50000.00"},
		{"quarter of 100k sat", 25_000, "50000", "12.50"},
		{"one sat", 1, "50000", "0.00"},
		{"zero", 0, "50000", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ParseExchangeRate(tt.rate)
			require.NoError(t, err)

			got, err := ToFiat(tt.native, rate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToFiat_KeepsFullPrecision(t *testing.T) {
	fiat, err := ToFiat(1, RateFromFloat(50000))
	require.NoError(t, err)
	assert.True(t, fiat.Decimal().Equal(decimal.RequireFromString("0.0005")))
}

func TestToFiat_InvalidRate(t *testing.T) {
	for _, r := range []ExchangeRate{{}, RateFromFloat(-1)} {
		_, err := ToFiat(100, r)
		assert.True(t, errors.Is(err, apperror.ErrInvalidRate()))
	}
}

func TestToNativeSubunit(t *testing.T) {
	rate := RateFromFloat(50000)

	got, err := ToNativeSubunit(NewFiatAmount(decimal.RequireFromString("2.50")), rate)
	require.NoError(t, err)
	assert.Equal(t, NativeAmount(5000), got)

	// 0.0001 USD at 50k is 0.2 sat and rounds toward zero.
	got, err = ToNativeSubunit(NewFiatAmount(decimal.RequireFromString("0.0001")), rate)
	require.NoError(t, err)
	assert.Equal(t, NativeAmount(0), got)

	got, err = ToNativeSubunit(NewFiatAmount(decimal.RequireFromString("0.00099")), rate)
	require.NoError(t, err)
	assert.Equal(t, NativeAmount(1), got)
}

func TestToNativeSubunit_Errors(t *testing.T) {
	_, err := ToNativeSubunit(NewFiatAmount(decimal.NewFromInt(1)), ExchangeRate{})
	assert.Equal(t, apperror.CodeInvalidRate, apperror.Code(err))

	_, err = ToNativeSubunit(NewFiatAmount(decimal.NewFromInt(-1)), RateFromFloat(50000))
	assert.Equal(t, apperror.CodeNegativeAmount, apperror.Code(err))

	_, err = ToNativeSubunit(NewFiatAmount(decimal.RequireFromString("1e30")), RateFromFloat(1))
	assert.Equal(t, apperror.CodeAmountOverflow, apperror.Code(err))
}

func TestConversionRoundTrip(t *testing.T) {
	rates := []string{"50000", "61234.57", "0.5", "123456789.123"}
	amounts := []NativeAmount{0, 1, 999, 25_000, SatsPerBTC, 21_000_000 * SatsPerBTC}

	for _, rs := range rates {
		rate, err := ParseExchangeRate(rs)
		require.NoError(t, err)
		for _, n := range amounts {
			fiat, err := ToFiat(n, rate)
			require.NoError(t, err)
			back, err := ToNativeSubunit(fiat, rate)
			require.NoError(t, err)

			diff := int64(back) - int64(n)
			assert.LessOrEqual(t, diff, int64(1), "rate=%s n=%d", rs, n)
			assert.GreaterOrEqual(t, diff, int64(-1), "rate=%s n=%d", rs, n)
		}
	}
}

func TestToMsat(t *testing.T) {
	msat, err := NativeAmount(5000).ToMsat()
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), msat)

	_, err = NativeAmount(math.MaxUint64 / 1000).ToMsat()
	assert.NoError(t, err)

	_, err = NativeAmount(math.MaxUint64/1000 + 1).ToMsat()
	assert.Equal(t, apperror.CodeAmountOverflow, apperror.Code(err))
}

func TestExchangeRate_Validity(t *testing.T) {
	assert.False(t, ExchangeRate{}.IsValid())
	assert.True(t, ExchangeRate{}.IsZero())
	assert.False(t, RateFromFloat(-2).IsValid())
	assert.True(t, RateFromFloat(-2).IsNegative())
	assert.True(t, RateFromFloat(0.01).IsValid())
}

func TestParseFiatAmount(t *testing.T) {
	f, err := ParseFiatAmount("10.5")
	require.NoError(t, err)
	assert.Equal(t, "10.50", f.String())

	_, err = ParseFiatAmount("ten")
	assert.Equal(t, apperror.CodeParse, apperror.Code(err))
}

func TestFiatAmount_JSON(t *testing.T) {
	f := NewFiatAmount(decimal.RequireFromString("12.5"))
	b, err := f.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"12.50"`, string(b))

	var back FiatAmount
	require.NoError(t, back.UnmarshalJSON([]byte(`"12.50"`)))
	assert.True(t, back.Equal(f))
}
