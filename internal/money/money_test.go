package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRound2HalfUp(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"10.005":  "10.01",
		"10.004":  "10.00",
		"999.995": "1000.00",
		"0":       "0.00",
	}
	for in, want := range cases {
		got := Round2(decimal.RequireFromString(in))
		require.True(t, got.Equal(decimal.RequireFromString(want)), "Round2(%s) = %s, want %s", in, got, want)
	}
}

func TestApplyDiscountPercent(t *testing.T) {
	t.Parallel()

	base := decimal.NewFromInt(1000)

	got, err := ApplyDiscountPercent(base, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.NewFromInt(900)))

	got, err = ApplyDiscountPercent(base, decimal.Zero)
	require.NoError(t, err)
	require.True(t, got.Equal(base))

	got, err = ApplyDiscountPercent(base, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestApplyDiscountPercentBounds(t *testing.T) {
	t.Parallel()

	base := decimal.NewFromInt(500)
	for _, pct := range []int64{-1, 101, 1000} {
		got, err := ApplyDiscountPercent(base, decimal.NewFromInt(pct))
		require.ErrorIs(t, err, ErrInvalidDiscount)
		require.True(t, got.Equal(base), "invalid pct must leave base untouched")
	}
}

func TestApplyDiscountPercentNeverNegativeOrAboveBase(t *testing.T) {
	t.Parallel()

	base := decimal.RequireFromString("123.45")
	for pct := int64(0); pct <= 100; pct += 5 {
		got, err := ApplyDiscountPercent(base, decimal.NewFromInt(pct))
		require.NoError(t, err)
		require.False(t, got.IsNegative())
		require.True(t, got.LessThanOrEqual(base))
	}
}

func TestEqual2Tolerance(t *testing.T) {
	t.Parallel()

	tol := decimal.RequireFromString("0.01")
	require.True(t, Equal2(decimal.RequireFromString("10.00"), decimal.RequireFromString("10.01"), tol))
	require.False(t, Equal2(decimal.RequireFromString("10.00"), decimal.RequireFromString("10.02"), tol))
}
