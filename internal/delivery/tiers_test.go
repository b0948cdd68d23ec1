package delivery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseTiers(t *testing.T) {
	t.Parallel()
	table, err := ParseTiers("10:0, 25:49, 50:79")
	require.NoError(t, err)
	require.Len(t, table, 3)
	require.Equal(t, 10.0, table[0].MaxKm)
	require.True(t, table[0].Charge.IsZero())
	require.Equal(t, "49", table[1].Charge.String())
}

func TestParseTiersRejectsBadInput(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"empty":               "",
		"malformed pair":      "10-0,25:49",
		"descending distance": "25:49,10:0",
		"equal distance":      "10:0,10:49",
		"descending charge":   "10:49,25:0",
		"negative charge":     "10:-5",
		"bad number":          "ten:0",
	}
	for name, input := range cases {
		_, err := ParseTiers(input)
		require.Error(t, err, name)
	}
}

func TestChargeForPicksTierByDistance(t *testing.T) {
	t.Parallel()
	table, err := ParseTiers("10:0,25:49,50:79")
	require.NoError(t, err)
	sub := decimal.NewFromInt(500)

	require.True(t, table.ChargeFor(sub, 0, 0).IsZero())
	require.True(t, table.ChargeFor(sub, 10, 0).IsZero())
	require.Equal(t, "49", table.ChargeFor(sub, 10.1, 0).String())
	require.Equal(t, "79", table.ChargeFor(sub, 49.9, 0).String())
	// beyond the last tier pays the last tier's charge
	require.Equal(t, "79", table.ChargeFor(sub, 400, 0).String())
}

func TestChargeForEmptyTable(t *testing.T) {
	t.Parallel()
	var table TierTable
	require.True(t, table.ChargeFor(decimal.NewFromInt(500), 30, 0).IsZero())
}

func TestChargeForFreeShippingThreshold(t *testing.T) {
	t.Parallel()
	table, err := ParseTiers("10:0,25:49")
	require.NoError(t, err)

	require.True(t, table.ChargeFor(decimal.NewFromInt(2000), 20, 1999).IsZero())
	require.True(t, table.ChargeFor(decimal.NewFromInt(1999), 20, 1999).IsZero())
	require.Equal(t, "49", table.ChargeFor(decimal.NewFromInt(1998), 20, 1999).String())
	// threshold disabled
	require.Equal(t, "49", table.ChargeFor(decimal.NewFromInt(5000), 20, 0).String())
}
