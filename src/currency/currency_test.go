package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBTC(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100_000_000},
		{"0.00000001", 1},
		{"21.5", 2_150_000_000},
		{"-0.5", -50_000_000},
		{"0.000000015", 2},  // sub-satoshi rounds half away from zero
		{"0.000000014", 1},
		{"-0.000000015", -2},
	}
	for _, tt := range tests {
		got, err := ParseBTC(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseBTC("abc")
	assert.Error(t, err)
}

func TestParseFiat(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100},
		{"19.99", 1999},
		{"-3.50", -350},
		{"0.005", 1},
		{"-0.005", -1},
	}
	for _, tt := range tests {
		got, err := ParseFiat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFiat("")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.00000000", FormatBTC(100_000_000))
	assert.Equal(t, "0.00000001", FormatBTC(1))
	assert.Equal(t, "-2.50000000", FormatBTC(-250_000_000))
	assert.Equal(t, "0.00000000", FormatBTC(0))

	assert.Equal(t, "19.99", FormatFiat(1999))
	assert.Equal(t, "-0.01", FormatFiat(-1))
	assert.Equal(t, "0.00", FormatFiat(0))
}

func TestBtcToFiat(t *testing.T) {
	// 1 BTC at $300.00 is $300.00.
	assert.Equal(t, int64(30000), BtcToFiat(100_000_000, 30000))
	// 0.5 BTC at $100.00 is $50.00.
	assert.Equal(t, int64(5000), BtcToFiat(50_000_000, 10000))
	// 1 satoshi at $100.00 rounds to zero cents.
	assert.Equal(t, int64(0), BtcToFiat(1, 10000))
	// Fractional cents round half away from zero in both signs.
	assert.Equal(t, int64(1), BtcToFiat(50_000_000, 1))   // 0.5 cents
	assert.Equal(t, int64(-1), BtcToFiat(-50_000_000, 1)) // -0.5 cents
}

func TestBtcToFiatLargeBalances(t *testing.T) {
	// 20M BTC at $100,000.00 would overflow a naive int64 product.
	btc := int64(20_000_000) * Satoshi
	assert.Equal(t, int64(20_000_000)*10_000_000, BtcToFiat(btc, 10_000_000))
}

func TestBtcTimesRate(t *testing.T) {
	rate := decimal.NewFromInt(15000) // $150.00 per BTC
	assert.Equal(t, int64(22500), BtcTimesRate(150_000_000, rate))

	frac := decimal.NewFromFloat(333.5)
	assert.Equal(t, int64(334), BtcTimesRate(100_000_000, frac))
}
