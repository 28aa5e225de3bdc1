package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Satoshi is the number of base units in one BTC.
const Satoshi = 100_000_000

// CentsPerUnit is the number of base units in one fiat unit.
const CentsPerUnit = 100

var satoshiDec = decimal.NewFromInt(Satoshi)

// ParseBTC converts a decimal BTC string to integer satoshi,
// rounding any sub-satoshi fraction half away from zero.
func ParseBTC(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid BTC amount %q: %w", s, err)
	}
	return d.Mul(satoshiDec).Round(0).IntPart(), nil
}

// ParseFiat converts a decimal fiat string to integer cents.
func ParseFiat(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid fiat amount %q: %w", s, err)
	}
	return d.Mul(decimal.NewFromInt(CentsPerUnit)).Round(0).IntPart(), nil
}

// FormatBTC renders satoshi as fixed-point BTC with 8 decimal places.
// No grouping; grouping is a presentation concern.
func FormatBTC(v int64) string {
	return decimal.New(v, -8).StringFixed(8)
}

// FormatFiat renders cents as fixed-point fiat with 2 decimal places.
func FormatFiat(v int64) string {
	return decimal.New(v, -2).StringFixed(2)
}

// BtcToFiat reduces a satoshi quantity times a cents-per-BTC price to integer
// cents. This is the single point where BTC-scaled integers become fiat
// integers; the fractional cent is rounded half away from zero so repeated
// matches reproduce byte-identically across runs. Decimal arithmetic keeps
// the intermediate product exact for balances far beyond int64 range.
func BtcToFiat(btcUnits, centsPerBTC int64) int64 {
	p := decimal.NewFromInt(btcUnits).Mul(decimal.NewFromInt(centsPerBTC))
	return p.Div(satoshiDec).Round(0).IntPart()
}

// BtcTimesRate is BtcToFiat for a fractional cents-per-BTC rate, used by the
// average-cost accumulators whose running unit cost is not an integer.
func BtcTimesRate(btcUnits int64, centsPerBTC decimal.Decimal) int64 {
	p := decimal.NewFromInt(btcUnits).Mul(centsPerBTC)
	return p.Div(satoshiDec).Round(0).IntPart()
}
