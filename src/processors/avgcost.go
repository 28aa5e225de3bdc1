package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/models"
)

// AvgPeriodic realizes gains against a single average cost computed from
// the whole batch's purchases before the main walk begins. No lot queues.
type AvgPeriodic struct {
	avgRate  decimal.Decimal // cents per BTC, fractional
	Realized int64           // cumulative cents
}

// NewAvgPeriodic precomputes the batch average purchase cost:
// total fiat spent on purchases divided by total BTC purchased.
func NewAvgPeriodic(txs []models.Transaction) *AvgPeriodic {
	var totalFiat, totalBTC int64
	for _, tx := range txs {
		if tx.Type == models.TxPurchase {
			totalFiat += tx.FiatIn
			totalBTC += tx.AmountIn
		}
	}
	a := &AvgPeriodic{}
	if totalBTC > 0 {
		a.avgRate = decimal.NewFromInt(totalFiat).
			Mul(decimal.NewFromInt(currency.Satoshi)).
			Div(decimal.NewFromInt(totalBTC))
	}
	return a
}

// Sale realizes the gain on one sale at the periodic average cost and
// returns it; the cumulative total accrues on the accumulator.
func (a *AvgPeriodic) Sale(tx models.Transaction) int64 {
	cogs := currency.BtcTimesRate(tx.AmountOut, a.avgRate)
	gain := tx.FiatOut - cogs
	a.Realized += gain
	return gain
}

// AvgPerpetual maintains a running weighted-average unit cost, recomputed
// after every purchase. Each sale is costed at the average in force at the
// time of that sale, not the final one.
type AvgPerpetual struct {
	avgRate  decimal.Decimal // cents per BTC, fractional
	balance  int64           // satoshi held
	Realized int64           // cumulative cents
}

func NewAvgPerpetual() *AvgPerpetual { return &AvgPerpetual{} }

// Purchase folds a purchase into the weighted average:
// newAvg = (oldAvg*balanceBefore + rate*qtyIn) / (balanceBefore + qtyIn).
func (a *AvgPerpetual) Purchase(tx models.Transaction) {
	qty := tx.AmountIn
	if qty == 0 {
		return
	}
	weighted := a.avgRate.Mul(decimal.NewFromInt(a.balance)).
		Add(decimal.NewFromInt(tx.ExchangeRate).Mul(decimal.NewFromInt(qty)))
	a.balance += qty
	a.avgRate = weighted.Div(decimal.NewFromInt(a.balance))
}

// Sale realizes the gain on one sale at the current running average.
// Quantity sold beyond the tracked balance carries a zero cost basis,
// mirroring the lot engine's unmatched tail.
func (a *AvgPerpetual) Sale(tx models.Transaction) int64 {
	costedQty := tx.AmountOut
	if costedQty > a.balance {
		costedQty = a.balance
	}
	cogs := currency.BtcTimesRate(costedQty, a.avgRate)
	gain := tx.FiatOut - cogs
	a.Realized += gain
	a.balance -= costedQty
	return gain
}
