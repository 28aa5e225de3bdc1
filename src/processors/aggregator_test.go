package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bitgains/backend/src/models"
)

func TestAggregateRealizedGains(t *testing.T) {
	txs := []models.Transaction{
		pricedPurchase(1000, 10*btc, 10000),
		pricedPurchase(2000, 10*btc, 20000),
		pricedSale(3000, 15*btc, 30000),
	}

	res := NewAggregator().Aggregate(txs, 30000, AggregateOptions{CostMethod: MethodFIFO, Direction: DirBoth})

	assert.Equal(t, int64(250000), res.Totals.RealizedFIFOShort+res.Totals.RealizedFIFOLong)
	assert.Equal(t, int64(200000), res.Totals.RealizedLIFOShort+res.Totals.RealizedLIFOLong)
	assert.Equal(t, int64(225000), res.Totals.RealizedAvgPeriodic)
	assert.Equal(t, int64(225000), res.Totals.RealizedAvgPerpetual)

	assert.Equal(t, int64(5*btc), res.Totals.BTCBalance)
	require.Len(t, res.Rows, 3)

	// Paper gain: 5 BTC at the $300 current price against a fiat balance
	// of 100000+200000-450000 = -150000.
	assert.Equal(t, int64(150000-(-150000)), res.Totals.PaperGain)
	// Unrealized per method is paper gain minus that method's realized.
	assert.Equal(t, int64(300000-250000), res.Totals.UnrealizedFor(MethodFIFO))
	assert.Equal(t, int64(300000-200000), res.Totals.UnrealizedFor(MethodLIFO))
}

func TestAggregateSortsAndBreaksTies(t *testing.T) {
	// A sale sharing its timestamp with the purchase that funds it must be
	// processed after the purchase regardless of input order.
	txs := []models.Transaction{
		pricedSale(1000, 5*btc, 20000),
		pricedPurchase(1000, 5*btc, 10000),
	}
	res := NewAggregator().Aggregate(txs, 20000, AggregateOptions{CostMethod: MethodFIFO, Direction: DirBoth})

	assert.Equal(t, int64(0), res.UnmatchedFIFO)
	require.Len(t, res.FIFOMatches, 1)
	assert.Equal(t, int64(100000-50000), res.FIFOMatches[0].RealizedGain)
}

func TestAggregateFiltersRowsNotBalances(t *testing.T) {
	txs := []models.Transaction{
		pricedPurchase(1000, 10*btc, 10000),
		pricedSale(2000, 4*btc, 20000),
	}

	res := NewAggregator().Aggregate(txs, 20000, AggregateOptions{CostMethod: MethodFIFO, Direction: DirOut})

	// Only the sale is reported, but its balance snapshot includes the
	// excluded purchase.
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.TxSale, res.Rows[0].Tx.Type)
	assert.Equal(t, int64(6*btc), res.Rows[0].Totals.BTCBalance)

	// Period sums cover reported rows only.
	assert.Equal(t, int64(0), res.Totals.SumBTCIn)
	assert.Equal(t, int64(4*btc), res.Totals.SumBTCOut)
	assert.Equal(t, int64(-4*btc), res.Totals.BTCBalancePeriod)

	// Gains accrue from the full history either way.
	assert.Equal(t, int64(40000), res.Totals.RealizedFIFOShort)
}

func TestAggregateDateWindow(t *testing.T) {
	txs := []models.Transaction{
		pricedPurchase(100, 10*btc, 10000),
		pricedSale(500, 4*btc, 20000),
		pricedSale(900, 2*btc, 30000),
	}

	res := NewAggregator().Aggregate(txs, 30000, AggregateOptions{
		CostMethod: MethodFIFO,
		Direction:  DirBoth,
		DateStart:  400,
		DateEnd:    600,
	})

	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(500), res.Rows[0].Tx.BlockTime)

	// Matches outside the window are tagged, not dropped.
	require.Len(t, res.FIFOMatches, 2)
	assert.True(t, res.FIFOMatches[0].InWindow)
	assert.False(t, res.FIFOMatches[1].InWindow)

	// Totals keep accruing past the window end; the window snapshot
	// stops at the last transaction inside it.
	assert.Equal(t, int64(80000), res.Totals.RealizedFIFOShort)
	assert.Equal(t, int64(40000), res.WindowTotals.RealizedFIFOShort)
	assert.Equal(t, int64(6*btc), res.WindowTotals.BTCBalance)
	assert.Equal(t, int64(4*btc), res.WindowTotals.SumBTCOut)
}

func TestAggregateTransfersMoveBalancesOnly(t *testing.T) {
	transferIn := models.Transaction{
		BlockTime: 1500, AmountIn: 3 * btc, ExchangeRate: 15000,
		FiatIn: 45000, Type: models.TxTransfer, TxID: "tx-t",
	}
	base := []models.Transaction{
		pricedPurchase(1000, 10*btc, 10000),
		pricedSale(2000, 5*btc, 20000),
	}
	withTransfer := append([]models.Transaction{transferIn}, base...)

	agg := NewAggregator()
	opts := AggregateOptions{CostMethod: MethodFIFO, Direction: DirBoth}
	plain := agg.Aggregate(base, 20000, opts)
	moved := agg.Aggregate(withTransfer, 20000, opts)

	// Realized gains are unchanged by the transfer.
	assert.Equal(t, plain.Totals.RealizedFIFOShort, moved.Totals.RealizedFIFOShort)
	assert.Equal(t, plain.Totals.RealizedLIFOShort, moved.Totals.RealizedLIFOShort)
	assert.Equal(t, plain.Totals.RealizedAvgPerpetual, moved.Totals.RealizedAvgPerpetual)

	// Balances do move.
	assert.Equal(t, plain.Totals.BTCBalance+3*btc, moved.Totals.BTCBalance)

	// No lot was created for the transfer.
	assert.Equal(t, plain.FIFOLots, moved.FIFOLots)
}

func TestAggregateIdempotent(t *testing.T) {
	txs := []models.Transaction{
		pricedPurchase(1000, 10*btc, 10000),
		pricedPurchase(2000, 10*btc, 20000),
		pricedSale(3000, 15*btc, 30000),
	}
	opts := AggregateOptions{CostMethod: MethodFIFO, Direction: DirBoth}

	agg := NewAggregator()
	first := agg.Aggregate(txs, 30000, opts)
	second := agg.Aggregate(txs, 30000, opts)
	assert.Equal(t, first, second)
}

func TestAggregateUnderflowSurfacesInResult(t *testing.T) {
	txs := []models.Transaction{
		pricedSale(1000, 2*btc, 10000),
	}
	res := NewAggregator().Aggregate(txs, 10000, AggregateOptions{CostMethod: MethodFIFO, Direction: DirBoth})

	assert.Equal(t, int64(2*btc), res.UnmatchedFIFO)
	assert.Equal(t, int64(2*btc), res.UnmatchedLIFO)
	// The sale still realizes its full proceeds as gain.
	assert.Equal(t, int64(20000), res.Totals.RealizedAvgPerpetual)
}
