package processors

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const btc = 100_000_000

func purchase(blockTime, qty, rate int64) models.Transaction {
	return models.Transaction{
		BlockTime:    blockTime,
		AmountIn:     qty,
		ExchangeRate: rate,
		Type:         models.TxPurchase,
	}
}

func sale(blockTime, qty, rate int64) models.Transaction {
	return models.Transaction{
		BlockTime:    blockTime,
		AmountOut:    qty,
		ExchangeRate: rate,
		Type:         models.TxSale,
	}
}

func TestFIFOAndLIFOMatching(t *testing.T) {
	// Two purchases of 10 BTC each at $100 and $200, then a 15 BTC sale
	// at $300. FIFO drains the first lot then half the second; LIFO the
	// reverse.
	engineF := NewLotEngine()
	engineF.ProcessPurchase(purchase(1000, 10*btc, 10000))
	engineF.ProcessPurchase(purchase(2000, 10*btc, 20000))

	fifo := engineF.MatchSaleFIFO(sale(3000, 15*btc, 30000))
	require.Len(t, fifo, 2)

	assert.Equal(t, int64(10*btc), fifo[0].QtyMatched)
	assert.Equal(t, int64(300000), fifo[0].Proceeds)
	assert.Equal(t, int64(100000), fifo[0].CostBasis)
	assert.Equal(t, int64(200000), fifo[0].RealizedGain)

	assert.Equal(t, int64(5*btc), fifo[1].QtyMatched)
	assert.Equal(t, int64(150000), fifo[1].Proceeds)
	assert.Equal(t, int64(100000), fifo[1].CostBasis)
	assert.Equal(t, int64(50000), fifo[1].RealizedGain)

	lifo := engineF.MatchSaleLIFO(sale(3000, 15*btc, 30000))
	require.Len(t, lifo, 2)

	assert.Equal(t, int64(10*btc), lifo[0].QtyMatched)
	assert.Equal(t, int64(100000), lifo[0].RealizedGain) // newest lot first
	assert.Equal(t, int64(5*btc), lifo[1].QtyMatched)
	assert.Equal(t, int64(100000), lifo[1].RealizedGain)

	// Both queues end with 5 BTC left, but from different lots.
	fifoLots := engineF.FIFOLots()
	require.Len(t, fifoLots, 1)
	assert.Equal(t, int64(20000), fifoLots[0].ExchangeRate)
	assert.Equal(t, int64(5*btc), fifoLots[0].Qty)

	lifoLots := engineF.LIFOLots()
	require.Len(t, lifoLots, 1)
	assert.Equal(t, int64(10000), lifoLots[0].ExchangeRate)
	assert.Equal(t, int64(5*btc), lifoLots[0].Qty)
}

func TestMatchConservation(t *testing.T) {
	engine := NewLotEngine()
	engine.ProcessPurchase(purchase(100, 3*btc, 10000))
	engine.ProcessPurchase(purchase(200, 4*btc, 12000))
	engine.ProcessPurchase(purchase(300, 5*btc, 15000))

	matches := engine.MatchSaleFIFO(sale(400, 9*btc, 20000))
	var matched, gains, proceeds, costs int64
	for _, m := range matches {
		matched += m.QtyMatched
		gains += m.RealizedGain
		proceeds += m.Proceeds
		costs += m.CostBasis
	}
	assert.Equal(t, int64(9*btc), matched)
	assert.Equal(t, proceeds-costs, gains)
	assert.Equal(t, int64(0), engine.UnmatchedFIFO)
}

func TestLongTermBoundary(t *testing.T) {
	// Held exactly 365 days is still short term; one second past is long.
	engine := NewLotEngine()
	engine.ProcessPurchase(purchase(0, 2*btc, 10000))

	matches := engine.MatchSaleFIFO(sale(LongTermHoldSeconds, 1*btc, 20000))
	require.Len(t, matches, 1)
	assert.False(t, matches[0].LongTerm)

	matches = engine.MatchSaleFIFO(sale(LongTermHoldSeconds+1, 1*btc, 20000))
	require.Len(t, matches, 1)
	assert.True(t, matches[0].LongTerm)
}

func TestSaleBeyondTrackedLots(t *testing.T) {
	engine := NewLotEngine()
	engine.ProcessPurchase(purchase(100, 3*btc, 10000))

	matches := engine.MatchSaleFIFO(sale(200, 5*btc, 20000))
	require.Len(t, matches, 1)
	assert.Equal(t, int64(3*btc), matches[0].QtyMatched)
	assert.Equal(t, int64(2*btc), engine.UnmatchedFIFO)
	assert.Empty(t, engine.FIFOLots())

	// The LIFO queue is untouched by a FIFO match.
	assert.Equal(t, int64(0), engine.UnmatchedLIFO)
	assert.Len(t, engine.LIFOLots(), 1)
}

func TestPartialLotDepletion(t *testing.T) {
	engine := NewLotEngine()
	engine.ProcessPurchase(purchase(100, 10*btc, 10000))

	engine.MatchSaleFIFO(sale(200, 4*btc, 20000))
	lots := engine.FIFOLots()
	require.Len(t, lots, 1)
	assert.Equal(t, int64(6*btc), lots[0].Qty)
	assert.Equal(t, int64(10*btc), lots[0].OrigQty)

	matches := engine.MatchSaleFIFO(sale(300, 6*btc, 20000))
	require.Len(t, matches, 1)
	assert.Equal(t, int64(10*btc), matches[0].OrigQty)
	assert.Empty(t, engine.FIFOLots())
}
