package processors

import (
	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/utils"
)

// LongTermHoldSeconds is the holding period beyond which a gain is
// long-term: 365 days of 86400 seconds, not calendar-aware. A lot held
// exactly this long is still short-term.
const LongTermHoldSeconds = 365 * 86400

// lotQueue is an index-based deque of lots. Depleting a lot mutates an
// element the queue owns; nothing outside the engine holds a reference.
type lotQueue struct {
	lots []*models.Lot
}

func (q *lotQueue) push(l *models.Lot) { q.lots = append(q.lots, l) }
func (q *lotQueue) empty() bool        { return len(q.lots) == 0 }

func (q *lotQueue) peek(front bool) *models.Lot {
	if front {
		return q.lots[0]
	}
	return q.lots[len(q.lots)-1]
}

func (q *lotQueue) pop(front bool) {
	if front {
		q.lots = q.lots[1:]
	} else {
		q.lots = q.lots[:len(q.lots)-1]
	}
}

func (q *lotQueue) snapshot() []models.Lot {
	out := make([]models.Lot, len(q.lots))
	for i, l := range q.lots {
		out[i] = *l
	}
	return out
}

// LotEngine maintains the FIFO and LIFO lot queues for one report run.
// Every purchase pushes an identical lot (same id, qty, rate, time) onto
// both queues; the queues differ only in which end sales consume from.
// The engine owns its queues exclusively; runs never share one.
type LotEngine struct {
	fifo      lotQueue
	lifo      lotQueue
	nextLotID int64

	// Satoshi sold beyond what the tracked lots covered, per queue.
	// Not an error: the unmatched tail carries an implicit zero cost
	// basis (off-window acquisitions, mining income, faucets).
	UnmatchedFIFO int64
	UnmatchedLIFO int64
}

func NewLotEngine() *LotEngine { return &LotEngine{} }

// ProcessPurchase creates a lot for a purchase transaction and appends it
// to both queues.
func (e *LotEngine) ProcessPurchase(tx models.Transaction) {
	e.nextLotID++
	mk := func() *models.Lot {
		return &models.Lot{
			ID:           e.nextLotID,
			Qty:          tx.AmountIn,
			OrigQty:      tx.AmountIn,
			ExchangeRate: tx.ExchangeRate,
			BlockTime:    tx.BlockTime,
		}
	}
	e.fifo.push(mk())
	e.lifo.push(mk())
}

// MatchSaleFIFO consumes the sale quantity from the oldest lots first.
func (e *LotEngine) MatchSaleFIFO(tx models.Transaction) []models.LotMatch {
	matches, unmatched := matchSale(&e.fifo, true, tx)
	if unmatched > 0 {
		e.UnmatchedFIFO += unmatched
		logger.L.Warn("sale exceeds tracked lots, unmatched remainder treated as zero cost basis",
			"method", "fifo", "txid", tx.TxID, "unmatchedSatoshi", unmatched)
	}
	return matches
}

// MatchSaleLIFO consumes the sale quantity from the newest lots first.
func (e *LotEngine) MatchSaleLIFO(tx models.Transaction) []models.LotMatch {
	matches, unmatched := matchSale(&e.lifo, false, tx)
	if unmatched > 0 {
		e.UnmatchedLIFO += unmatched
		logger.L.Warn("sale exceeds tracked lots, unmatched remainder treated as zero cost basis",
			"method", "lifo", "txid", tx.TxID, "unmatchedSatoshi", unmatched)
	}
	return matches
}

// FIFOLots returns a copy of the remaining FIFO lots, oldest first.
func (e *LotEngine) FIFOLots() []models.Lot { return e.fifo.snapshot() }

// LIFOLots returns a copy of the remaining LIFO lots, oldest first.
func (e *LotEngine) LIFOLots() []models.Lot { return e.lifo.snapshot() }

func matchSale(q *lotQueue, fromFront bool, tx models.Transaction) ([]models.LotMatch, int64) {
	remaining := tx.AmountOut
	var matches []models.LotMatch
	for remaining > 0 && !q.empty() {
		lot := q.peek(fromFront)
		qty := utils.MinInt64(remaining, lot.Qty)

		proceeds := currency.BtcToFiat(qty, tx.ExchangeRate)
		costBasis := currency.BtcToFiat(qty, lot.ExchangeRate)

		matches = append(matches, models.LotMatch{
			LotID:          lot.ID,
			DateAcquired:   lot.BlockTime,
			DateSold:       tx.BlockTime,
			QtyMatched:     qty,
			OrigQty:        lot.OrigQty,
			CostBasisPrice: lot.ExchangeRate,
			SalePrice:      tx.ExchangeRate,
			Proceeds:       proceeds,
			CostBasis:      costBasis,
			RealizedGain:   proceeds - costBasis,
			LongTerm:       tx.BlockTime-lot.BlockTime > LongTermHoldSeconds,
		})

		lot.Qty -= qty
		remaining -= qty
		if lot.Qty == 0 {
			q.pop(fromFront)
		}
	}
	return matches, remaining
}
