package processors

import (
	"fmt"
	"sort"

	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/models"
)

// CostMethod selects which accumulator populates the gain columns.
type CostMethod string

const (
	MethodFIFO         CostMethod = "fifo"
	MethodLIFO         CostMethod = "lifo"
	MethodAvgPeriodic  CostMethod = "avg_periodic"
	MethodAvgPerpetual CostMethod = "avg_perpetual"
)

// ParseCostMethod validates a cost-method name. An unknown name is a
// configuration error; it must be rejected before any accounting runs.
func ParseCostMethod(s string) (CostMethod, error) {
	switch CostMethod(s) {
	case MethodFIFO, MethodLIFO, MethodAvgPeriodic, MethodAvgPerpetual:
		return CostMethod(s), nil
	}
	return "", fmt.Errorf("invalid cost method %q (want fifo, lifo, avg_periodic or avg_perpetual)", s)
}

// Direction filters reported rows by movement direction.
type Direction string

const (
	DirIn   Direction = "in"
	DirOut  Direction = "out"
	DirBoth Direction = "both"
)

func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return DirBoth, nil
	}
	switch Direction(s) {
	case DirIn, DirOut, DirBoth:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q (want in, out or both)", s)
}

// AggregateOptions configures one aggregation pass. The date window and
// direction filter rows out of the report; they never affect balance
// accumulation. DateEnd must already be extended to end-of-day.
type AggregateOptions struct {
	CostMethod CostMethod
	Direction  Direction
	DateStart  int64 // unix, 0 = open
	DateEnd    int64 // unix inclusive, 0 = open
}

// RunningTotals accumulates across one chronological walk. One instance
// per report generation; never shared between runs.
type RunningTotals struct {
	BTCBalance           int64
	BTCBalancePeriod     int64
	FiatBalance          int64 // at acquisition-time rates
	FiatBalancePeriod    int64
	FiatBalanceNow       int64 // at the current price
	FiatBalanceNowPeriod int64

	// Period column sums for the totals row.
	SumBTCIn, SumBTCOut   int64
	SumFiatIn, SumFiatOut int64

	RealizedFIFOShort, RealizedFIFOLong int64
	RealizedLIFOShort, RealizedLIFOLong int64
	RealizedAvgPeriodic                 int64
	RealizedAvgPerpetual                int64

	PaperGain int64
}

// RealizedFor returns the cumulative realized gain for a cost method,
// short and long term combined.
func (rt *RunningTotals) RealizedFor(m CostMethod) int64 {
	switch m {
	case MethodFIFO:
		return rt.RealizedFIFOShort + rt.RealizedFIFOLong
	case MethodLIFO:
		return rt.RealizedLIFOShort + rt.RealizedLIFOLong
	case MethodAvgPeriodic:
		return rt.RealizedAvgPeriodic
	default:
		return rt.RealizedAvgPerpetual
	}
}

// UnrealizedFor is the paper gain not yet realized under a cost method.
func (rt *RunningTotals) UnrealizedFor(m CostMethod) int64 {
	return rt.PaperGain - rt.RealizedFor(m)
}

// ProcessedTx is one transaction with the totals snapshotted after it was
// applied. Report rows are rendered from these snapshots.
type ProcessedTx struct {
	Tx     models.Transaction
	Totals RunningTotals
}

// MatchRecord tags a lot match with whether its sale fell inside the
// reporting window.
type MatchRecord struct {
	models.LotMatch
	InWindow bool
}

// AggregateResult is everything one walk produces.
type AggregateResult struct {
	Rows        []ProcessedTx // window-filtered, processing order
	FIFOMatches []MatchRecord
	LIFOMatches []MatchRecord
	Totals      RunningTotals

	// WindowTotals is the state after the last transaction inside the
	// date window. Totals keep accumulating past the window end; report
	// bottom lines must read this snapshot instead.
	WindowTotals RunningTotals

	FIFOLots      []models.Lot // remaining holdings
	LIFOLots      []models.Lot
	UnmatchedFIFO int64
	UnmatchedLIFO int64
}

// Aggregator folds transactions into running balances and gain figures.
type Aggregator struct{}

func NewAggregator() *Aggregator { return &Aggregator{} }

// Aggregate walks the transactions once in chronological order, feeding
// purchases and sales through the lot engine and both average-cost
// accumulators. currentPrice is the trailing 24h price in cents per BTC.
// Row order is deterministic: block time ascending, then type name,
// then txid. Sales never consume a lot that did not yet exist.
func (a *Aggregator) Aggregate(txs []models.Transaction, currentPrice int64, opts AggregateOptions) *AggregateResult {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BlockTime != sorted[j].BlockTime {
			return sorted[i].BlockTime < sorted[j].BlockTime
		}
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		return sorted[i].TxID < sorted[j].TxID
	})

	engine := NewLotEngine()
	avgPeriodic := NewAvgPeriodic(sorted)
	avgPerpetual := NewAvgPerpetual()

	res := &AggregateResult{}
	rt := &res.Totals

	for _, tx := range sorted {
		rt.BTCBalance += tx.Amount()
		rt.FiatBalance += tx.FiatIn - tx.FiatOut
		rt.FiatBalanceNow += tx.FiatInNow - tx.FiatOutNow

		var fifoMatches, lifoMatches []models.LotMatch
		switch tx.Type {
		case models.TxPurchase:
			engine.ProcessPurchase(tx)
			avgPerpetual.Purchase(tx)
		case models.TxSale:
			fifoMatches = engine.MatchSaleFIFO(tx)
			lifoMatches = engine.MatchSaleLIFO(tx)
			for _, m := range fifoMatches {
				if m.LongTerm {
					rt.RealizedFIFOLong += m.RealizedGain
				} else {
					rt.RealizedFIFOShort += m.RealizedGain
				}
			}
			for _, m := range lifoMatches {
				if m.LongTerm {
					rt.RealizedLIFOLong += m.RealizedGain
				} else {
					rt.RealizedLIFOShort += m.RealizedGain
				}
			}
			avgPeriodic.Sale(tx)
			avgPerpetual.Sale(tx)
			rt.RealizedAvgPeriodic = avgPeriodic.Realized
			rt.RealizedAvgPerpetual = avgPerpetual.Realized
		case models.TxTransfer:
			// Transfers move balances, never lots.
		}

		inDates := a.inDateWindow(tx, opts)
		inWindow := inDates && a.matchesDirection(tx, opts)
		if inWindow {
			rt.BTCBalancePeriod += tx.Amount()
			rt.FiatBalancePeriod += tx.FiatIn - tx.FiatOut
			rt.FiatBalanceNowPeriod += tx.FiatInNow - tx.FiatOutNow
			rt.SumBTCIn += tx.AmountIn
			rt.SumBTCOut += tx.AmountOut
			rt.SumFiatIn += tx.FiatIn
			rt.SumFiatOut += tx.FiatOut
		}
		rt.PaperGain = currency.BtcToFiat(rt.BTCBalancePeriod, currentPrice) - rt.FiatBalancePeriod
		if inDates {
			res.WindowTotals = *rt
		}

		for _, m := range fifoMatches {
			res.FIFOMatches = append(res.FIFOMatches, MatchRecord{LotMatch: m, InWindow: inWindow})
		}
		for _, m := range lifoMatches {
			res.LIFOMatches = append(res.LIFOMatches, MatchRecord{LotMatch: m, InWindow: inWindow})
		}

		if inWindow {
			res.Rows = append(res.Rows, ProcessedTx{Tx: tx, Totals: *rt})
		}
	}

	res.FIFOLots = engine.FIFOLots()
	res.LIFOLots = engine.LIFOLots()
	res.UnmatchedFIFO = engine.UnmatchedFIFO
	res.UnmatchedLIFO = engine.UnmatchedLIFO
	return res
}

func (a *Aggregator) matchesDirection(tx models.Transaction, opts AggregateOptions) bool {
	switch opts.Direction {
	case DirIn:
		return tx.AmountIn != 0
	case DirOut:
		return tx.AmountOut != 0
	}
	return true
}

func (a *Aggregator) inDateWindow(tx models.Transaction, opts AggregateOptions) bool {
	if opts.DateStart != 0 && tx.BlockTime < opts.DateStart {
		return false
	}
	if opts.DateEnd != 0 && tx.BlockTime > opts.DateEnd {
		return false
	}
	return true
}
