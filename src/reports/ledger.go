package reports

import (
	"fmt"

	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/processors"
)

// Generate renders the aggregation result as report rows for the selected
// report type. Rows are ordered mappings of column label to formatted value
// plus addr/txid metadata for explorer links; serialization is a separate
// concern (see Write).
func Generate(res *processors.AggregateResult, opts Options) ([]models.Row, error) {
	switch opts.ReportType {
	case TypeLedger, "":
		return generateLedger(res, opts)
	case TypeScheduleD:
		return generateScheduleD(res, opts)
	case TypeMatrix:
		return generateMatrix(res, opts)
	}
	return nil, fmt.Errorf("invalid report type %q", opts.ReportType)
}

// generateLedger emits one row per in-window transaction, in processing
// order, followed by a totals row.
func generateLedger(res *processors.AggregateResult, opts Options) ([]models.Row, error) {
	defs, err := resolveColumns(opts.Columns)
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	for _, p := range res.Rows {
		var row models.Row
		for _, d := range defs {
			row.Set(d.label(opts), d.value(p, opts))
		}
		row.Addr = p.Tx.Addr
		row.TxID = p.Tx.TxID
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		// The totals row reflects the state at the window end. The final
		// RunningTotals keep accumulating through later, filtered-out
		// transactions and must not leak in here.
		var totals models.Row
		for _, d := range defs {
			v := ""
			if d.total != nil {
				v = d.total(res.WindowTotals, opts)
			}
			totals.Set(d.label(opts), v)
		}
		rows = append(rows, totals)
	}
	return rows, nil
}

// lotMatchesFor picks the match stream for a lot-based cost method.
// The average-cost methods have no per-lot pairings to report.
func lotMatchesFor(res *processors.AggregateResult, method processors.CostMethod) ([]processors.MatchRecord, error) {
	switch method {
	case processors.MethodFIFO:
		return res.FIFOMatches, nil
	case processors.MethodLIFO:
		return res.LIFOMatches, nil
	}
	return nil, fmt.Errorf("cost method %q has no lot matches; use fifo or lifo for this report", method)
}
