package reports

import (
	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/processors"
	"github.com/username/bitgains/backend/src/utils"
)

// generateScheduleD emits one Form 8949-style row per in-window lot match,
// then a long-term net summary row and a short-term net summary row.
func generateScheduleD(res *processors.AggregateResult, opts Options) ([]models.Row, error) {
	matches, err := lotMatchesFor(res, opts.CostMethod)
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	var shortProceeds, shortCost, shortGain int64
	var longProceeds, longCost, longGain int64

	for _, m := range matches {
		if !m.InWindow {
			continue
		}
		if m.LongTerm {
			longProceeds += m.Proceeds
			longCost += m.CostBasis
			longGain += m.RealizedGain
		} else {
			shortProceeds += m.Proceeds
			shortCost += m.CostBasis
			shortGain += m.RealizedGain
		}

		var row models.Row
		row.Set("Description", currency.FormatBTC(m.QtyMatched)+" BTC")
		row.Set("Date Acquired", utils.FormatDate(m.DateAcquired))
		row.Set("Date Sold", utils.FormatDate(m.DateSold))
		row.Set("Proceeds", currency.FormatFiat(m.Proceeds))
		row.Set("Cost Basis", currency.FormatFiat(m.CostBasis))
		row.Set("Gain/Loss", currency.FormatFiat(m.RealizedGain))
		row.Set("Short/Long", shortLong(m.LongTerm))
		rows = append(rows, row)
	}

	summary := func(desc string, proceeds, cost, gain int64) models.Row {
		var row models.Row
		row.Set("Description", desc)
		row.Set("Date Acquired", "")
		row.Set("Date Sold", "")
		row.Set("Proceeds", currency.FormatFiat(proceeds))
		row.Set("Cost Basis", currency.FormatFiat(cost))
		row.Set("Gain/Loss", currency.FormatFiat(gain))
		row.Set("Short/Long", "")
		return row
	}
	rows = append(rows, summary("Net Summary Long", longProceeds, longCost, longGain))
	rows = append(rows, summary("Net Summary Short", shortProceeds, shortCost, shortGain))
	return rows, nil
}

func shortLong(longTerm bool) string {
	if longTerm {
		return "Long"
	}
	return "Short"
}
