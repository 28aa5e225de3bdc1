package reports

import (
	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/processors"
	"github.com/username/bitgains/backend/src/utils"
)

// generateMatrix emits the lot-matching matrix: one row per in-window lot
// match showing exactly which purchase funded which sale.
func generateMatrix(res *processors.AggregateResult, opts Options) ([]models.Row, error) {
	matches, err := lotMatchesFor(res, opts.CostMethod)
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	for _, m := range matches {
		if !m.InWindow {
			continue
		}
		var row models.Row
		row.Set("Date Purchased", utils.FormatDate(m.DateAcquired))
		row.Set("Original Amount", currency.FormatBTC(m.OrigQty))
		row.Set("Amount Sold", currency.FormatBTC(m.QtyMatched))
		row.Set("Cost Basis Price", currency.FormatFiat(m.CostBasisPrice))
		row.Set("Total Cost Basis", currency.FormatFiat(m.CostBasis))
		row.Set("Date Sold", utils.FormatDate(m.DateSold))
		row.Set("Sale Value Price", currency.FormatFiat(m.SalePrice))
		row.Set("Total Sale Value", currency.FormatFiat(m.Proceeds))
		row.Set("Realized Gain", currency.FormatFiat(m.RealizedGain))
		row.Set("Short/Long", shortLong(m.LongTerm))
		rows = append(rows, row)
	}
	return rows, nil
}
