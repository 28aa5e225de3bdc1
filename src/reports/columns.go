package reports

import (
	"fmt"
	"strings"

	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/processors"
	"github.com/username/bitgains/backend/src/utils"
)

// ReportType selects one of the three row shapes.
type ReportType string

const (
	TypeLedger    ReportType = "ledger"
	TypeScheduleD ReportType = "schedule_d"
	TypeMatrix    ReportType = "matrix"
)

// ParseReportType validates a report type name before any accounting runs.
func ParseReportType(s string) (ReportType, error) {
	if s == "" {
		return TypeLedger, nil
	}
	switch ReportType(s) {
	case TypeLedger, TypeScheduleD, TypeMatrix:
		return ReportType(s), nil
	}
	return "", fmt.Errorf("invalid report type %q (want ledger, schedule_d or matrix)", s)
}

// Options configures report-row generation. Currency affects column labels
// only; all arithmetic happened upstream.
type Options struct {
	ReportType ReportType
	Columns    []string // ledger column ids; empty selects the default set
	CostMethod processors.CostMethod
	Currency   string
}

// DefaultLedgerColumns is the column set used when none are requested.
var DefaultLedgerColumns = []string{
	"date", "time", "addrshort", "btcin", "btcout", "btcbalance",
	"fiatin", "fiatout", "fiatbalance", "fiatprice",
}

// columnDef renders one output column of the ledger report. value reads a
// processed transaction and its totals snapshot; total, when set, supplies
// the totals-row cell.
type columnDef struct {
	label func(o Options) string
	value func(p processors.ProcessedTx, o Options) string
	total func(t processors.RunningTotals, o Options) string
}

func fixedLabel(l string) func(Options) string {
	return func(Options) string { return l }
}

func fiatLabel(suffix string) func(Options) string {
	return func(o Options) string {
		return strings.ToUpper(o.Currency) + " " + suffix
	}
}

// ledgerColumns maps a requested column id to the columns it expands to.
// A registry of pure functions; report-row assembly never reaches back
// into the accounting engine.
var ledgerColumns = map[string][]columnDef{
	"date": {{
		label: fixedLabel("Date"),
		value: func(p processors.ProcessedTx, _ Options) string { return utils.FormatDate(p.Tx.BlockTime) },
		total: func(processors.RunningTotals, Options) string { return "Totals" },
	}},
	"time": {{
		label: fixedLabel("Time"),
		value: func(p processors.ProcessedTx, _ Options) string { return utils.FormatTime(p.Tx.BlockTime) },
	}},
	"addrshort": {{
		label: fixedLabel("Addr Short"),
		value: func(p processors.ProcessedTx, _ Options) string { return utils.ShortenID(p.Tx.Addr) },
	}},
	"address": {{
		label: fixedLabel("Address"),
		value: func(p processors.ProcessedTx, _ Options) string { return p.Tx.Addr },
	}},
	"btcin": {{
		label: fixedLabel("BTC In"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatBTC(p.Tx.AmountIn) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatBTC(t.SumBTCIn) },
	}},
	"btcout": {{
		label: fixedLabel("BTC Out"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatBTC(p.Tx.AmountOut) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatBTC(t.SumBTCOut) },
	}},
	"btcbalance": {{
		label: fixedLabel("BTC Balance"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatBTC(p.Totals.BTCBalance) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatBTC(t.BTCBalance) },
	}},
	"btcbalanceperiod": {{
		label: fixedLabel("BTC Balance Period"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatBTC(p.Totals.BTCBalancePeriod) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatBTC(t.BTCBalancePeriod) },
	}},
	"fiatin": {{
		label: fiatLabel("In"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Tx.FiatIn) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.SumFiatIn) },
	}},
	"fiatout": {{
		label: fiatLabel("Out"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Tx.FiatOut) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.SumFiatOut) },
	}},
	"fiatbalance": {{
		label: fiatLabel("Balance"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.FiatBalance) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.FiatBalance) },
	}},
	"fiatbalanceperiod": {{
		label: fiatLabel("Balance Period"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.FiatBalancePeriod) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.FiatBalancePeriod) },
	}},
	"fiatbalancenow": {{
		label: fiatLabel("Balance Now"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.FiatBalanceNow) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.FiatBalanceNow) },
	}},
	"fiatbalancenowperiod": {{
		label: fiatLabel("Balance Now Period"),
		value: func(p processors.ProcessedTx, _ Options) string {
			return currency.FormatFiat(p.Totals.FiatBalanceNowPeriod)
		},
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.FiatBalanceNowPeriod) },
	}},
	"fiatprice": {{
		label: fiatLabel("Price"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Tx.ExchangeRate) },
	}},
	"txshort": {{
		label: fixedLabel("Tx Short"),
		value: func(p processors.ProcessedTx, _ Options) string { return utils.ShortenID(p.Tx.TxID) },
	}},
	"tx": {{
		label: fixedLabel("Tx"),
		value: func(p processors.ProcessedTx, _ Options) string { return p.Tx.TxID },
	}},
	"type": {{
		label: fixedLabel("Type"),
		value: func(p processors.ProcessedTx, _ Options) string { return string(p.Tx.Type) },
	}},
	"gainlossfifo": {
		{
			label: fixedLabel("Realized Gain (FIFO, Short)"),
			value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.RealizedFIFOShort) },
			total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.RealizedFIFOShort) },
		},
		{
			label: fixedLabel("Realized Gain (FIFO, Long)"),
			value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.RealizedFIFOLong) },
			total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.RealizedFIFOLong) },
		},
	},
	"gainlosslifo": {
		{
			label: fixedLabel("Realized Gain (LIFO, Short)"),
			value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.RealizedLIFOShort) },
			total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.RealizedLIFOShort) },
		},
		{
			label: fixedLabel("Realized Gain (LIFO, Long)"),
			value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.RealizedLIFOLong) },
			total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.RealizedLIFOLong) },
		},
	},
	"gainlossavgperiodic": {{
		label: fixedLabel("Realized Gain (AvCost Periodic)"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.RealizedAvgPeriodic) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.RealizedAvgPeriodic) },
	}},
	"gainlossavgperpetual": {{
		label: fixedLabel("Realized Gain (AvCost Perpetual)"),
		value: func(p processors.ProcessedTx, _ Options) string { return currency.FormatFiat(p.Totals.RealizedAvgPerpetual) },
		total: func(t processors.RunningTotals, _ Options) string { return currency.FormatFiat(t.RealizedAvgPerpetual) },
	}},
	"unrealizedgain": {{
		label: fixedLabel("Unrealized Gain"),
		value: func(p processors.ProcessedTx, o Options) string {
			return currency.FormatFiat(p.Totals.UnrealizedFor(o.CostMethod))
		},
		total: func(t processors.RunningTotals, o Options) string {
			return currency.FormatFiat(t.UnrealizedFor(o.CostMethod))
		},
	}},
}

// resolveColumns expands requested column ids into column definitions.
// An unknown id is a configuration error.
func resolveColumns(ids []string) ([]columnDef, error) {
	if len(ids) == 0 {
		ids = DefaultLedgerColumns
	}
	var defs []columnDef
	for _, id := range ids {
		cols, ok := ledgerColumns[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("unknown report column %q", id)
		}
		defs = append(defs, cols...)
	}
	return defs, nil
}
