package services

import (
	"context"
	"io"

	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/reports"
)

// PriceService answers BTC price questions in a fiat currency. Prices are
// integer cents per BTC.
type PriceService interface {
	// HistoricPrice returns the daily average price in force at the given
	// unix timestamp. A timestamp falling on the current UTC day resolves
	// to the 24-hour average instead of the (incomplete) daily series.
	HistoricPrice(ctx context.Context, currencyCode string, timestamp int64) (int64, error)
	// CurrentAvgPrice returns the 24-hour average price.
	CurrentAvgPrice(ctx context.Context, currencyCode string) (int64, error)
}

// ReportService runs one report end to end: movements in, report rows out.
type ReportService interface {
	GenerateReport(ctx context.Context, req ReportRequest) ([]models.Row, error)
	// FetchAddresses pulls movements for the given addresses from the
	// upstream API and stores them, priming later report runs.
	FetchAddresses(ctx context.Context, addresses []string) (int, error)
	ImportCSV(fileReader io.Reader, fiatCurrency string) (int, error)
}

// ReportRequest carries everything one report run needs.
type ReportRequest struct {
	Addresses       []string
	Currency        string
	ReportType      reports.ReportType
	Columns         []string
	CostMethod      string
	Direction       string
	DateStart       int64
	DateEnd         int64
	Summarize       bool
	IncludeTransfer bool
	DisableTransfer bool
	IncludeImported bool
}
