package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/username/bitgains/backend/src/blockchain"
	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/database"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/parsers"
	"github.com/username/bitgains/backend/src/processors"
	"github.com/username/bitgains/backend/src/reports"
)

// reportServiceImpl wires the fetch, normalize, price, match and report
// stages into one run. Each GenerateReport call builds fresh engine state.
type reportServiceImpl struct {
	source blockchain.Source
	prices PriceService
}

func NewReportService(source blockchain.Source, prices PriceService) ReportService {
	return &reportServiceImpl{source: source, prices: prices}
}

func (s *reportServiceImpl) GenerateReport(ctx context.Context, req ReportRequest) ([]models.Row, error) {
	fiatCurrency := strings.ToUpper(req.Currency)

	costMethod, err := processors.ParseCostMethod(req.CostMethod)
	if err != nil {
		return nil, err
	}
	direction, err := processors.ParseDirection(req.Direction)
	if err != nil {
		return nil, err
	}

	txs, err := s.loadTransactions(ctx, req, fiatCurrency)
	if err != nil {
		return nil, err
	}

	currentPrice, err := s.prices.CurrentAvgPrice(ctx, fiatCurrency)
	if err != nil {
		return nil, fmt.Errorf("current price: %w", err)
	}

	aggregator := processors.NewAggregator()
	result := aggregator.Aggregate(txs, currentPrice, processors.AggregateOptions{
		CostMethod: costMethod,
		Direction:  direction,
		DateStart:  req.DateStart,
		DateEnd:    req.DateEnd,
	})

	return reports.Generate(result, reports.Options{
		ReportType: req.ReportType,
		Columns:    req.Columns,
		CostMethod: costMethod,
		Currency:   fiatCurrency,
	})
}

// loadTransactions produces the fully priced transaction stream: fetched
// movements run through normalization and price enrichment, CSV imports are
// appended as-is since they already carry their rates and types.
func (s *reportServiceImpl) loadTransactions(ctx context.Context, req ReportRequest, fiatCurrency string) ([]models.Transaction, error) {
	var txs []models.Transaction

	if len(req.Addresses) > 0 {
		movements, err := s.fetchMovements(ctx, req.Addresses)
		if err != nil {
			return nil, err
		}

		normalizer := processors.NewNormalizer()
		normalized := normalizer.Normalize(movements, processors.NormalizeOptions{
			Summarize:       req.Summarize,
			DisableTransfer: req.DisableTransfer,
			IncludeTransfer: req.IncludeTransfer,
		})

		for i := range normalized {
			if err := s.enrich(ctx, &normalized[i], fiatCurrency); err != nil {
				return nil, err
			}
		}
		txs = append(txs, normalized...)
	}

	if req.IncludeImported && database.DB != nil {
		imported, err := database.LoadImportedTransactions()
		if err != nil {
			return nil, err
		}
		for _, tx := range imported {
			if tx.FiatCurrency != fiatCurrency {
				logger.L.Warn("Skipping imported transaction in different currency",
					"txid", tx.TxID, "currency", tx.FiatCurrency, "want", fiatCurrency)
				continue
			}
			txs = append(txs, tx)
		}
	}

	return txs, nil
}

func (s *reportServiceImpl) fetchMovements(ctx context.Context, addresses []string) ([]models.RawMovement, error) {
	movements, err := s.source.FetchMovements(ctx, addresses)
	if err != nil {
		// Stored movements from an earlier run keep reports working when
		// the upstream API is down.
		if database.DB != nil {
			stored, loadErr := database.LoadMovements(addresses)
			if loadErr == nil && len(stored) > 0 {
				logger.L.Warn("Upstream fetch failed, using stored movements", "error", err)
				return stored, nil
			}
		}
		return nil, fmt.Errorf("fetching movements: %w", err)
	}

	if database.DB != nil {
		if err := database.SaveMovements(movements); err != nil {
			logger.L.Warn("Failed to persist fetched movements", "error", err)
		}
	}
	return movements, nil
}

// FetchAddresses is the explicit priming path. Unlike a report run it does
// not fall back to stored movements on upstream failure.
func (s *reportServiceImpl) FetchAddresses(ctx context.Context, addresses []string) (int, error) {
	if len(addresses) == 0 {
		return 0, fmt.Errorf("at least one address is required")
	}
	movements, err := s.source.FetchMovements(ctx, addresses)
	if err != nil {
		return 0, fmt.Errorf("fetching movements: %w", err)
	}
	if database.DB != nil {
		if err := database.SaveMovements(movements); err != nil {
			return 0, fmt.Errorf("storing fetched movements: %w", err)
		}
	}
	return len(movements), nil
}

// enrich fills the price-derived fields of one normalized transaction.
func (s *reportServiceImpl) enrich(ctx context.Context, tx *models.Transaction, fiatCurrency string) error {
	rate, err := s.prices.HistoricPrice(ctx, fiatCurrency, tx.BlockTime)
	if err != nil {
		return err
	}
	rateNow, err := s.prices.CurrentAvgPrice(ctx, fiatCurrency)
	if err != nil {
		return err
	}

	tx.ExchangeRate = rate
	tx.ExchangeRateNow = rateNow
	tx.FiatCurrency = fiatCurrency
	tx.FiatIn = currency.BtcToFiat(tx.AmountIn, rate)
	tx.FiatOut = currency.BtcToFiat(tx.AmountOut, rate)
	tx.FiatInNow = currency.BtcToFiat(tx.AmountIn, rateNow)
	tx.FiatOutNow = currency.BtcToFiat(tx.AmountOut, rateNow)
	return nil
}

func (s *reportServiceImpl) ImportCSV(fileReader io.Reader, fiatCurrency string) (int, error) {
	parser := parsers.NewWalletCSVParser(strings.ToUpper(fiatCurrency))
	txs, err := parser.Parse(fileReader)
	if err != nil {
		return 0, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}
	if database.DB != nil {
		if err := database.SaveImportedTransactions(txs); err != nil {
			return 0, fmt.Errorf("storing imported transactions: %w", err)
		}
	}
	return len(txs), nil
}
