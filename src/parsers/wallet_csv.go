package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/models"
	"github.com/username/bitgains/backend/src/security/validation"
	"github.com/username/bitgains/backend/src/utils"
)

// Wallet export column order. Header row is required and checked loosely
// (count only), since exports vary in capitalization.
//
//	date, destination, note, amount, asset, spot value, total value, tax type, category
const walletCSVColumns = 9

type WalletCSVParser struct {
	Currency string
}

func NewWalletCSVParser(fiatCurrency string) *WalletCSVParser {
	return &WalletCSVParser{Currency: fiatCurrency}
}

func (p *WalletCSVParser) Parse(file io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < walletCSVColumns {
		return nil, fmt.Errorf("wallet CSV header has %d columns, want %d", len(header), walletCSVColumns)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	var txs []models.Transaction
	for i, record := range records {
		if len(record) < walletCSVColumns {
			logger.L.Warn("Skipping short CSV row", "row", i+2, "columns", len(record))
			continue
		}
		tx, err := p.parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if tx == nil {
			continue
		}
		txs = append(txs, *tx)
	}
	return txs, nil
}

// sanitizeField cleans free-text CSV fields that later land in report cells.
func sanitizeField(s string) string {
	return validation.SanitizeForFormulaInjection(validation.StripUnprintable(strings.TrimSpace(s)))
}

func (p *WalletCSVParser) parseRow(record []string) (*models.Transaction, error) {
	date := strings.TrimSpace(record[0])
	destination := sanitizeField(record[1])
	note := sanitizeField(record[2])
	amountStr := strings.TrimSpace(record[3])
	asset := strings.TrimSpace(record[4])
	spotValue := strings.TrimSpace(record[5])
	totalValue := strings.TrimSpace(record[6])
	taxType := strings.ToLower(strings.TrimSpace(record[7]))

	if !strings.EqualFold(asset, "BTC") {
		logger.L.Warn("Skipping non-BTC asset row", "asset", asset, "note", note)
		return nil, nil
	}

	blockTime, err := utils.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	amount, err := currency.ParseBTC(amountStr)
	if err != nil {
		return nil, err
	}
	rate, err := currency.ParseFiat(spotValue)
	if err != nil {
		return nil, fmt.Errorf("spot value: %w", err)
	}
	total, err := currency.ParseFiat(totalValue)
	if err != nil {
		return nil, fmt.Errorf("total value: %w", err)
	}
	// Exports carry the total as a signed value; the row direction comes
	// from the amount sign.
	total = utils.AbsInt64(total)

	var txType models.TxType
	switch taxType {
	case "purchase", "income", "buy":
		txType = models.TxPurchase
	case "sale", "spend", "sell":
		txType = models.TxSale
	case "transfer":
		txType = models.TxTransfer
	default:
		return nil, fmt.Errorf("unknown tax type %q", record[7])
	}

	tx := &models.Transaction{
		BlockTime:    blockTime,
		Addr:         destination,
		TxID:         note,
		ExchangeRate: rate,
		FiatCurrency: strings.ToUpper(p.Currency),
		Type:         txType,
	}
	switch {
	case amount > 0:
		tx.AmountIn = amount
		tx.FiatIn = total
	case amount < 0:
		tx.AmountOut = -amount
		tx.FiatOut = total
	default:
		// Zero-amount rows carry no economic effect.
		logger.L.Warn("Skipping zero-amount row", "note", note)
		return nil, nil
	}
	return tx, nil
}
