package database

import (
	"fmt"

	"github.com/username/bitgains/backend/src/models"
)

// SaveMovements upserts fetched raw movements so a later report run for the
// same addresses can reuse them without hitting the upstream API.
func SaveMovements(movements []models.RawMovement) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("begin movements transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO movements (addr, txid, block_time, amount_in, amount_out)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(addr, txid) DO UPDATE SET
			block_time = excluded.block_time,
			amount_in = excluded.amount_in,
			amount_out = excluded.amount_out,
			fetched_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("prepare movements upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range movements {
		if _, err := stmt.Exec(m.Addr, m.TxID, m.BlockTime, m.AmountIn, m.AmountOut); err != nil {
			return fmt.Errorf("upsert movement %s/%s: %w", m.Addr, m.TxID, err)
		}
	}
	return tx.Commit()
}

// LoadMovements returns the stored movements for the given addresses in
// block-time order.
func LoadMovements(addresses []string) ([]models.RawMovement, error) {
	var movements []models.RawMovement
	for _, addr := range addresses {
		rows, err := DB.Query(`
			SELECT addr, txid, block_time, amount_in, amount_out
			FROM movements WHERE addr = ? ORDER BY block_time, txid`, addr)
		if err != nil {
			return nil, fmt.Errorf("load movements for %s: %w", addr, err)
		}
		for rows.Next() {
			var m models.RawMovement
			if err := rows.Scan(&m.Addr, &m.TxID, &m.BlockTime, &m.AmountIn, &m.AmountOut); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan movement: %w", err)
			}
			movements = append(movements, m)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return movements, nil
}

// SavePrice records one daily closing price. Date is a YYYY-MM-DD string.
func SavePrice(currencyCode, date string, cents int64) error {
	_, err := DB.Exec(`
		INSERT INTO prices (currency, date, cents) VALUES (?, ?, ?)
		ON CONFLICT(currency, date) DO UPDATE SET cents = excluded.cents`,
		currencyCode, date, cents)
	if err != nil {
		return fmt.Errorf("save price %s %s: %w", currencyCode, date, err)
	}
	return nil
}

// LoadPrices returns the full stored daily series for a currency keyed by
// YYYY-MM-DD date.
func LoadPrices(currencyCode string) (map[string]int64, error) {
	rows, err := DB.Query(`SELECT date, cents FROM prices WHERE currency = ?`, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("load prices for %s: %w", currencyCode, err)
	}
	defer rows.Close()

	prices := make(map[string]int64)
	for rows.Next() {
		var date string
		var cents int64
		if err := rows.Scan(&date, &cents); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices[date] = cents
	}
	return prices, rows.Err()
}

// SaveImportedTransactions stores transactions from a CSV upload.
func SaveImportedTransactions(txs []models.Transaction) error {
	dbTx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT INTO imported_transactions
			(block_time, addr, txid, amount_in, amount_out, exchange_rate,
			 fiat_in, fiat_out, fiat_currency, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.Exec(t.BlockTime, t.Addr, t.TxID, t.AmountIn, t.AmountOut,
			t.ExchangeRate, t.FiatIn, t.FiatOut, t.FiatCurrency, string(t.Type))
		if err != nil {
			return fmt.Errorf("insert imported transaction %s: %w", t.TxID, err)
		}
	}
	return dbTx.Commit()
}

// LoadImportedTransactions returns all stored CSV-imported transactions in
// block-time order.
func LoadImportedTransactions() ([]models.Transaction, error) {
	rows, err := DB.Query(`
		SELECT block_time, addr, txid, amount_in, amount_out, exchange_rate,
		       fiat_in, fiat_out, fiat_currency, type
		FROM imported_transactions ORDER BY block_time, txid`)
	if err != nil {
		return nil, fmt.Errorf("load imported transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var txType string
		if err := rows.Scan(&t.BlockTime, &t.Addr, &t.TxID, &t.AmountIn, &t.AmountOut,
			&t.ExchangeRate, &t.FiatIn, &t.FiatOut, &t.FiatCurrency, &txType); err != nil {
			return nil, fmt.Errorf("scan imported transaction: %w", err)
		}
		t.Type = models.TxType(txType)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
