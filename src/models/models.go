package models

import "time"

// TxType classifies a normalized transaction. The string values matter:
// chronological ties are broken by ordering the type names, so a purchase
// dated identically to a sale is always processed first.
type TxType string

const (
	TxPurchase TxType = "purchase"
	TxSale     TxType = "sale"
	TxTransfer TxType = "transfer"
)

// RawMovement is one address's inbound or outbound value in one on-chain
// transaction, as reported by a blockchain data source. Amounts are satoshi.
// Several RawMovements may share a TxID (change outputs, multiple watched
// addresses touched by the same transaction).
type RawMovement struct {
	BlockTime int64  `json:"block_time"` // unix seconds, UTC
	Addr      string `json:"addr"`
	AmountIn  int64  `json:"amount_in"`
	AmountOut int64  `json:"amount_out"`
	TxID      string `json:"txid"`
}

// Transaction is a normalized, classified value movement. Exactly one of
// AmountIn/AmountOut is nonzero after normalization; satoshi amounts,
// fiat amounts in cents, exchange rates in cents per BTC.
type Transaction struct {
	BlockTime       int64
	Addr            string
	AmountIn        int64
	AmountOut       int64
	TxID            string
	ExchangeRate    int64 // historic price at the block date
	ExchangeRateNow int64 // trailing 24h price at report time
	FiatIn          int64
	FiatOut         int64
	FiatInNow       int64
	FiatOutNow      int64
	FiatCurrency    string
	Type            TxType
}

// Amount returns the authoritative net amount, positive for inbound.
func (t Transaction) Amount() int64 { return t.AmountIn - t.AmountOut }

// Date returns the UTC calendar date of the block time.
func (t Transaction) Date() string {
	return time.Unix(t.BlockTime, 0).UTC().Format("2006-01-02")
}

// Lot is a quantity of BTC acquired at a single purchase event. Qty is the
// remaining unsold satoshi and is the only mutable field; a lot is retired
// from its queue when Qty reaches zero.
type Lot struct {
	ID           int64
	Qty          int64
	OrigQty      int64
	ExchangeRate int64
	BlockTime    int64
}

// LotMatch pairs part of a sale with part of a previously acquired lot.
// Produced by the lot engine and consumed immediately by the aggregator and
// the schedule D / matrix reports; never persisted.
type LotMatch struct {
	LotID          int64
	DateAcquired   int64
	DateSold       int64
	QtyMatched     int64
	OrigQty        int64
	CostBasisPrice int64
	SalePrice      int64
	Proceeds       int64
	CostBasis      int64
	RealizedGain   int64
	LongTerm       bool
}
