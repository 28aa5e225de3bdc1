package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/models"
)

// ToshiClient reads address histories from a Toshi node.
type ToshiClient struct {
	BaseURL string
	Limit   int
	client  *http.Client
	limiter *rate.Limiter
}

type toshiTx struct {
	Hash      string    `json:"hash"`
	BlockTime time.Time `json:"block_time"`
	Inputs    []struct {
		Addresses []string `json:"addresses"`
		Amount    int64    `json:"amount"`
		Coinbase  bool     `json:"coinbase"`
	} `json:"inputs"`
	Outputs []struct {
		Addresses  []string `json:"addresses"`
		Amount     int64    `json:"amount"`
		ScriptType string   `json:"script_type"`
	} `json:"outputs"`
}

type toshiAddrResponse struct {
	Transactions []toshiTx `json:"transactions"`
}

func (c *ToshiClient) FetchMovements(ctx context.Context, addresses []string) ([]models.RawMovement, error) {
	var movements []models.RawMovement
	for _, addr := range addresses {
		txs, err := c.addressTransactions(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("toshi: address %s: %w", addr, err)
		}
		for _, tx := range txs {
			if m, ok := c.movementFor(addr, tx); ok {
				movements = append(movements, m)
			}
		}
	}
	return movements, nil
}

func (c *ToshiClient) addressTransactions(ctx context.Context, addr string) ([]toshiTx, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/api/v0/addresses/%s/transactions?limit=%d",
		c.BaseURL, url.PathEscape(addr), c.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// An address the node has never seen is an empty history, not an error.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload toshiAddrResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return payload.Transactions, nil
}

// movementFor reduces one transaction to the in/out amounts touching addr.
// Amounts are satoshis as reported by the node.
func (c *ToshiClient) movementFor(addr string, tx toshiTx) (models.RawMovement, bool) {
	var amountIn, amountOut int64

	for _, in := range tx.Inputs {
		if in.Coinbase || len(in.Addresses) == 0 {
			continue
		}
		if len(in.Addresses) != 1 {
			logger.L.Warn("Skipping multisig input", "txid", tx.Hash, "addresses", len(in.Addresses))
			continue
		}
		if in.Addresses[0] == addr {
			amountOut += in.Amount
		}
	}

	for _, out := range tx.Outputs {
		switch out.ScriptType {
		case "p2sh", "hash160", "pubkey":
		default:
			continue
		}
		if len(out.Addresses) != 1 {
			logger.L.Warn("Skipping multisig output", "txid", tx.Hash, "addresses", len(out.Addresses))
			continue
		}
		if out.Addresses[0] == addr {
			amountIn += out.Amount
		}
	}

	if amountIn == 0 && amountOut == 0 {
		return models.RawMovement{}, false
	}
	return models.RawMovement{
		BlockTime: tx.BlockTime.Unix(),
		Addr:      addr,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		TxID:      tx.Hash,
	}, true
}
