package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/username/bitgains/backend/src/currency"
	"github.com/username/bitgains/backend/src/logger"
	"github.com/username/bitgains/backend/src/models"
)

// InsightClient reads address histories from an Insight API server.
// Insight reports values as BTC decimal strings rather than satoshis.
type InsightClient struct {
	BaseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type insightTx struct {
	TxID string `json:"txid"`
	Time int64  `json:"time"`
	Vin  []struct {
		Addr     string      `json:"addr"`
		Value    json.Number `json:"value"`
		Coinbase string      `json:"coinbase"`
	} `json:"vin"`
	Vout []struct {
		Value        json.Number `json:"value"`
		ScriptPubKey struct {
			Addresses []string `json:"addresses"`
			Type      string   `json:"type"`
		} `json:"scriptPubKey"`
	} `json:"vout"`
}

type insightTxsResponse struct {
	Txs []insightTx `json:"txs"`
}

func (c *InsightClient) FetchMovements(ctx context.Context, addresses []string) ([]models.RawMovement, error) {
	var movements []models.RawMovement
	for _, addr := range addresses {
		txs, err := c.addressTransactions(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("insight: address %s: %w", addr, err)
		}
		for _, tx := range txs {
			m, ok, err := c.movementFor(addr, tx)
			if err != nil {
				return nil, fmt.Errorf("insight: tx %s: %w", tx.TxID, err)
			}
			if ok {
				movements = append(movements, m)
			}
		}
	}
	return movements, nil
}

func (c *InsightClient) addressTransactions(ctx context.Context, addr string) ([]insightTx, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/api/txs?address=%s", c.BaseURL, url.QueryEscape(addr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload insightTxsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return payload.Txs, nil
}

func (c *InsightClient) movementFor(addr string, tx insightTx) (models.RawMovement, bool, error) {
	var amountIn, amountOut int64

	for _, in := range tx.Vin {
		if in.Coinbase != "" || in.Addr == "" {
			continue
		}
		if in.Addr != addr {
			continue
		}
		v, err := currency.ParseBTC(in.Value.String())
		if err != nil {
			return models.RawMovement{}, false, fmt.Errorf("input value %q: %w", in.Value, err)
		}
		amountOut += v
	}

	for _, out := range tx.Vout {
		if out.ScriptPubKey.Type == "multisig" {
			logger.L.Warn("Skipping multisig output", "txid", tx.TxID)
			continue
		}
		if len(out.ScriptPubKey.Addresses) != 1 {
			continue
		}
		if out.ScriptPubKey.Addresses[0] != addr {
			continue
		}
		v, err := currency.ParseBTC(out.Value.String())
		if err != nil {
			return models.RawMovement{}, false, fmt.Errorf("output value %q: %w", out.Value, err)
		}
		amountIn += v
	}

	if amountIn == 0 && amountOut == 0 {
		return models.RawMovement{}, false, nil
	}
	return models.RawMovement{
		BlockTime: tx.Time,
		Addr:      addr,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		TxID:      tx.TxID,
	}, true, nil
}
