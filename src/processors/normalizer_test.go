package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bitgains/backend/src/models"
)

func movement(blockTime int64, addr, txid string, in, out int64) models.RawMovement {
	return models.RawMovement{
		BlockTime: blockTime,
		Addr:      addr,
		TxID:      txid,
		AmountIn:  in,
		AmountOut: out,
	}
}

func TestNormalizeClassifiesByNetDirection(t *testing.T) {
	n := NewNormalizer()
	movs := []models.RawMovement{
		movement(100, "addr1", "tx-a", 5*btc, 0),
		movement(200, "addr1", "tx-b", 0, 2*btc),
	}
	txs := n.Normalize(movs, NormalizeOptions{Summarize: true})

	require.Len(t, txs, 2)
	assert.Equal(t, models.TxPurchase, txs[0].Type)
	assert.Equal(t, int64(5*btc), txs[0].AmountIn)
	assert.Equal(t, int64(0), txs[0].AmountOut)

	assert.Equal(t, models.TxSale, txs[1].Type)
	assert.Equal(t, int64(2*btc), txs[1].AmountOut)
}

func TestNormalizeMergesSharedTxID(t *testing.T) {
	// A spend with change: 5 BTC out and 3 BTC back on the same txid nets
	// to a single 2 BTC sale.
	n := NewNormalizer()
	movs := []models.RawMovement{
		movement(100, "addr1", "tx-a", 0, 5*btc),
		movement(100, "addr2", "tx-a", 3*btc, 0),
	}
	txs := n.Normalize(movs, NormalizeOptions{Summarize: true})

	require.Len(t, txs, 1)
	assert.Equal(t, models.TxSale, txs[0].Type)
	assert.Equal(t, int64(2*btc), txs[0].AmountOut)
	assert.Equal(t, "tx-a", txs[0].TxID)
}

func TestNormalizeWithoutSummarizeKeepsRows(t *testing.T) {
	n := NewNormalizer()
	movs := []models.RawMovement{
		movement(100, "addr1", "tx-a", 0, 5*btc),
		movement(100, "addr2", "tx-a", 3*btc, 0),
	}
	txs := n.Normalize(movs, NormalizeOptions{Summarize: false, IncludeTransfer: true})

	// Unmerged rows see each other through the txid totals: the 3 BTC
	// arriving at addr2 came from the watched set, so it is a transfer,
	// and 3 of addr1's 5 outbound BTC went to the watched set.
	require.Len(t, txs, 3)

	assert.Equal(t, models.TxTransfer, txs[0].Type)
	assert.Equal(t, int64(3*btc), txs[0].AmountOut)
	assert.Equal(t, "addr1", txs[0].Addr)

	assert.Equal(t, models.TxSale, txs[1].Type)
	assert.Equal(t, int64(2*btc), txs[1].AmountOut)

	assert.Equal(t, models.TxTransfer, txs[2].Type)
	assert.Equal(t, int64(3*btc), txs[2].AmountIn)
	assert.Equal(t, "addr2", txs[2].Addr)
}

func TestNormalizeNetZeroIsTransfer(t *testing.T) {
	n := NewNormalizer()
	movs := []models.RawMovement{
		movement(100, "addr1", "tx-a", 0, 4*btc),
		movement(100, "addr2", "tx-a", 4*btc, 0),
	}

	txs := n.Normalize(movs, NormalizeOptions{Summarize: true, IncludeTransfer: true})
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxTransfer, txs[0].Type)
	assert.Equal(t, int64(0), txs[0].Amount())

	// Without IncludeTransfer the row disappears entirely.
	txs = n.Normalize(movs, NormalizeOptions{Summarize: true})
	assert.Empty(t, txs)
}

func TestNormalizeDisableTransfer(t *testing.T) {
	n := NewNormalizer()
	movs := []models.RawMovement{
		movement(100, "addr1", "tx-a", 0, 5*btc),
		movement(100, "addr2", "tx-a", 3*btc, 0),
	}
	txs := n.Normalize(movs, NormalizeOptions{Summarize: false, DisableTransfer: true, IncludeTransfer: true})

	require.Len(t, txs, 2)
	assert.Equal(t, models.TxSale, txs[0].Type)
	assert.Equal(t, int64(5*btc), txs[0].AmountOut)
	assert.Equal(t, models.TxPurchase, txs[1].Type)
	assert.Equal(t, int64(3*btc), txs[1].AmountIn)
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer()
	movs := []models.RawMovement{
		movement(100, "addr1", "tx-a", 5*btc, 0),
		movement(150, "addr1", "tx-b", 0, 2*btc),
		movement(150, "addr2", "tx-b", 1*btc, 0),
	}
	opts := NormalizeOptions{Summarize: true, IncludeTransfer: true}
	first := n.Normalize(movs, opts)
	second := n.Normalize(movs, opts)
	assert.Equal(t, first, second)
}
