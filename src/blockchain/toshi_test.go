package blockchain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/username/bitgains/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

const toshiFixture = `{
  "transactions": [
    {
      "hash": "tx-plain",
      "block_time": "2016-01-01T00:00:00Z",
      "inputs": [
        {"addresses": ["1OtherAddr"], "amount": 600000000}
      ],
      "outputs": [
        {"addresses": ["1WatchedAddr"], "amount": 500000000, "script_type": "hash160"},
        {"addresses": ["1ChangeAddr"], "amount": 99000000, "script_type": "hash160"}
      ]
    },
    {
      "hash": "tx-coinbase",
      "block_time": "2016-01-02T00:00:00Z",
      "inputs": [
        {"addresses": [], "amount": 2500000000, "coinbase": true}
      ],
      "outputs": [
        {"addresses": ["1Miner"], "amount": 2500000000, "script_type": "hash160"}
      ]
    },
    {
      "hash": "tx-multisig",
      "block_time": "2016-01-03T00:00:00Z",
      "inputs": [
        {"addresses": ["1WatchedAddr"], "amount": 100000000}
      ],
      "outputs": [
        {"addresses": ["1A", "1B"], "amount": 50000000, "script_type": "hash160"},
        {"addresses": ["1WatchedAddr"], "amount": 40000000, "script_type": "nonstandard"}
      ]
    }
  ]
}`

func newToshiTestClient(serverURL string) *ToshiClient {
	return &ToshiClient{
		BaseURL: serverURL,
		Limit:   1000,
		client:  http.DefaultClient,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestToshiFetchMovements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/addresses/1WatchedAddr/transactions", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Write([]byte(toshiFixture))
	}))
	defer server.Close()

	movements, err := newToshiTestClient(server.URL).FetchMovements(context.Background(), []string{"1WatchedAddr"})
	require.NoError(t, err)
	require.Len(t, movements, 2)

	// Plain receive: 5 BTC in.
	assert.Equal(t, "tx-plain", movements[0].TxID)
	assert.Equal(t, int64(500000000), movements[0].AmountIn)
	assert.Equal(t, int64(0), movements[0].AmountOut)
	assert.Equal(t, int64(1451606400), movements[0].BlockTime)

	// The multisig output and the nonstandard-script output are ignored;
	// only the spend side of the watched address survives.
	assert.Equal(t, "tx-multisig", movements[1].TxID)
	assert.Equal(t, int64(0), movements[1].AmountIn)
	assert.Equal(t, int64(100000000), movements[1].AmountOut)
}

func TestToshiUnknownAddressIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	movements, err := newToshiTestClient(server.URL).FetchMovements(context.Background(), []string{"1NeverSeen"})
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestToshiUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newToshiTestClient(server.URL).FetchMovements(context.Background(), []string{"1WatchedAddr"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1WatchedAddr")
}
