package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowSetAndGet(t *testing.T) {
	var r Row
	r.Set("Date", "2016-01-01")
	r.Set("BTC In", "1.00000000")
	r.Set("Date", "2016-01-02") // replaces, keeps position

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Date", "BTC In"}, r.Labels())
	assert.Equal(t, "2016-01-02", r.Get("Date"))
	assert.Equal(t, "", r.Get("Missing"))
}

func TestRowMarshalJSONKeepsOrder(t *testing.T) {
	var r Row
	r.Set("Z Last", "1")
	r.Set("A First", "2")
	r.Addr = "meta-not-serialized"

	buf, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"Z Last":"1","A First":"2"}`, string(buf))
}

func TestTransactionAmountAndDate(t *testing.T) {
	tx := Transaction{BlockTime: 1451606400, AmountIn: 5, AmountOut: 2}
	assert.Equal(t, int64(3), tx.Amount())
	assert.Equal(t, "2016-01-01", tx.Date())
}
