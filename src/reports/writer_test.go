package reports

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bitgains/backend/src/models"
)

func sampleRows() []models.Row {
	var r1, r2 models.Row
	r1.Set("Date", "2016-01-01")
	r1.Set("BTC In", "10.00000000")
	r1.Set("Type", "purchase")
	r1.Addr = "1PurchaseAddrAAAAAAAAAAAAAAAAAAAAA"
	r1.TxID = "aa01"

	r2.Set("Date", "2016-03-01")
	r2.Set("BTC In", "0.00000000")
	r2.Set("Type", "sale")
	return []models.Row{r1, r2}
}

func TestWriteFixedWidth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows(), FormatText))
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6) // border, header, border, two rows, border
	assert.True(t, strings.HasPrefix(lines[0], "+-"))
	assert.Contains(t, lines[1], "| Date")
	assert.Contains(t, lines[1], "| BTC In")

	// Every line of the table has the same width.
	for _, line := range lines[1:] {
		assert.Equal(t, len(lines[0]), len(line))
	}

	// Numeric cells are right-aligned, text cells left-aligned.
	assert.Contains(t, out, "|  0.00000000 |")
	assert.Contains(t, out, "| sale     |")
}

func TestWriteFixedWidthEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, FormatText))
	assert.Equal(t, "+------------+\n| No results |\n+------------+\n", buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows(), FormatCSV))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,BTC In,Type", lines[0])
	assert.Equal(t, "2016-01-01,10.00000000,purchase", lines[1])
}

func TestWriteJSONPreservesColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows(), FormatJSON))

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(out, `[{"Date":"2016-01-01","BTC In":"10.00000000","Type":"purchase"}`))

	// Still valid JSON.
	var decoded []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "sale", decoded[1]["Type"])
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, FormatJSON))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteHTML(t *testing.T) {
	var rows []models.Row
	var r models.Row
	r.Set("Date", "2016-01-01")
	r.Set("Address", "1Addr<script>")
	r.Set("Tx", "aa01")
	r.Addr = "1Addr<script>"
	r.TxID = "aa01"
	rows = append(rows, r)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, FormatHTML))
	out := buf.String()

	assert.Contains(t, out, "<th>Date</th>")
	assert.Contains(t, out, `<a href="https://blockchain.info/tx/aa01">`)
	assert.Contains(t, out, "blockchain.info/address/")
	// Cell content is escaped.
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestFormatContentTypes(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "text/html; charset=utf-8", FormatHTML.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatText.ContentType())
}
