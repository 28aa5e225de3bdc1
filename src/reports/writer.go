package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/username/bitgains/backend/src/models"
)

// Format selects a report serialization.
type Format string

const (
	FormatText       Format = "txt"
	FormatCSV        Format = "csv"
	FormatJSON       Format = "json"
	FormatJSONPretty Format = "jsonpretty"
	FormatHTML       Format = "html"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	switch Format(s) {
	case FormatText, FormatCSV, FormatJSON, FormatJSONPretty, FormatHTML:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid output format %q (want txt, csv, json, jsonpretty or html)", s)
}

// ContentType returns the HTTP content type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON, FormatJSONPretty:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Write serializes report rows in the requested format.
func Write(w io.Writer, rows []models.Row, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows, false)
	case FormatJSONPretty:
		return writeJSON(w, rows, true)
	case FormatHTML:
		return writeHTML(w, rows)
	default:
		return writeFixedWidth(w, rows)
	}
}

func writeCSV(w io.Writer, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rows[0].Labels()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, rows []models.Row, pretty bool) error {
	if rows == nil {
		rows = []models.Row{}
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "    ")
	}
	return enc.Encode(rows)
}

// writeFixedWidth renders a bordered text table. Numeric cells are
// right-aligned, everything else left-aligned.
func writeFixedWidth(w io.Writer, rows []models.Row) error {
	if len(rows) == 0 {
		_, err := io.WriteString(w, "+------------+\n| No results |\n+------------+\n")
		return err
	}

	header := rows[0].Labels()
	widths := make([]int, len(header))
	measure := func(vals []string) {
		for i, v := range vals {
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row.Values())
	}

	var b strings.Builder
	divider := func() {
		b.WriteByte('+')
		for _, width := range widths {
			b.WriteByte('-')
			b.WriteString(strings.Repeat("-", width))
			b.WriteString("-+")
		}
		b.WriteByte('\n')
	}
	printRow := func(vals []string) {
		b.WriteByte('|')
		for i, v := range vals {
			pad := strings.Repeat(" ", widths[i]-len(v))
			if isNumeric(v) {
				b.WriteString(" " + pad + v + " |")
			} else {
				b.WriteString(" " + v + pad + " |")
			}
		}
		b.WriteByte('\n')
	}

	divider()
	printRow(header)
	divider()
	for _, row := range rows {
		printRow(row.Values())
	}
	divider()
	_, err := io.WriteString(w, b.String())
	return err
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// writeHTML renders a table with block-explorer links on address and
// transaction cells, using each row's metadata.
func writeHTML(w io.Writer, rows []models.Row) error {
	var b strings.Builder
	b.WriteString(`<table class="bitgains bordered">` + "\n")
	if len(rows) > 0 {
		b.WriteString("<tr>")
		for _, l := range rows[0].Labels() {
			b.WriteString("<th>" + html.EscapeString(l) + "</th>")
		}
		b.WriteString("</tr>\n")
	}
	for _, row := range rows {
		b.WriteString("<tr>")
		labels := row.Labels()
		for i, v := range row.Values() {
			cell := html.EscapeString(v)
			switch labels[i] {
			case "Date", "Tx", "Tx Short":
				if row.TxID != "" {
					cell = explorerLink("tx", row.TxID, cell)
				}
			case "Address", "Addr Short":
				if row.Addr != "" {
					cell = explorerLink("address", row.Addr, cell)
				}
			}
			b.WriteString("<td>" + cell + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func explorerLink(kind, id, text string) string {
	return fmt.Sprintf(`<a href="https://blockchain.info/%s/%s">%s</a>`,
		kind, html.EscapeString(id), text)
}
