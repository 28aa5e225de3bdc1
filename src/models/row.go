package models

import (
	"bytes"
	"encoding/json"
)

// Row is one report row: an ordered mapping of column label to formatted
// value, plus optional metadata used by the HTML writer for explorer links.
// Column order is part of the report contract, which is why this is not a map.
type Row struct {
	labels []string
	values []string

	Addr string `json:"-"`
	TxID string `json:"-"`
}

// Set appends a column, or replaces its value if the label already exists.
func (r *Row) Set(label, value string) {
	for i, l := range r.labels {
		if l == label {
			r.values[i] = value
			return
		}
	}
	r.labels = append(r.labels, label)
	r.values = append(r.values, value)
}

// Get returns the value for a label, or "" if the row has no such column.
func (r *Row) Get(label string) string {
	for i, l := range r.labels {
		if l == label {
			return r.values[i]
		}
	}
	return ""
}

func (r *Row) Labels() []string { return r.labels }
func (r *Row) Values() []string { return r.values }
func (r *Row) Len() int         { return len(r.labels) }

// MarshalJSON emits a JSON object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range r.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
