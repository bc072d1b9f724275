// Package predictions holds the immutable in-memory prediction table and the
// loaders that build it from parquet, CSV, JSON, BoltDB and SQLite sources.
package predictions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// PredictionColumn is the column whose value marks a row as an anomaly.
const PredictionColumn = "prediction"

// Table is an ordered, read-only set of prediction rows sharing one column list.
// A Table is never mutated after construction, so it is safe for concurrent readers.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// newTable builds a Table, padding short rows with nulls.
// Callers hand over ownership of columns and rows.
func newTable(columns []string, rows [][]any) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}

	for i, row := range rows {
		switch {
		case len(row) > len(columns):
			return nil, fmt.Errorf("row %d has %d values, table has %d columns", i, len(row), len(columns))
		case len(row) < len(columns):
			padded := make([]any, len(columns))
			copy(padded, row)
			rows[i] = padded
		}
	}

	return &Table{columns: columns, index: index, rows: rows}, nil
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th record.
func (t *Table) Row(i int) Record {
	return Record{columns: t.columns, values: t.rows[i]}
}

// Rows returns every record in table order.
func (t *Table) Rows() []Record {
	out := make([]Record, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// Anomalies returns the records whose prediction equals 1, in table order.
// The result is never nil so it encodes as [] when nothing matches.
func (t *Table) Anomalies() []Record {
	out := make([]Record, 0)
	col, ok := t.index[PredictionColumn]
	if !ok {
		return out
	}
	for i, row := range t.rows {
		if IsAnomaly(row[col]) {
			out = append(out, t.Row(i))
		}
	}
	return out
}

// CountAnomalies returns len(t.Anomalies()) without building the slice.
func (t *Table) CountAnomalies() int {
	col, ok := t.index[PredictionColumn]
	if !ok {
		return 0
	}
	n := 0
	for _, row := range t.rows {
		if IsAnomaly(row[col]) {
			n++
		}
	}
	return n
}

// IsAnomaly reports whether a prediction value equals 1.
// Integers, floats and booleans compare numerically; strings and nulls never match.
func IsAnomaly(v any) bool {
	switch x := v.(type) {
	case int64:
		return x == 1
	case uint64:
		return x == 1
	case float64:
		return x == 1
	case bool:
		return x
	default:
		return false
	}
}

// Record is one row of a Table: column names paired with native values.
type Record struct {
	columns []string
	values  []any
}

// Get returns the value of the named column.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.columns)
}

// MarshalJSON encodes the record as an object with every column in table order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalValue(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("encoding column %q: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var jsonNull = []byte("null")

// marshalValue encodes one cell. NaN and infinities have no JSON form and become null.
func marshalValue(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return jsonNull, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return jsonNull, nil
		}
	case json.RawMessage:
		if len(x) == 0 {
			return jsonNull, nil
		}
		return x, nil
	}
	return json.Marshal(v)
}

// normalize narrows the native types readers produce to the set the table stores.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return uint64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	default:
		return v
	}
}
