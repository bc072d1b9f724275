package predictions

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// field is one decoded key/value pair, kept in document order.
type field struct {
	name  string
	value any
}

// tableBuilder collects rows whose column set grows as new keys appear.
type tableBuilder struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{index: make(map[string]int)}
}

func (b *tableBuilder) add(fields []field) {
	row := make([]any, len(b.columns), len(b.columns)+len(fields))
	for _, f := range fields {
		idx, ok := b.index[f.name]
		if !ok {
			idx = len(b.columns)
			b.index[f.name] = idx
			b.columns = append(b.columns, f.name)
		}
		for len(row) <= idx {
			row = append(row, nil)
		}
		row[idx] = f.value
	}
	b.rows = append(b.rows, row)
}

func (b *tableBuilder) table() (*Table, error) {
	return newTable(b.columns, b.rows)
}

// ReadJSONLines decodes one JSON object per line. Key order of first
// appearance defines the column order; keys absent from a row are null.
func ReadJSONLines(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	b := newTableBuilder()
	for line := 1; ; line++ {
		fields, err := decodeObject(dec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		b.add(fields)
	}
	return b.table()
}

// ReadJSON decodes a top-level JSON array of objects.
func ReadJSON(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	b := newTableBuilder()
	for i := 0; dec.More(); i++ {
		fields, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		b.add(fields)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return b.table()
}

// decodeObject reads the next JSON object from dec, preserving key order.
// It returns io.EOF when the stream is exhausted before an object starts.
func decodeObject(dec *json.Decoder) ([]field, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, truncated(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, truncated(err))
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		fields = setField(fields, key, v)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, truncated(err)
	}
	return fields, nil
}

// truncated reports an EOF inside an object as io.ErrUnexpectedEOF so callers
// do not mistake it for the end of the stream.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// setField appends key, or overwrites it in place when the object repeats a key.
func setField(fields []field, key string, v any) []field {
	for i := range fields {
		if fields[i].name == key {
			fields[i].value = v
			return fields
		}
	}
	return append(fields, field{name: key, value: v})
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// decodeValue converts a raw JSON value into a table cell. Nested objects
// and arrays are kept verbatim (compacted).
func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty value")
	}

	switch raw[0] {
	case 'n':
		return nil, nil
	case 't':
		return true, nil
	case 'f':
		return false, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return json.RawMessage(buf.Bytes()), nil
	default:
		return parseNumber(string(raw))
	}
}

// parseNumber keeps integral literals as int64 (or uint64 past the int64 range).
func parseNumber(s string) (any, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

// WriteJSONLines writes one JSON object per row.
func WriteJSONLines(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	for i := range t.rows {
		b, err := t.Row(i).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding row %d: %w", i, err)
		}
		bw.Write(b)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
