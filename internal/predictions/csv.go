package predictions

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

type columnKind int

const (
	kindInt columnKind = iota
	kindFloat
	kindBool
	kindString
)

// ReadCSV decodes a CSV table with a header row.
// Each column gets one type: int64 when every non-empty cell parses as an
// integer, then float64, then bool (true/false), otherwise string.
// Empty cells are null.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty CSV input: header row required")
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	columns := csvColumns(header)

	var cells [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		cells = append(cells, rec)
	}

	kinds := make([]columnKind, len(columns))
	for c := range columns {
		kinds[c] = inferKind(cells, c)
	}

	rows := make([][]any, len(cells))
	for i, rec := range cells {
		row := make([]any, len(columns))
		for c, cell := range rec {
			row[c] = parseCell(cell, kinds[c])
		}
		rows[i] = row
	}
	return newTable(columns, rows)
}

// csvColumns cleans header names: strips a UTF-8 BOM, names blank headers
// "Unnamed: N" and suffixes repeats with ".1", ".2", ...
func csvColumns(header []string) []string {
	columns := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for n := 1; taken[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		taken[name] = true
		columns[i] = name
	}
	return columns
}

// inferKind returns the narrowest kind every non-empty cell of column c fits.
// Kinds are tried in order, so "1"/"0" columns stay integers rather than bools.
func inferKind(cells [][]string, c int) columnKind {
	for kind := kindInt; kind < kindString; kind++ {
		fits := true
		for _, rec := range cells {
			if rec[c] != "" && !fitsKind(rec[c], kind) {
				fits = false
				break
			}
		}
		if fits {
			return kind
		}
	}
	return kindString
}

func fitsKind(cell string, kind columnKind) bool {
	switch kind {
	case kindInt:
		_, err := strconv.ParseInt(cell, 10, 64)
		return err == nil
	case kindFloat:
		_, err := strconv.ParseFloat(cell, 64)
		return err == nil
	case kindBool:
		_, ok := parseBool(cell)
		return ok
	default:
		return true
	}
}

func parseBool(cell string) (bool, bool) {
	switch strings.ToLower(cell) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseCell(cell string, kind columnKind) any {
	if cell == "" {
		return nil
	}
	switch kind {
	case kindInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case kindFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	case kindBool:
		v, _ := parseBool(cell)
		return v
	default:
		return cell
	}
}

// WriteCSV writes the table as CSV with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(t.columns))
	for _, values := range t.rows {
		for c, v := range values {
			row[c] = formatCell(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		s := strconv.FormatFloat(x, 'g', -1, 64)
		// keep integral floats float-typed when read back
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(x)
	case json.RawMessage:
		return string(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return strings.Trim(string(b), `"`)
	}
}
