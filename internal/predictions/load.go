package predictions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format names a serialized table layout.
type Format string

// Supported table formats.
const (
	FormatAuto      Format = "auto"
	FormatParquet   Format = "parquet"
	FormatCSV       Format = "csv"
	FormatJSONLines Format = "jsonl"
	FormatJSON      Format = "json"
	FormatBolt      Format = "bolt"
	FormatSQLite    Format = "sqlite"
)

// DefaultSQLiteTable is the table read from SQLite sources when none is configured.
const DefaultSQLiteTable = "predictions"

var (
	// ErrUnknownFormat is returned for format names or file extensions no reader handles.
	ErrUnknownFormat = errors.New("unknown table format")
	// ErrMissingPrediction is returned in strict mode when the table lacks a prediction column.
	ErrMissingPrediction = errors.New("table has no prediction column")
)

var extFormats = map[string]Format{
	".parquet": FormatParquet,
	".pq":      FormatParquet,
	".csv":     FormatCSV,
	".jsonl":   FormatJSONLines,
	".ndjson":  FormatJSONLines,
	".json":    FormatJSON,
	".db":      FormatBolt,
	".bolt":    FormatBolt,
	".sqlite":  FormatSQLite,
	".sqlite3": FormatSQLite,
}

// ParseFormat validates a format name. The empty string means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatParquet, FormatCSV, FormatJSONLines, FormatJSON, FormatBolt, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extFormats[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: cannot infer format from extension %q", ErrUnknownFormat, ext)
}

// LoadOptions controls how Load reads a table.
type LoadOptions struct {
	Format            Format // FormatAuto or empty detects from the extension
	SQLiteTable       string // table name for SQLite sources
	RequirePrediction bool   // fail when the prediction column is absent
}

// Load reads the whole table at path into memory.
func Load(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	format := opts.Format
	if format == "" || format == FormatAuto {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	// bbolt and sqlite both create missing files on open.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening prediction table: %w", err)
	}

	var (
		t   *Table
		err error
	)
	switch format {
	case FormatParquet:
		t, err = readParquet(ctx, path)
	case FormatBolt:
		t, err = readBolt(path)
	case FormatSQLite:
		name := opts.SQLiteTable
		if name == "" {
			name = DefaultSQLiteTable
		}
		t, err = readSQLite(ctx, path, name)
	case FormatCSV, FormatJSONLines, FormatJSON:
		t, err = readFile(path, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s table %s: %w", format, path, err)
	}

	if opts.RequirePrediction && !t.HasColumn(PredictionColumn) {
		return nil, fmt.Errorf("loading %s table %s: %w", format, path, ErrMissingPrediction)
	}
	return t, nil
}

func readFile(path string, format Format) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, format)
}

// Read decodes a text-format table (CSV, JSON lines or a JSON array) from r.
func Read(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSONLines:
		return ReadJSONLines(r)
	case FormatJSON:
		return ReadJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q is not a streamable format", ErrUnknownFormat, format)
	}
}
