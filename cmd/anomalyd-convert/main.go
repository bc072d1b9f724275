// anomalyd-convert rewrites a prediction table into another format anomalyd can load.
// Usage:
//
//	anomalyd-convert -in scores.parquet -out scores.db
//	anomalyd-convert -in scores.csv -out scores.sqlite -table scored
//	cat scores.jsonl | anomalyd-convert -in-format jsonl -out-format csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/anomalyd/anomalyd/internal/predictions"
)

// options holds the parsed command line.
type options struct {
	in        string
	inFormat  string
	out       string
	outFormat string
	table     string
}

var errUsage = errors.New("usage error")

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "input table path (reads stdin when empty)")
	flag.StringVar(&opts.inFormat, "in-format", "auto", "input format: auto, parquet, csv, jsonl, json, bolt, sqlite")
	flag.StringVar(&opts.out, "out", "", "output path (writes stdout when empty)")
	flag.StringVar(&opts.outFormat, "out-format", "auto", "output format: auto, csv, jsonl, bolt, sqlite")
	flag.StringVar(&opts.table, "table", predictions.DefaultSQLiteTable, "SQLite table name for input and output")
	flag.Parse()

	var stdin io.Reader
	if opts.in == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "error: no -in given and stdin is a terminal")
			flag.Usage()
			os.Exit(2)
		}
		stdin = os.Stdin
	}

	t, err := convert(context.Background(), opts, stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "converted %d rows (%d anomalies)\n", t.Len(), t.CountAnomalies())
}

// convert reads the input table and writes it back out in the requested format.
func convert(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) (*predictions.Table, error) {
	inFormat, err := predictions.ParseFormat(opts.inFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: -in-format: %v", errUsage, err)
	}
	outFormat, err := resolveOutFormat(opts)
	if err != nil {
		return nil, err
	}

	var t *predictions.Table
	if opts.in == "" {
		if inFormat == predictions.FormatAuto {
			return nil, fmt.Errorf("%w: -in-format is required when reading stdin", errUsage)
		}
		t, err = predictions.Read(stdin, inFormat)
	} else {
		t, err = predictions.Load(ctx, opts.in, predictions.LoadOptions{
			Format:      inFormat,
			SQLiteTable: opts.table,
		})
	}
	if err != nil {
		return nil, err
	}

	switch outFormat {
	case predictions.FormatBolt:
		err = predictions.WriteBolt(opts.out, t)
	case predictions.FormatSQLite:
		err = predictions.WriteSQLite(ctx, opts.out, opts.table, t)
	case predictions.FormatCSV, predictions.FormatJSONLines:
		err = writeText(opts.out, outFormat, t, stdout)
	}
	if err != nil {
		return nil, fmt.Errorf("writing %s output: %w", outFormat, err)
	}
	return t, nil
}

func resolveOutFormat(opts options) (predictions.Format, error) {
	f, err := predictions.ParseFormat(opts.outFormat)
	if err != nil {
		return "", fmt.Errorf("%w: -out-format: %v", errUsage, err)
	}
	if f == predictions.FormatAuto {
		if opts.out == "" {
			return "", fmt.Errorf("%w: -out-format is required when writing stdout", errUsage)
		}
		if f, err = predictions.DetectFormat(opts.out); err != nil {
			return "", fmt.Errorf("%w: %v", errUsage, err)
		}
	}

	switch f {
	case predictions.FormatCSV, predictions.FormatJSONLines:
		return f, nil
	case predictions.FormatBolt, predictions.FormatSQLite:
		if opts.out == "" {
			return "", fmt.Errorf("%w: %s output needs -out", errUsage, f)
		}
		return f, nil
	default:
		return "", fmt.Errorf("%w: cannot write %s tables", errUsage, f)
	}
}

func writeText(path string, format predictions.Format, t *predictions.Table, stdout io.Writer) error {
	if path == "" {
		return encodeText(stdout, format, t)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeText(f, format, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeText(w io.Writer, format predictions.Format, t *predictions.Table) error {
	if format == predictions.FormatCSV {
		return predictions.WriteCSV(w, t)
	}
	return predictions.WriteJSONLines(w, t)
}
