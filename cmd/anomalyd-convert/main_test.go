package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anomalyd/anomalyd/internal/predictions"
)

const exampleCSV = "id,prediction\n1,0\n2,1\n3,1\n"

func TestConvertStdinToStdout(t *testing.T) {
	var out bytes.Buffer
	tbl, err := convert(context.Background(), options{
		inFormat:  "csv",
		outFormat: "jsonl",
	}, strings.NewReader(exampleCSV), &out)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if tbl.Len() != 3 {
		t.Errorf("Len = %d, want 3", tbl.Len())
	}

	want := `{"id":1,"prediction":0}` + "\n" + `{"id":2,"prediction":1}` + "\n" + `{"id":3,"prediction":1}` + "\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertToBoltAndSQLite(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"scores.db", "scores.sqlite"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			_, err := convert(context.Background(), options{
				inFormat:  "csv",
				out:       path,
				outFormat: "auto",
				table:     "scored",
			}, strings.NewReader(exampleCSV), nil)
			if err != nil {
				t.Fatalf("convert: %v", err)
			}

			back, err := predictions.Load(context.Background(), path, predictions.LoadOptions{SQLiteTable: "scored"})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if back.Len() != 3 || back.CountAnomalies() != 2 {
				t.Errorf("got %d rows / %d anomalies, want 3 / 2", back.Len(), back.CountAnomalies())
			}
		})
	}
}

func TestConvertFileToFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scores.jsonl")
	var first bytes.Buffer
	if _, err := convert(context.Background(), options{inFormat: "csv", out: src, outFormat: "auto"},
		strings.NewReader(exampleCSV), &first); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var out bytes.Buffer
	if _, err := convert(context.Background(), options{in: src, inFormat: "auto", outFormat: "csv"}, nil, &out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out.String() != exampleCSV {
		t.Errorf("output = %q, want %q", out.String(), exampleCSV)
	}
}

func TestConvertUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		opts options
	}{
		{"stdin without format", options{inFormat: "auto", outFormat: "csv"}},
		{"stdout without format", options{inFormat: "csv", outFormat: "auto"}},
		{"bolt to stdout", options{inFormat: "csv", outFormat: "bolt"}},
		{"parquet output", options{inFormat: "csv", outFormat: "parquet", out: "x.parquet"}},
		{"bad input format", options{inFormat: "xlsx", outFormat: "csv"}},
		{"unknown extension", options{inFormat: "csv", out: "scores.txt", outFormat: "auto"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convert(context.Background(), tt.opts, strings.NewReader(exampleCSV), &bytes.Buffer{})
			if !errors.Is(err, errUsage) {
				t.Errorf("err = %v, want usage error", err)
			}
		})
	}
}
