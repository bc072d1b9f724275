package predictions

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const parquetBatchSize = 4096

// Columns pandas writes to persist a non-default index. They are not row data.
const pandasIndexPrefix = "__index_level_"

// readParquet loads a parquet file through Arrow.
func readParquet(ctx context.Context, path string) (*Table, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("creating arrow reader: %w", err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parquet table: %w", err)
	}
	defer tbl.Release()

	var (
		columns []string
		keep    []int
	)
	for i, f := range tbl.Schema().Fields() {
		if strings.HasPrefix(f.Name, pandasIndexPrefix) {
			continue
		}
		columns = append(columns, f.Name)
		keep = append(keep, i)
	}

	rows := make([][]any, 0, tbl.NumRows())
	tr := array.NewTableReader(tbl, parquetBatchSize)
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		n := int(rec.NumRows())
		for i := 0; i < n; i++ {
			row := make([]any, len(columns))
			for c, src := range keep {
				col := rec.Column(src)
				if col.IsNull(i) {
					continue
				}
				row[c] = normalize(col.GetOneForMarshal(i))
			}
			rows = append(rows, row)
		}
	}
	return newTable(columns, rows)
}
