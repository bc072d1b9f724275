package predictions

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltDB snapshot layout.
var (
	bucketMeta  = []byte("meta")
	bucketRows  = []byte("rows")
	keyColumns  = []byte("columns")
	keyRowCount = []byte("row_count")
)

// readBolt loads a snapshot written by WriteBolt.
func readBolt(path string) (*Table, error) {
	db, err := bolt.Open(path, 0400, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}
	defer db.Close()

	var (
		columns []string
		rows    [][]any
	)
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		data := tx.Bucket(bucketRows)
		if meta == nil || data == nil {
			return errors.New("not a prediction snapshot: missing buckets")
		}

		if err := json.Unmarshal(meta.Get(keyColumns), &columns); err != nil {
			return fmt.Errorf("decoding column list: %w", err)
		}
		index := make(map[string]int, len(columns))
		for i, c := range columns {
			index[c] = i
		}

		if v := meta.Get(keyRowCount); len(v) == 8 {
			rows = make([][]any, 0, binary.BigEndian.Uint64(v))
		}

		// Keys are big-endian row numbers, so cursor order is table order.
		return data.ForEach(func(k, v []byte) error {
			fields, err := decodeObject(json.NewDecoder(bytes.NewReader(v)))
			if err != nil {
				return fmt.Errorf("decoding row %d: %w", binary.BigEndian.Uint64(k), err)
			}
			row := make([]any, len(columns))
			for _, f := range fields {
				idx, ok := index[f.name]
				if !ok {
					return fmt.Errorf("row %d: unknown column %q", binary.BigEndian.Uint64(k), f.name)
				}
				row[idx] = f.value
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return newTable(columns, rows)
}

// WriteBolt stores the table as a BoltDB snapshot at path, replacing any
// snapshot already there.
func WriteBolt(path string, t *Table) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("opening snapshot database %s: %w", path, err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketRows} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return fmt.Errorf("clearing bucket %s: %w", name, err)
			}
		}
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucketMeta, err)
		}
		data, err := tx.CreateBucket(bucketRows)
		if err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucketRows, err)
		}

		cols, err := json.Marshal(t.columns)
		if err != nil {
			return err
		}
		if err := meta.Put(keyColumns, cols); err != nil {
			return err
		}
		count := make([]byte, 8)
		binary.BigEndian.PutUint64(count, uint64(len(t.rows)))
		if err := meta.Put(keyRowCount, count); err != nil {
			return err
		}

		for i := range t.rows {
			v, err := t.Row(i).MarshalJSON()
			if err != nil {
				return fmt.Errorf("encoding row %d: %w", i, err)
			}
			k := make([]byte, 8)
			binary.BigEndian.PutUint64(k, uint64(i))
			if err := data.Put(k, v); err != nil {
				return fmt.Errorf("storing row %d: %w", i, err)
			}
		}
		return nil
	})
}
