package predictions

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestReadCSVInfersColumnTypes(t *testing.T) {
	input := `id,score,host,flag,prediction
1,0.25,web-1,true,0
2,,web-2,False,1
3,1.5,,TRUE,1
`
	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}

	got, _ := json.Marshal(tbl.Rows())
	want := `[{"id":1,"score":0.25,"host":"web-1","flag":true,"prediction":0},` +
		`{"id":2,"score":null,"host":"web-2","flag":false,"prediction":1},` +
		`{"id":3,"score":1.5,"host":null,"flag":true,"prediction":1}]`
	if string(got) != want {
		t.Errorf("rows = %s\nwant   %s", got, want)
	}
}

func TestReadCSVMixedColumnFallsBackToString(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("code,prediction\n1,1\ntrue,0\nx7,1\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	v, _ := tbl.Row(0).Get("code")
	if v != "1" {
		t.Errorf("code = %#v, want string \"1\"", v)
	}
}

func TestReadCSVStringPredictionIsNotAnomaly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("id,prediction\n1,1\n2,yes\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if n := tbl.CountAnomalies(); n != 0 {
		t.Errorf("CountAnomalies() = %d, want 0 for a string-typed column", n)
	}
}

func TestReadCSVHeaderCleanup(t *testing.T) {
	input := "\ufeff,id,id,prediction\n0,1,2,1\n"
	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []string{"Unnamed: 0", "id", "id.1", "prediction"}
	got := tbl.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ReadCSV(strings.NewReader("id,prediction\n1,0,9\n")); err == nil {
		t.Error("expected error for row with extra field")
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("id,prediction\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
	if !tbl.HasColumn(PredictionColumn) {
		t.Error("expected prediction column")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	src, err := newTable([]string{"id", "score", "host", "prediction"}, [][]any{
		{int64(1), 2.0, "a,b", int64(1)},
		{int64(2), nil, "c", int64(0)},
	})
	if err != nil {
		t.Fatalf("newTable: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, src); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	v, _ := back.Row(0).Get("score")
	if v != 2.0 {
		t.Errorf("score = %#v, want float64 2", v)
	}
	v, _ = back.Row(0).Get("host")
	if v != "a,b" {
		t.Errorf("host = %#v, want \"a,b\"", v)
	}
	if n := back.CountAnomalies(); n != 1 {
		t.Errorf("CountAnomalies() = %d, want 1", n)
	}
}
