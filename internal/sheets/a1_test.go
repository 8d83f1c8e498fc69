package sheets

import (
	"testing"
	"time"

	"adetl/internal/table"
)

func TestColumnLetters(t *testing.T) {
	cases := map[int]string{
		1:   "A",
		2:   "B",
		26:  "Z",
		27:  "AA",
		52:  "AZ",
		53:  "BA",
		702: "ZZ",
		703: "AAA",
	}
	for n, want := range cases {
		if got := ColumnLetters(n); got != want {
			t.Errorf("ColumnLetters(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFullRange(t *testing.T) {
	cases := []struct {
		rows, cols, v, h int
		want             string
	}{
		{2, 3, 0, 0, "A1:C3"},
		{2, 3, 1, 0, "A2:C4"},
		{2, 3, 0, 2, "C1:E3"},
		{0, 1, 0, 0, "A1:A1"}, // header only
		{100, 27, 0, 0, "A1:AA101"},
	}
	for _, tc := range cases {
		if got := FullRange(tc.rows, tc.cols, tc.v, tc.h); got != tc.want {
			t.Errorf("FullRange(%d, %d, %d, %d) = %q, want %q", tc.rows, tc.cols, tc.v, tc.h, got, tc.want)
		}
	}
}

func TestColumnRange(t *testing.T) {
	if got := ColumnRange(3, 0); got != "A:C" {
		t.Errorf("ColumnRange(3, 0) = %q", got)
	}
	if got := ColumnRange(2, 1); got != "B:C" {
		t.Errorf("ColumnRange(2, 1) = %q", got)
	}
}

func TestTableRanges(t *testing.T) {
	tbl, err := table.New(
		table.Column{Name: "a", Kind: table.KindString, Values: []any{"1", "2"}},
		table.Column{Name: "b", Kind: table.KindString, Values: []any{"1", "2"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	if got := TableFullRange(tbl, 0, 0); got != "A1:B3" {
		t.Errorf("TableFullRange = %q", got)
	}
	if got := TableFullRange(tbl, 2, 0); got != "A3:B5" {
		t.Errorf("TableFullRange with offset = %q", got)
	}
	if got := TableColumnRange(tbl, 0); got != "A:B" {
		t.Errorf("TableColumnRange = %q", got)
	}
}

func TestCellValue(t *testing.T) {
	if got := cellValue(nil); got != "" {
		t.Errorf("nil = %v", got)
	}
	if got := cellValue("text"); got != "text" {
		t.Errorf("string = %v", got)
	}
	if got := cellValue(int64(3)); got != int64(3) {
		t.Errorf("int = %v", got)
	}

	// 2025-08-01 is spreadsheet serial day 45870.
	d := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	if got := cellValue(d); got != int64(45870) {
		t.Errorf("date = %v, want 45870", got)
	}
}
