// Package sheets is the spreadsheet collaborator: range-addressed fetch,
// clear, and upload of tables against the Google Sheets API, plus the pure
// A1 address helpers the upload glue needs.
package sheets

import (
	"fmt"

	"adetl/internal/table"
)

// ColumnLetters converts a 1-based column number to spreadsheet letters
// (1 → A, 26 → Z, 27 → AA). Bijective base-26.
func ColumnLetters(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

// FullRange returns the A1 range covering a table of the given shape,
// header row included, shifted by optional row/column offsets:
// rows=2, cols=3 → "A1:C3"; with vOffset=1 → "A2:C4".
func FullRange(rows, cols, vOffset, hOffset int) string {
	start := ColumnLetters(1 + hOffset)
	end := ColumnLetters(cols + hOffset)
	return fmt.Sprintf("%s%d:%s%d", start, 1+vOffset, end, rows+1+vOffset)
}

// ColumnRange returns the unbounded column span for a table of the given
// width: cols=3 → "A:C". Used to clear a tab's columns before an upload of
// unknown prior length.
func ColumnRange(cols, hOffset int) string {
	return ColumnLetters(1+hOffset) + ":" + ColumnLetters(cols+hOffset)
}

// TableFullRange is FullRange for a concrete table.
func TableFullRange(t *table.Table, vOffset, hOffset int) string {
	return FullRange(t.NumRows(), t.NumCols(), vOffset, hOffset)
}

// TableColumnRange is ColumnRange for a concrete table.
func TableColumnRange(t *table.Table, hOffset int) string {
	return ColumnRange(t.NumCols(), hOffset)
}
