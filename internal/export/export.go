// Package export writes merged canonical tables to local CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"adetl/internal/table"
)

// WriteCSV writes the table to path as UTF-8 CSV with a BOM. The BOM is
// deliberate: the merged files are opened in Excel by people working with
// Korean column names, and Excel mis-decodes BOM-less UTF-8.
func WriteCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(transform.NewWriter(f, unicode.UTF8BOM.NewEncoder()))

	if err := w.Write(t.Columns()); err != nil {
		f.Close()
		return err
	}
	rec := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for i, v := range t.Row(r) {
			rec[i] = FormatCell(v)
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatCell renders one typed cell as CSV/spreadsheet text. Null is the
// empty string; dates are ISO-8601.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return t.Format(time.DateOnly)
	default:
		return fmt.Sprint(v)
	}
}

// Filename derives the export file name "{identifier}_{min}–{max}.csv" from
// the table's first date-typed column. A table with no date column, or a
// date column holding only nulls, cannot be named this way and errors.
func Filename(identifier string, t *table.Table) (string, error) {
	dateCol, err := t.Schema().FirstDateColumn()
	if err != nil {
		return "", err
	}
	min, max, ok := t.MinMaxDate(dateCol)
	if !ok {
		return "", fmt.Errorf("date column %q holds no dates", dateCol)
	}
	return fmt.Sprintf("%s_%s–%s.csv", identifier, min.Format(time.DateOnly), max.Format(time.DateOnly)), nil
}
