package reader

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"adetl/internal/table"
)

// ReadXLSX reads the first worksheet of an XLSX export into a raw table.
// Cells come back as formatted text (GetRows applies the workbook's number
// formats), which matches the all-text reader contract.
func ReadXLSX(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	recs, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", path, sheets[0], err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s: sheet %q is empty", path, sheets[0])
	}

	header := recs[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	rows := recs[1:]
	for _, rec := range rows {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}

	t, err := table.FromRows(header, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
