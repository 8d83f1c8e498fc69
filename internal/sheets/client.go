package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"adetl/internal/export"
	"adetl/internal/table"
)

// excelEpochOffset converts Unix-epoch day numbers to spreadsheet serial
// dates (day 0 = 1899-12-30).
const excelEpochOffset = 25569

// Client wraps the Sheets API with the three operations the pipeline needs.
// Authentication is a service-account JSON file; everything else about
// transport is the SDK's business.
type Client struct {
	svc *sheets.Service
}

// NewClient builds a client from service-account credentials.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Fetch reads a range from a worksheet into a raw all-text table. The first
// row of the range is the header; short rows are padded with nulls. Typing
// is the coercer's job, same as for file readers.
func (c *Client) Fetch(ctx context.Context, sheetID, tab, rng string) (*table.Table, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(sheetID, tab+"!"+rng).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch %s!%s: %w", tab, rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("fetch %s!%s: empty range", tab, rng)
	}

	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = fmt.Sprint(v)
	}
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, rec := range resp.Values[1:] {
		out := make([]string, len(rec))
		for i, v := range rec {
			out[i] = fmt.Sprint(v)
		}
		rows = append(rows, out)
	}
	return table.FromRows(header, rows)
}

// Clear blanks a range on a worksheet.
func (c *Client) Clear(ctx context.Context, sheetID, tab, rng string) error {
	_, err := c.svc.Spreadsheets.Values.
		Clear(sheetID, tab+"!"+rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s!%s: %w", tab, rng, err)
	}
	return nil
}

// Write uploads header+rows to a range, clearing it first. Date cells are
// converted to spreadsheet serial numbers so the sheet treats them as real
// dates rather than text.
func (c *Client) Write(ctx context.Context, t *table.Table, sheetID, tab, rng string) error {
	if err := c.Clear(ctx, sheetID, tab, rng); err != nil {
		return err
	}

	values := make([][]any, 0, t.NumRows()+1)
	header := make([]any, t.NumCols())
	for i, name := range t.Columns() {
		header[i] = name
	}
	values = append(values, header)

	for r := 0; r < t.NumRows(); r++ {
		row := make([]any, t.NumCols())
		for i, v := range t.Row(r) {
			row[i] = cellValue(v)
		}
		values = append(values, row)
	}

	_, err := c.svc.Spreadsheets.Values.
		Update(sheetID, tab+"!"+rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("upload %s!%s: %w", tab, rng, err)
	}
	return nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Unix()/86400 + excelEpochOffset
	case string, int64, float64:
		return t
	default:
		return export.FormatCell(v)
	}
}
