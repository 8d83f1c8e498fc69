// Package table implements the in-memory tabular data model shared by the
// readers, the normalization engine, and the collaborator sinks.
//
// A Table is column-major: an ordered list of named columns whose cells are
// `any` values. Readers produce all-string tables (empty cell == nil); after
// coercion a column holds exactly one runtime type per its Kind:
//
//	KindString -> string
//	KindInt    -> int64
//	KindFloat  -> float64
//	KindDate   -> time.Time (midnight UTC)
//
// nil is the null value for every kind.
package table

import (
	"fmt"
	"time"
)

// Column is one named column and its cell values.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Table is an ordered sequence of equally sized columns.
type Table struct {
	cols []Column
}

// New builds a Table from columns. All columns must have the same length and
// distinct names.
func New(cols ...Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if i > 0 && len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Table{cols: cols}, nil
}

// FromRows builds an all-string raw table from a header and row-major string
// records, the shape every reader hands to the pipeline. Empty cells become
// nil; records shorter than the header are padded with nil.
func FromRows(header []string, rows [][]string) (*Table, error) {
	cols := make([]Column, len(header))
	for i, name := range header {
		vals := make([]any, len(rows))
		for r, rec := range rows {
			if i >= len(rec) || rec[i] == "" {
				continue
			}
			vals[r] = rec[i]
		}
		cols[i] = Column{Name: name, Kind: KindString, Values: vals}
	}
	return New(cols...)
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Values)
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Schema returns the table's current schema (names, order, kinds).
func (t *Table) Schema() Schema {
	out := make(Schema, len(t.cols))
	for i, c := range t.cols {
		out[i] = Field{Name: c.Name, Kind: c.Kind}
	}
	return out
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index(name)
	return ok
}

// Column returns the named column, or nil when absent. The returned pointer
// aliases the table's storage; mutations are visible to the table.
func (t *Table) Column(name string) *Column {
	i, ok := t.index(name)
	if !ok {
		return nil
	}
	return &t.cols[i]
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *Column { return &t.cols[i] }

func (t *Table) index(name string) (int, bool) {
	for i, c := range t.cols {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Rename renames columns per mapping. Columns absent from the mapping keep
// their names; mapping keys absent from the table are ignored (the mapper
// decides which keys are meaningful).
func (t *Table) Rename(mapping map[string]string) {
	for i := range t.cols {
		if to, ok := mapping[t.cols[i].Name]; ok {
			t.cols[i].Name = to
		}
	}
}

// Prepend inserts a new leading column filled with a constant value.
func (t *Table) Prepend(name string, kind Kind, value any) error {
	if t.Has(name) {
		return fmt.Errorf("column %q already present", name)
	}
	vals := make([]any, t.NumRows())
	for i := range vals {
		vals[i] = value
	}
	t.cols = append([]Column{{Name: name, Kind: kind, Values: vals}}, t.cols...)
	return nil
}

// AddNull appends an all-null column of the given kind.
func (t *Table) AddNull(name string, kind Kind) error {
	if t.Has(name) {
		return fmt.Errorf("column %q already present", name)
	}
	t.cols = append(t.cols, Column{Name: name, Kind: kind, Values: make([]any, t.NumRows())})
	return nil
}

// Select returns a new table holding exactly the named columns in the given
// order. Table columns not named are dropped; naming an absent column is an
// error. Column storage is shared with the receiver, not copied.
func (t *Table) Select(names []string) (*Table, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		i, ok := t.index(name)
		if !ok {
			return nil, fmt.Errorf("select: column %q not present", name)
		}
		cols = append(cols, t.cols[i])
	}
	return New(cols...)
}

// FilterRows keeps only the rows for which keep returns true. Row indices are
// pre-filter positions.
func (t *Table) FilterRows(keep func(row int) bool) {
	n := t.NumRows()
	kept := make([]int, 0, n)
	for r := 0; r < n; r++ {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	if len(kept) == n {
		return
	}
	for i := range t.cols {
		vals := make([]any, len(kept))
		for j, r := range kept {
			vals[j] = t.cols[i].Values[r]
		}
		t.cols[i].Values = vals
	}
}

// Row returns the r-th row as a positional slice. The slice is freshly
// allocated; cells alias the column storage.
func (t *Table) Row(r int) []any {
	out := make([]any, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Values[r]
	}
	return out
}

// Clone returns a deep copy: independent column slices and value slices.
// Cell values themselves are immutable (string/int64/float64/time.Time).
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return &Table{cols: cols}
}

// MinMaxDate scans the named date column and returns its minimum and maximum
// non-null values. ok is false when the column holds no dates.
func (t *Table) MinMaxDate(name string) (min, max time.Time, ok bool) {
	c := t.Column(name)
	if c == nil {
		return time.Time{}, time.Time{}, false
	}
	for _, v := range c.Values {
		d, isDate := v.(time.Time)
		if !isDate {
			continue
		}
		if !ok {
			min, max, ok = d, d, true
			continue
		}
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, ok
}
