package table

import "fmt"

// SchemaMismatchError reports a concat attempt over tables whose schemas
// differ. Concatenation never realigns columns: a mismatch at this point is a
// coercion bug upstream, not something to paper over.
type SchemaMismatchError struct {
	Index int // position of the offending table in the input sequence
	Want  Schema
	Got   Schema
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("concat: table %d schema %s does not match %s", e.Index, e.Got, e.Want)
}

// Concat concatenates tables row-wise, preserving input order, into a fresh
// table. All inputs must share an identical schema (names, order, kinds).
// len(tables) must be at least 1; N=1 returns a copy.
func Concat(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("concat: no tables")
	}

	want := tables[0].Schema()
	total := 0
	for i, t := range tables {
		if got := t.Schema(); !want.Equal(got) {
			return nil, &SchemaMismatchError{Index: i, Want: want, Got: got}
		}
		total += t.NumRows()
	}

	cols := make([]Column, len(want))
	for i, f := range want {
		vals := make([]any, 0, total)
		for _, t := range tables {
			vals = append(vals, t.cols[i].Values...)
		}
		cols[i] = Column{Name: f.Name, Kind: f.Kind, Values: vals}
	}
	return New(cols...)
}
