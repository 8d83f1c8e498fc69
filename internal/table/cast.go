package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CastError reports a cell that cannot be coerced to its declared kind.
// The offending column and raw value are carried so the caller can point at
// the exact source quirk (thousands separators, currency glyphs, locale
// dates) that an upstream cleaner should have removed.
type CastError struct {
	Column string
	Kind   Kind
	Value  any
	Row    int
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cast column %q row %d: %v is not a valid %s", e.Column, e.Row, e.Value, e.Kind)
}

// Cast coerces every column to the kind declared for it in the schema.
// The table must already have exactly the schema's columns in the schema's
// order (the coercer's fill+select step guarantees that). Null cells stay
// null. Casting is strict: no locale parsing, no truncation.
func (t *Table) Cast(schema Schema) error {
	if len(t.cols) != len(schema) {
		return fmt.Errorf("cast: table has %d columns, schema declares %d", len(t.cols), len(schema))
	}
	for i := range schema {
		if t.cols[i].Name != schema[i].Name {
			return fmt.Errorf("cast: column %d is %q, schema declares %q", i, t.cols[i].Name, schema[i].Name)
		}
		if err := castColumn(&t.cols[i], schema[i].Kind); err != nil {
			return err
		}
	}
	return nil
}

func castColumn(c *Column, kind Kind) error {
	if c.Kind == kind && kind != KindString {
		// Already coerced; nothing textual left to parse.
		return nil
	}
	for r, v := range c.Values {
		if v == nil {
			continue
		}
		out, err := castValue(v, kind)
		if err != nil {
			return &CastError{Column: c.Name, Kind: kind, Value: v, Row: r}
		}
		c.Values[r] = out
	}
	c.Kind = kind
	return nil
}

func castValue(v any, kind Kind) (any, error) {
	switch kind {
	case KindString:
		switch t := v.(type) {
		case string:
			return t, nil
		case int64:
			return strconv.FormatInt(t, 10), nil
		case float64:
			return strconv.FormatFloat(t, 'g', -1, 64), nil
		case time.Time:
			return t.Format(time.DateOnly), nil
		}

	case KindInt:
		switch t := v.(type) {
		case int64:
			return t, nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			if err != nil {
				return nil, err
			}
			return n, nil
		}

	case KindFloat:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int64:
			return float64(t), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, err
			}
			return f, nil
		}

	case KindDate:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(t), time.UTC)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
	return nil, fmt.Errorf("cannot cast %T to %s", v, kind)
}
