package table

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of a column. Raw tables come off the readers with
// every column as KindString; the coercer is the only place typing happens.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a config type name to a Kind. Accepted names: string, int,
// integer, float, date.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "text":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "double":
		return KindFloat, nil
	case "date":
		return KindDate, nil
	default:
		return KindString, fmt.Errorf("unknown column type %q", s)
	}
}

// Field is one named, typed column position in a Schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the ordered target shape a table is coerced into: column set,
// left-to-right order, and per-column kind.
type Schema []Field

// Columns returns the schema's column names in order.
func (s Schema) Columns() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Has reports whether the schema declares the named column.
func (s Schema) Has(name string) bool {
	for _, f := range s {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Equal reports whether two schemas agree on names, order, and kinds.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// FirstDateColumn returns the name of the first date-kinded field, or an
// error if the schema declares none. Used by the date-range filename helper.
func (s Schema) FirstDateColumn() (string, error) {
	for _, f := range s {
		if f.Kind == KindDate {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("schema has no date column")
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Name + ":" + f.Kind.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
