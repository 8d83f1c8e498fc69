// Package sqlite implements the warehouse backend for SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"adetl/internal/table"
	"adetl/internal/warehouse"
)

func init() {
	warehouse.Register("sqlite", New)
}

// New opens a SQLite warehouse. Dates are stored as ISO-8601 TEXT: SQLite
// has no date type, and text round-trips reliably and stays debuggable.
func New(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return warehouse.NewSQLRepo(db, dialect()), nil
}

func dialect() warehouse.Dialect {
	return warehouse.Dialect{
		Placeholder: func(int) string { return "?" },
		Quote:       func(ident string) string { return `"` + ident + `"` },
		TypeName: func(k table.Kind) string {
			switch k {
			case table.KindInt:
				return "INTEGER"
			case table.KindFloat:
				return "REAL"
			default:
				return "TEXT"
			}
		},
		BindDate: func(t time.Time) any { return t.Format(time.DateOnly) },
	}
}
