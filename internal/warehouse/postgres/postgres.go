// Package postgres implements the warehouse backend for PostgreSQL via the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"adetl/internal/table"
	"adetl/internal/warehouse"
)

func init() {
	warehouse.Register("postgres", New)
}

func New(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
	db, err := sql.Open("pgx", cfg.DSN)
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
		Placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
		Quote:       func(ident string) string { return `"` + ident + `"` },
		TypeName: func(k table.Kind) string {
			switch k {
			case table.KindInt:
				return "BIGINT"
			case table.KindFloat:
				return "DOUBLE PRECISION"
			case table.KindDate:
				return "DATE"
			default:
				return "TEXT"
			}
		},
	}
}
