// Package mssql implements the warehouse backend for SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"

	"adetl/internal/table"
	"adetl/internal/warehouse"
)

func init() {
	warehouse.Register("mssql", New)
}

func New(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
		Placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
		Quote:       func(ident string) string { return "[" + ident + "]" },
		TypeName: func(k table.Kind) string {
			switch k {
			case table.KindInt:
				return "BIGINT"
			case table.KindFloat:
				return "FLOAT"
			case table.KindDate:
				return "DATE"
			default:
				return "NVARCHAR(MAX)"
			}
		},
		MaxParams: 2000,
	}
}
