package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"adetl/internal/table"
)

// Dialect captures the few SQL differences between backends: placeholder
// syntax, identifier quoting, type names, and how a date cell is bound.
type Dialect struct {
	// Placeholder returns the bind marker for 1-based parameter i.
	Placeholder func(i int) string
	// Quote quotes an identifier.
	Quote func(ident string) string
	// TypeName maps a column kind to the backend's column type.
	TypeName func(k table.Kind) string
	// BindDate converts a date cell for binding (SQLite stores text).
	BindDate func(t time.Time) any
	// MaxParams caps bind parameters per statement (SQL Server: 2100).
	// Zero means no backend limit beyond the default batch size.
	MaxParams int
}

// SQLRepo is the shared database/sql implementation behind every backend.
// Backends provide an opened *sql.DB and their Dialect.
type SQLRepo struct {
	db      *sql.DB
	dialect Dialect

	// insert batch size, rows per multi-VALUES statement
	batch int
}

// NewSQLRepo wraps an opened connection.
func NewSQLRepo(db *sql.DB, d Dialect) *SQLRepo {
	return &SQLRepo{db: db, dialect: d, batch: 500}
}

func (r *SQLRepo) Close() error { return r.db.Close() }

func (r *SQLRepo) EnsureTable(ctx context.Context, name string, schema table.Schema) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(r.dialect.Quote(name))
	b.WriteString(" (")
	for i, f := range schema {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.dialect.Quote(f.Name))
		b.WriteString(" ")
		b.WriteString(r.dialect.TypeName(f.Kind))
	}
	b.WriteString(")")

	if _, err := r.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Replace swaps the table's contents for the merged rows inside one
// transaction so readers never observe a half-loaded table.
func (r *SQLRepo) Replace(ctx context.Context, name string, t *table.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+r.dialect.Quote(name)); err != nil {
		return fmt.Errorf("clear table %s: %w", name, err)
	}

	cols := t.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = r.dialect.Quote(c)
	}
	prefix := "INSERT INTO " + r.dialect.Quote(name) + " (" + strings.Join(quoted, ", ") + ") VALUES "

	batch := r.batch
	if r.dialect.MaxParams > 0 && len(cols) > 0 {
		if perStmt := r.dialect.MaxParams / len(cols); perStmt < batch {
			batch = perStmt
		}
		if batch < 1 {
			batch = 1
		}
	}

	for start := 0; start < t.NumRows(); start += batch {
		end := start + batch
		if end > t.NumRows() {
			end = t.NumRows()
		}

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, (end-start)*len(cols))
		p := 1
		for row := start; row < end; row++ {
			if row > start {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for i, v := range t.Row(row) {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(r.dialect.Placeholder(p))
				p++
				args = append(args, r.bind(v))
			}
			b.WriteString(")")
		}

		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return fmt.Errorf("insert into %s rows %d..%d: %w", name, start, end, err)
		}
	}

	return tx.Commit()
}

func (r *SQLRepo) bind(v any) any {
	if d, ok := v.(time.Time); ok && r.dialect.BindDate != nil {
		return r.dialect.BindDate(d)
	}
	return v
}
