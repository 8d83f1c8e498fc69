package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"adetl/internal/table"
	"adetl/internal/warehouse"
)

func openTestRepo(t *testing.T) warehouse.Repository {
	t.Helper()
	repo, err := warehouse.Open(context.Background(), warehouse.Config{
		Kind: "sqlite",
		DSN:  "file:" + t.TempDir() + "/wh.db",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mergedTable(t *testing.T, spends ...float64) *table.Table {
	t.Helper()
	n := len(spends)
	sources := make([]any, n)
	dates := make([]any, n)
	vals := make([]any, n)
	for i, s := range spends {
		sources[i] = "x_ads"
		dates[i] = time.Date(2025, 8, 1+i, 0, 0, 0, 0, time.UTC)
		vals[i] = s
	}
	tbl, err := table.New(
		table.Column{Name: "Source", Kind: table.KindString, Values: sources},
		table.Column{Name: "Date", Kind: table.KindDate, Values: dates},
		table.Column{Name: "Spend", Kind: table.KindFloat, Values: vals},
	)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

var schema = table.Schema{
	{Name: "Source", Kind: table.KindString},
	{Name: "Date", Kind: table.KindDate},
	{Name: "Spend", Kind: table.KindFloat},
}

func TestEnsureTableIsIdempotent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.EnsureTable(ctx, "ad_performance", schema); err != nil {
		t.Fatalf("first EnsureTable: %v", err)
	}
	if err := repo.EnsureTable(ctx, "ad_performance", schema); err != nil {
		t.Fatalf("second EnsureTable: %v", err)
	}
}

func TestReplaceSwapsContents(t *testing.T) {
	dsn := "file:" + t.TempDir() + "/wh.db"
	repo, err := warehouse.Open(context.Background(), warehouse.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	if err := repo.EnsureTable(ctx, "ad_performance", schema); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if err := repo.Replace(ctx, "ad_performance", mergedTable(t, 1, 2, 3)); err != nil {
		t.Fatalf("first Replace: %v", err)
	}
	// A re-run replaces, never appends.
	if err := repo.Replace(ctx, "ad_performance", mergedTable(t, 10.5, 20)); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "ad_performance"`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("row count = %d, want 2", n)
	}

	var date string
	var spend float64
	row := db.QueryRow(`SELECT "Date", "Spend" FROM "ad_performance" ORDER BY "Date" LIMIT 1`)
	if err := row.Scan(&date, &spend); err != nil {
		t.Fatal(err)
	}
	if date != "2025-08-01" {
		t.Errorf("date stored as %q, want ISO text", date)
	}
	if spend != 10.5 {
		t.Errorf("spend = %v", spend)
	}
}

func TestReplaceStoresNulls(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	tbl, err := table.New(
		table.Column{Name: "Source", Kind: table.KindString, Values: []any{"x_ads"}},
		table.Column{Name: "Date", Kind: table.KindDate, Values: []any{nil}},
		table.Column{Name: "Spend", Kind: table.KindFloat, Values: []any{nil}},
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.EnsureTable(ctx, "t", tbl.Schema()); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if err := repo.Replace(ctx, "t", tbl); err != nil {
		t.Fatalf("Replace: %v", err)
	}
}
