package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adetl/internal/config"
	"adetl/internal/normalize"
	"adetl/internal/table"
)

func testConfig(t *testing.T, rawDir, outDir string) *config.Client {
	t.Helper()
	cfg := &config.Client{
		Client: "like_eat",
		RawDir: rawDir,
		OutDir: outDir,
		Sources: []config.SourceConfig{
			{
				Name:     "x_ads",
				Criteria: []string{"Average frequency"},
				Rename:   map[string]string{"Day": "Date", "Cost": "Spend"},
				Cleaners: []string{"x_avg_frequency_dash_to_zero"},
			},
			{
				Name:     "tiktok",
				Criteria: []string{"Ad name"},
				Rename:   map[string]string{"By Day": "Date", "Total Cost": "Spend"},
				Cleaners: []string{"tiktok_remove_total_row"},
			},
		},
		Schema: []config.SchemaColumn{
			{Name: "Source", Type: "string"},
			{Name: "Date", Type: "date"},
			{Name: "Spend", Type: "float"},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func buildPipeline(t *testing.T, cfg *config.Client) *normalize.Pipeline {
	t.Helper()
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	pipe, err := normalize.New(engineCfg, nil)
	if err != nil {
		t.Fatalf("normalize.New: %v", err)
	}
	return pipe
}

func TestRunEndToEnd(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()

	files := map[string]string{
		"01_x.csv":      "Day,Cost,Average frequency\n2025-08-01,10,-\n",
		"02_tiktok.csv": "Ad name,By Day,Total Cost\npromo,2025-08-02,20.5\nTotal of 1 days,,20.5\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(rawDir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := testConfig(t, rawDir, outDir)
	pipe := buildPipeline(t, cfg)

	if err := run(context.Background(), cfg, pipe, 2, false, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("out dir has %d entries", len(entries))
	}
	name := entries[0].Name()
	if name != "like_eat_2025-08-01–2025-08-02.csv" {
		t.Fatalf("export name = %q", name)
	}

	raw, err := os.ReadFile(filepath.Join(outDir, name))
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	if !strings.Contains(body, "x_ads,2025-08-01,10") {
		t.Errorf("export missing x_ads row:\n%s", body)
	}
	if !strings.Contains(body, "tiktok,2025-08-02,20.5") {
		t.Errorf("export missing tiktok row:\n%s", body)
	}
	if strings.Contains(body, "Total of 1 days") {
		t.Errorf("total row survived cleaning:\n%s", body)
	}
}

func TestRunStagesRejectsUnclassifiedFile(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), t.TempDir())
	pipe := buildPipeline(t, cfg)

	stray, err := table.FromRows([]string{"Campaign"}, [][]string{{"c1"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := runStages(pipe, []*table.Table{stray}, cfg.Client); err == nil {
		t.Fatal("expected classification failure")
	}
}

func TestWriteExportFallsBackWithoutDateColumn(t *testing.T) {
	outDir := t.TempDir()
	cfg := &config.Client{Client: "like_eat", OutDir: outDir}

	tbl, err := table.New(
		table.Column{Name: "Source", Kind: table.KindString, Values: []any{"x_ads"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	path, err := writeExport(cfg, tbl)
	if err != nil {
		t.Fatalf("writeExport: %v", err)
	}
	if filepath.Base(path) != "like_eat.csv" {
		t.Fatalf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export not written: %v", err)
	}
}
