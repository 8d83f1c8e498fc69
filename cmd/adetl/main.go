// Command adetl runs one client's normalization pipeline end to end: load
// the raw platform exports, classify/clean/map/coerce/merge them, write the
// merged CSV, and optionally upload to the client's spreadsheet and load the
// configured warehouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"adetl/internal/config"
	"adetl/internal/export"
	"adetl/internal/metrics"
	"adetl/internal/metrics/datadog"
	"adetl/internal/normalize"
	"adetl/internal/reader"
	"adetl/internal/sheets"
	"adetl/internal/table"
	"adetl/internal/warehouse"

	// register all warehouse backends with the factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "adetl/internal/warehouse/all"
)

func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		workers           int
		validate          bool
		upload            bool
		load              bool
	)

	flag.StringVar(&cfgPath, "config", "configs/client.yaml", "client config YAML path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (datadog, none)")
	flag.IntVar(&workers, "workers", 4, "concurrent file readers")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&upload, "upload", true, "upload to the spreadsheet when the config enables it")
	flag.BoolVar(&load, "warehouse", true, "load the warehouse when the config enables it")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		fatalf("config: %v", err)
	}

	// Build the pipeline before doing anything else so every configuration
	// invariant violation is reported up front, not mid-run.
	pipe, err := normalize.New(engineCfg, log.Default())
	if err != nil {
		fatalf("config: %v", err)
	}

	if validate {
		log.Printf("configuration is valid: %s", cfgPath)
		return
	}

	// Decide metrics backend: flag → env → default (disabled).
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: cfg.Client,
			Tags:    datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			log.Printf("metrics: backend=%v job_name=%v", backendName, cfg.Client)
			metrics.SetBackend(b)
			defer func() {
				if err := b.Close(); err != nil {
					log.Printf("metrics: datadog close/flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: client=%s raw_dir=%s sources=%d upload=%t warehouse=%s",
			cfg.Client, cfg.RawDir, len(cfg.Sources), cfg.Sheet.Upload, cfg.Warehouse.Kind)
	}

	if err := run(ctx, cfg, pipe, workers, upload, load); err != nil {
		log.Fatalf("%v", err)
	}
	metrics.ObserveDuration(metrics.RunDuration, time.Since(start), metrics.Labels{"client": cfg.Client})

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func run(ctx context.Context, cfg *config.Client, pipe *normalize.Pipeline, workers int, upload, load bool) error {
	tables, paths, err := reader.ReadDir(ctx, cfg.RawDir, workers)
	if err != nil {
		return err
	}
	metrics.IncCounter(metrics.FilesLoaded, float64(len(paths)), metrics.Labels{"client": cfg.Client})
	log.Printf("loaded %d file(s) from %s", len(paths), cfg.RawDir)

	merged, err := runStages(pipe, tables, cfg.Client)
	if err != nil {
		return err
	}
	metrics.IncCounter(metrics.TablesMerged, float64(len(tables)), metrics.Labels{"client": cfg.Client})
	metrics.IncCounter(metrics.RowsMerged, float64(merged.NumRows()), metrics.Labels{"client": cfg.Client})

	path, err := writeExport(cfg, merged)
	if err != nil {
		return err
	}
	log.Printf("exported %s rows=%d", path, merged.NumRows())

	if upload && cfg.Sheet.Upload {
		if err := uploadSheet(ctx, cfg, merged); err != nil {
			return err
		}
	}

	if load && cfg.Warehouse.Kind != "" {
		if err := loadWarehouse(ctx, cfg, pipe, merged); err != nil {
			return err
		}
	}

	return nil
}

// runStages drives the normalization stages one at a time so each stage gets
// a duration sample; normalize.Pipeline.Run is the same sequence without the
// metrics.
func runStages(pipe *normalize.Pipeline, tables []*table.Table, client string) (*table.Table, error) {
	r := pipe.NewRun(tables)

	for _, step := range []struct {
		name string
		fn   func() error
	}{
		{"classify", r.Classify},
		{"clean", r.Clean},
		{"map", r.Map},
		{"coerce", r.Coerce},
	} {
		start := time.Now()
		if err := step.fn(); err != nil {
			return nil, err
		}
		metrics.ObserveDuration(metrics.StageDuration, time.Since(start),
			metrics.Labels{"client": client, "stage": step.name})
		log.Printf("stage=%s ok duration=%s", step.name, time.Since(start).Truncate(time.Millisecond))
	}

	start := time.Now()
	merged, err := r.Merge()
	if err != nil {
		return nil, err
	}
	metrics.ObserveDuration(metrics.StageDuration, time.Since(start),
		metrics.Labels{"client": client, "stage": "merge"})
	log.Printf("stage=merge ok duration=%s", time.Since(start).Truncate(time.Millisecond))
	return merged, nil
}

func writeExport(cfg *config.Client, merged *table.Table) (string, error) {
	name, err := export.Filename(cfg.Client, merged)
	if err != nil {
		// A schema without a date column still exports, just without the
		// covered-period suffix.
		log.Printf("export: %v; falling back to plain name", err)
		name = cfg.Client + ".csv"
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("out dir: %w", err)
	}

	path := filepath.Join(outDir, name)
	if err := export.WriteCSV(path, merged); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return path, nil
}

func uploadSheet(ctx context.Context, cfg *config.Client, merged *table.Table) error {
	client, err := sheets.NewClient(ctx, cfg.Sheet.CredentialsFile)
	if err != nil {
		return err
	}

	tab := cfg.Sheet.Tab
	if tab == "" {
		tab = "Sheet1"
	}

	// Clear the full column span first: the previous upload may have held
	// more rows than this one.
	if err := client.Clear(ctx, cfg.Sheet.Key, tab, sheets.TableColumnRange(merged, 0)); err != nil {
		return err
	}
	rng := sheets.TableFullRange(merged, cfg.Sheet.VerticalOffset, 0)
	if err := client.Write(ctx, merged, cfg.Sheet.Key, tab, rng); err != nil {
		return err
	}
	log.Printf("uploaded %d row(s) to sheet %s tab %q range %s", merged.NumRows(), cfg.Sheet.Key, tab, rng)
	return nil
}

func loadWarehouse(ctx context.Context, cfg *config.Client, pipe *normalize.Pipeline, merged *table.Table) error {
	repo, err := warehouse.Open(ctx, warehouse.Config{Kind: cfg.Warehouse.Kind, DSN: cfg.Warehouse.DSN})
	if err != nil {
		return err
	}
	defer repo.Close()

	name := cfg.WarehouseTable()
	if err := repo.EnsureTable(ctx, name, pipe.Schema()); err != nil {
		return err
	}
	if err := repo.Replace(ctx, name, merged); err != nil {
		return err
	}
	log.Printf("loaded %d row(s) into %s table %q", merged.NumRows(), cfg.Warehouse.Kind, name)
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
