// Command classify answers "which source is this export?" for one or more
// raw files without running the full pipeline. Useful when a platform
// changes its export columns and files stop classifying.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"adetl/internal/config"
	"adetl/internal/normalize"
	"adetl/internal/reader"
	"adetl/internal/table"
)

func main() {
	cfgPath := flag.String("config", "configs/client.yaml", "client config YAML path")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: classify [-config path] file.csv [file.xlsx ...]")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	pipe, err := normalize.New(engineCfg, nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	failed := false
	for _, path := range flag.Args() {
		t, err := reader.ReadFile(path)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed = true
			continue
		}

		run := pipe.NewRun([]*table.Table{t})
		if err := run.Classify(); err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed = true
			continue
		}
		// Skip the stamped Source column when echoing the file's own columns.
		fmt.Printf("%s: source=%s columns=[%s]\n", path, run.Sources()[0], strings.Join(t.Columns()[1:], ", "))
	}

	if failed {
		os.Exit(1)
	}
}
