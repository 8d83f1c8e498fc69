package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"adetl/internal/table"
)

// ReadFile dispatches on file extension.
func ReadFile(path string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
}

// ReadDir snapshots a directory once and loads every .csv and .xlsx file in
// it. Files are read concurrently (workers <= 1 means sequential) but the
// returned tables are always in sorted-name traversal order, which later
// fixes merge row order. Non-tabular files are ignored; a subdirectory is
// not descended into.
//
// Any single file failure fails the whole load: a run either sees the
// complete snapshot or nothing.
func ReadDir(ctx context.Context, dir string, workers int) ([]*table.Table, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no .csv or .xlsx files in %s", dir)
	}

	if workers <= 0 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tables := make([]*table.Table, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				t, err := ReadFile(paths[i])
				if err != nil {
					cancel(err)
					return
				}
				tables[i] = t
			}
		}()
	}

	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, nil, err
	}
	return tables, paths, nil
}
