// Package metrics is a minimal facade so pipeline code can emit counters and
// duration samples without depending on any vendor SDK. Backends (Datadog)
// live in subpackages; the default backend discards everything.
package metrics

import (
	"sync"
	"time"
)

// Labels are free-form metric dimensions.
type Labels map[string]string

// Backend receives metric writes. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names emitted by the pipeline.
const (
	FilesLoaded   = "adetl_files_total"
	TablesMerged  = "adetl_tables_merged_total"
	RowsMerged    = "adetl_rows_total"
	RunDuration   = "adetl_run_duration_seconds"
	StageDuration = "adetl_stage_duration_seconds"
)

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs the process-wide backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a named counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveDuration records a duration sample in seconds.
func ObserveDuration(name string, d time.Duration, labels Labels) {
	current().ObserveHistogram(name, d.Seconds(), labels)
}

// Flush pushes buffered metrics to the backend's sink.
func Flush() error {
	return current().Flush()
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }
