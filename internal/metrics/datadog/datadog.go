// Package datadog implements a Datadog backend for the internal/metrics
// facade.
//
// Pipeline runs are short-lived, so the backend buffers in memory and
// submits on Flush(); a background ticker flushes periodically for the rare
// long run, and Close() flushes one final time at shutdown.
//
// Concurrency model:
//   - pipeline goroutines call IncCounter/ObserveHistogram at any time
//   - Flush snapshots and resets buffers under a mutex, submits out-of-lock
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"adetl/internal/metrics"
)

// Options controls backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric. Defaults to "adetl".
	JobName string

	// Tags are extra Datadog tags (e.g. "client:like_eat").
	Tags []string

	// FlushEvery controls the background flush interval. Defaults to 60s.
	FlushEvery time.Duration

	// Unexported test seams; production never sets these.
	now       func() time.Time
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal slice of the Datadog SDK the backend
// needs; tests inject a fake to avoid real HTTP.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	submitter metricsSubmitter
	ctx       context.Context
	now       func() time.Time

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	mu       sync.Mutex
	counters map[string]map[string]float64 // metric -> labelKey -> value
	samples  map[string][]float64          // metric|labelKey -> samples (seconds)
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a Datadog backend using the official client.
// Credentials come from the SDK's default context (DD_API_KEY etc.);
// network errors surface from Flush(), not construction.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "adetl"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := append([]string{resolveEnvTag(), "job:" + job}, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}

	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		submitter:  submitter,
		ctx:        dd.NewDefaultContext(parent),
		now:        nowFn,
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		counters:   make(map[string]map[string]float64),
		samples:    make(map[string][]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)
	t := time.NewTicker(b.flushEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the flush loop and flushes once more. Close once.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.counters[name]
	if m == nil {
		m = make(map[string]float64)
		b.counters[name] = m
	}
	m[labelKey(labels)] += delta
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := name
	if lk := labelKey(labels); lk != "" {
		key = name + "|" + lk
	}
	b.samples[key] = append(b.samples[key], value)
}

// labelKey serializes labels deterministically ("k:v,k:v").
func labelKey(labels metrics.Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + labels[k]
	}
	return strings.Join(parts, ",")
}

type snapshot struct {
	counters map[string]map[string]float64
	samples  map[string][]float64
}

func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := snapshot{counters: b.counters, samples: b.samples}
	b.counters = make(map[string]map[string]float64)
	b.samples = make(map[string][]float64)
	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.counters) == 0 && len(s.samples) == 0
}

// Flush submits buffered metrics and resets buffers. Buffers reset even when
// submission fails; metric delivery is best-effort by design.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: b.buildSeries(snap, b.now().Unix())}
	_, _, err := b.submitter.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries is pure (no locks, no clocks, no network) so tests can assert
// on naming and tagging, which are an operational contract.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	point := func(v float64) []datadogV2.MetricPoint {
		return []datadogV2.MetricPoint{{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(v)}}
	}

	series := make([]datadogV2.MetricSeries, 0, len(s.counters)+len(s.samples)*3)

	counterNames := make([]string, 0, len(s.counters))
	for name := range s.counters {
		counterNames = append(counterNames, name)
	}
	sort.Strings(counterNames)
	for _, name := range counterNames {
		for lk, v := range s.counters[name] {
			if v == 0 {
				continue
			}
			series = append(series, datadogV2.MetricSeries{
				Metric: ddName(name),
				Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
				Points: point(v),
				Tags:   withTags(b.baseTags, lk),
			})
		}
	}

	sampleKeys := make([]string, 0, len(s.samples))
	for key := range s.samples {
		sampleKeys = append(sampleKeys, key)
	}
	sort.Strings(sampleKeys)
	for _, key := range sampleKeys {
		samples := s.samples[key]
		if len(samples) == 0 {
			continue
		}
		name, lk, _ := strings.Cut(key, "|")
		tags := withTags(b.baseTags, lk)

		cp := append([]float64(nil), samples...)
		sort.Float64s(cp)
		sum := 0.0
		for _, v := range cp {
			sum += v
		}

		gauge := func(suffix string, v float64) datadogV2.MetricSeries {
			return datadogV2.MetricSeries{
				Metric: ddName(name) + suffix,
				Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
				Points: point(v),
				Tags:   tags,
			}
		}
		series = append(series, gauge(".avg", sum/float64(len(cp))))
		series = append(series, gauge(".max", cp[len(cp)-1]))
		series = append(series, gauge(".samples", float64(len(cp))))
	}

	return series
}

// ParseTagsCSV splits a comma-separated tag list ("client:x, team:ads") into
// trimmed non-empty tags.
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ddName converts facade names (underscored) to Datadog dotted names:
// adetl_rows_total -> adetl.rows.total.
func ddName(name string) string {
	return strings.ReplaceAll(name, "_", ".")
}

func withTags(base []string, extra string) []string {
	out := append([]string(nil), base...)
	for _, tag := range strings.Split(extra, ",") {
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
