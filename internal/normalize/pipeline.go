// Package normalize implements the multi-source schema-normalization engine:
// classify raw tables by column fingerprint, apply source-specific cleaners,
// rename to canonical columns, coerce into the canonical schema, and merge
// into one table.
//
// The stages run strictly in sequence over the whole batch:
//
//	Classified → Cleaned → Mapped → Coerced → Merged
//
// A Run enforces that order dynamically; Pipeline.Run drives all stages with
// per-stage logs. Every error is fatal to the run: downstream consumers must
// never see partially normalized data.
package normalize

import (
	"fmt"
	"log"
	"time"

	"adetl/internal/table"
)

// Logger is the minimal logging interface used by the pipeline.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Stage identifies how far a Run has progressed.
type Stage int

const (
	StageLoaded Stage = iota
	StageClassified
	StageCleaned
	StageMapped
	StageCoerced
	StageMerged
)

func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageClassified:
		return "classified"
	case StageCleaned:
		return "cleaned"
	case StageMapped:
		return "mapped"
	case StageCoerced:
		return "coerced"
	case StageMerged:
		return "merged"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Pipeline is a validated, immutable normalization configuration. Building
// one fails fast on any configuration invariant so a typo'd canonical column
// surfaces before the first file is read.
type Pipeline struct {
	cfg    Config
	logger Logger
}

// New validates cfg and returns a ready pipeline. The returned error, if
// any, is a *ConfigError listing every violated invariant.
func New(cfg Config, logger Logger) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Schema returns the canonical schema every run of this pipeline produces.
func (p *Pipeline) Schema() table.Schema { return p.cfg.Schema }

func (p *Pipeline) logf(format string, v ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Printf(format, v...)
}

// Run executes all stages over the loaded tables and returns the merged
// canonical table. Input order is preserved as merge row order.
func (p *Pipeline) Run(tables []*table.Table) (*table.Table, error) {
	run := p.NewRun(tables)

	for _, step := range []struct {
		name string
		fn   func() error
	}{
		{"classify", run.Classify},
		{"clean", run.Clean},
		{"map", run.Map},
		{"coerce", run.Coerce},
	} {
		start := time.Now()
		if err := step.fn(); err != nil {
			return nil, err
		}
		p.logf("stage=%s ok duration=%s", step.name, durMS(start))
	}

	start := time.Now()
	merged, err := run.Merge()
	if err != nil {
		return nil, err
	}
	p.logf("stage=merge ok duration=%s", durMS(start))
	return merged, nil
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

// Run carries one batch of tables through the stages. The zero value is not
// usable; obtain one from Pipeline.NewRun.
type Run struct {
	p       *Pipeline
	stage   Stage
	tables  []*table.Table
	sources []string // resolved identity per table, set by Classify
}

// NewRun starts a run over loaded raw tables. The tables are owned by the
// run from here on and mutated in place through the stages.
func (p *Pipeline) NewRun(tables []*table.Table) *Run {
	return &Run{p: p, stage: StageLoaded, tables: tables}
}

// Sources returns the per-table identities resolved by Classify, in input
// order.
func (r *Run) Sources() []string { return r.sources }

func (r *Run) advance(op string, want Stage) error {
	if r.stage != want {
		return &StageOrderError{Op: op, Have: r.stage, Want: want}
	}
	r.stage = want + 1
	return nil
}

// Classify resolves each table's source identity from its column set and
// stamps it as a new leading Source column on every row. A file that already
// carries a Source column gets it overwritten in place: the resolved identity
// is authoritative over anything the export claims about itself.
func (r *Run) Classify() error {
	if err := r.advance("classify", StageLoaded); err != nil {
		return err
	}
	r.sources = make([]string, len(r.tables))
	for i, t := range r.tables {
		src, err := r.p.detect(t)
		if err != nil {
			return err
		}
		if c := t.Column(SourceColumn); c != nil {
			c.Kind = table.KindString
			for j := range c.Values {
				c.Values[j] = src
			}
		} else if err := t.Prepend(SourceColumn, table.KindString, src); err != nil {
			return fmt.Errorf("stamp source on table %d: %w", i, err)
		}
		r.sources[i] = src
	}
	return nil
}

// Clean applies each table's source-bound cleaners in configured order.
// Sources with no cleaners pass through unchanged. A cleaner that cannot
// apply fails the run: cleaners only ever see tables confirmed to belong to
// their source.
func (r *Run) Clean() error {
	if err := r.advance("clean", StageClassified); err != nil {
		return err
	}
	for i, t := range r.tables {
		src := r.p.source(r.sources[i])
		for _, name := range src.Cleaners {
			fn, ok := LookupCleaner(name)
			if !ok {
				// Unreachable: config validation resolves names eagerly.
				return fmt.Errorf("source %q: unknown cleaner %q", src.Name, name)
			}
			if err := fn(t); err != nil {
				return fmt.Errorf("source %q: %w", src.Name, err)
			}
		}
	}
	return nil
}

// Map renames source-native columns to canonical names per each table's
// resolved source. Columns outside the mapping keep their names; the coercer
// drops them later.
func (r *Run) Map() error {
	if err := r.advance("map", StageCleaned); err != nil {
		return err
	}
	for i, t := range r.tables {
		src := r.p.source(r.sources[i])
		if src == nil || len(src.Rename) == 0 {
			return &MissingMappingError{Source: r.sources[i]}
		}
		t.Rename(src.Rename)
	}
	return nil
}

// Coerce forces every table into the canonical schema: fill missing columns
// with nulls, select exactly the canonical columns in canonical order, and
// cast each column to its declared kind.
func (r *Run) Coerce() error {
	if err := r.advance("coerce", StageMapped); err != nil {
		return err
	}
	schema := r.p.cfg.Schema
	for i, t := range r.tables {
		for _, f := range schema {
			if !t.Has(f.Name) {
				if err := t.AddNull(f.Name, f.Kind); err != nil {
					return fmt.Errorf("source %q: %w", r.sources[i], err)
				}
			}
		}
		selected, err := t.Select(schema.Columns())
		if err != nil {
			return fmt.Errorf("source %q: %w", r.sources[i], err)
		}
		if err := selected.Cast(schema); err != nil {
			return fmt.Errorf("source %q: %w", r.sources[i], err)
		}
		r.tables[i] = selected
	}
	return nil
}

// Merge concatenates the coerced tables row-wise, file order then row order,
// and returns the terminal merged table. All inputs are schema-identical by
// the coercion guarantee; anything else is a bug surfaced as
// *table.SchemaMismatchError.
func (r *Run) Merge() (*table.Table, error) {
	if err := r.advance("merge", StageCoerced); err != nil {
		return nil, err
	}
	merged, err := table.Concat(r.tables)
	if err != nil {
		return nil, err
	}
	r.p.logf("%d file(s) merged rows=%d", len(r.tables), merged.NumRows())
	return merged, nil
}

// detect returns the first configured source whose required column set is a
// subset of the table's columns. Configuration forbids shared discriminating
// columns, so at most one source can realistically match; iteration order is
// a deterministic fallback, not the mechanism.
func (p *Pipeline) detect(t *table.Table) (string, error) {
	cols := make(map[string]struct{}, t.NumCols())
	for _, name := range t.Columns() {
		cols[name] = struct{}{}
	}

	for _, src := range p.cfg.Sources {
		matched := true
		for _, required := range src.Criteria {
			if _, ok := cols[required]; !ok {
				matched = false
				break
			}
		}
		if matched {
			return src.Name, nil
		}
	}
	return "", &UnclassifiedSourceError{Columns: t.Columns()}
}

func (p *Pipeline) source(name string) *Source {
	for i := range p.cfg.Sources {
		if p.cfg.Sources[i].Name == name {
			return &p.cfg.Sources[i]
		}
	}
	return nil
}

var _ Logger = (*log.Logger)(nil)
