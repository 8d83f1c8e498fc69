package normalize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"adetl/internal/table"
)

type logRecorder struct {
	lines []string
}

func (l *logRecorder) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func mustPipeline(t *testing.T, cfg Config, logger Logger) *Pipeline {
	t.Helper()
	p, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func rawTable(t *testing.T, header []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(header, rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return tbl
}

func TestRunNormalizesTwoSources(t *testing.T) {
	rec := &logRecorder{}
	p := mustPipeline(t, validConfig(), rec)

	xads := rawTable(t,
		[]string{"Day", "Cost", "Average frequency"},
		[]string{"2025-08-01", "10", "-"},
	)
	tiktok := rawTable(t,
		[]string{"Ad name", "By Day", "Total Cost"},
		[]string{"summer promo", "2025-08-02", "20.5"},
	)

	merged, err := p.Run([]*table.Table{xads, tiktok})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !merged.Schema().Equal(p.Schema()) {
		t.Fatalf("merged schema = %s, want %s", merged.Schema(), p.Schema())
	}

	wantSources := []any{"x_ads", "tiktok"}
	if got := merged.Column(SourceColumn).Values; !reflect.DeepEqual(got, wantSources) {
		t.Errorf("Source = %v, want %v", got, wantSources)
	}

	wantSpend := []any{10.0, 20.5}
	if got := merged.Column("Spend").Values; !reflect.DeepEqual(got, wantSpend) {
		t.Errorf("Spend = %v, want %v", got, wantSpend)
	}

	d, ok := merged.Column("Date").Values[1].(time.Time)
	if !ok || d.Format(time.DateOnly) != "2025-08-02" {
		t.Errorf("Date[1] = %v", merged.Column("Date").Values[1])
	}

	var stages []string
	for _, line := range rec.lines {
		if strings.HasPrefix(line, "stage=") {
			stages = append(stages, strings.SplitN(strings.TrimPrefix(line, "stage="), " ", 2)[0])
		}
	}
	want := []string{"classify", "clean", "map", "coerce", "merge"}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stage log order = %v, want %v", stages, want)
	}
}

// Every configured source must come out of a run in the one canonical shape,
// missing canonical columns included.
func TestRunCoercesEverySourceToCanonicalSchema(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)

	inputs := map[string]*table.Table{
		"x_ads": rawTable(t,
			[]string{"Day", "Cost", "Average frequency"},
			[]string{"2025-08-01", "10", "1.5"},
		),
		"tiktok": rawTable(t,
			[]string{"Ad name", "By Day"}, // no cost column at all
			[]string{"promo", "2025-08-02"},
		),
	}

	for name, raw := range inputs {
		merged, err := p.Run([]*table.Table{raw})
		if err != nil {
			t.Fatalf("%s: Run: %v", name, err)
		}
		if !merged.Schema().Equal(p.Schema()) {
			t.Errorf("%s: schema = %s, want %s", name, merged.Schema(), p.Schema())
		}
		if got := merged.Column(SourceColumn).Values[0]; got != name {
			t.Errorf("%s: Source = %v", name, got)
		}
	}
}

func TestRunMergeRowOrderFollowsInputOrder(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)

	first := rawTable(t,
		[]string{"Day", "Cost", "Average frequency"},
		[]string{"2025-08-01", "1", "1"},
		[]string{"2025-08-02", "2", "1"},
	)
	second := rawTable(t,
		[]string{"Day", "Cost", "Average frequency"},
		[]string{"2025-08-03", "3", "1"},
	)

	merged, err := p.Run([]*table.Table{first, second})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []any{1.0, 2.0, 3.0}
	if got := merged.Column("Spend").Values; !reflect.DeepEqual(got, want) {
		t.Fatalf("Spend = %v, want %v", got, want)
	}
}

func TestClassifyRejectsUnmatchedTable(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)

	stray := rawTable(t, []string{"Campaign", "Impressions"}, []string{"c1", "100"})
	_, err := p.Run([]*table.Table{stray})

	var unclassified *UnclassifiedSourceError
	if !errors.As(err, &unclassified) {
		t.Fatalf("err = %v, want *UnclassifiedSourceError", err)
	}
	if !reflect.DeepEqual(unclassified.Columns, []string{"Campaign", "Impressions"}) {
		t.Errorf("Columns = %v", unclassified.Columns)
	}
}

func TestClassifyOverwritesExistingSourceColumn(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)

	// An export that already ships a Source column of its own.
	stale := rawTable(t,
		[]string{"Source", "Day", "Cost", "Average frequency"},
		[]string{"wrong", "2025-08-01", "10", "1"},
		[]string{"", "2025-08-02", "20", "1"},
	)

	merged, err := p.Run([]*table.Table{stale})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []any{"x_ads", "x_ads"}
	if got := merged.Column(SourceColumn).Values; !reflect.DeepEqual(got, want) {
		t.Fatalf("Source = %v, want %v", got, want)
	}

	count := 0
	for _, name := range merged.Columns() {
		if name == SourceColumn {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("Source column appears %d times", count)
	}
}

func TestRunSourcesReportsPerTableIdentity(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)
	r := p.NewRun([]*table.Table{
		rawTable(t, []string{"Ad name", "By Day", "Total Cost"}, []string{"a", "2025-08-01", "1"}),
		rawTable(t, []string{"Day", "Cost", "Average frequency"}, []string{"2025-08-01", "1", "1"}),
	})

	if err := r.Classify(); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got := r.Sources(); !reflect.DeepEqual(got, []string{"tiktok", "x_ads"}) {
		t.Fatalf("Sources = %v", got)
	}
}

func TestStagesEnforceOrder(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)

	t.Run("skip ahead", func(t *testing.T) {
		r := p.NewRun(nil)
		err := r.Clean()
		var orderErr *StageOrderError
		if !errors.As(err, &orderErr) {
			t.Fatalf("err = %v, want *StageOrderError", err)
		}
		if orderErr.Op != "clean" || orderErr.Have != StageLoaded || orderErr.Want != StageClassified {
			t.Errorf("StageOrderError = %+v", orderErr)
		}
	})

	t.Run("repeat stage", func(t *testing.T) {
		r := p.NewRun([]*table.Table{
			rawTable(t, []string{"Day", "Cost", "Average frequency"}, []string{"2025-08-01", "1", "1"}),
		})
		if err := r.Classify(); err != nil {
			t.Fatalf("Classify: %v", err)
		}
		var orderErr *StageOrderError
		if err := r.Classify(); !errors.As(err, &orderErr) {
			t.Fatalf("second Classify err = %v, want *StageOrderError", err)
		}
	})

	t.Run("merge before coerce", func(t *testing.T) {
		r := p.NewRun(nil)
		var orderErr *StageOrderError
		if _, err := r.Merge(); !errors.As(err, &orderErr) {
			t.Fatalf("Merge err = %v, want *StageOrderError", err)
		}
	})
}

func TestCoerceWrapsCastErrorWithSource(t *testing.T) {
	p := mustPipeline(t, validConfig(), nil)

	bad := rawTable(t,
		[]string{"Day", "Cost", "Average frequency"},
		[]string{"2025-08-01", "₩1,000", "1"},
	)
	_, err := p.Run([]*table.Table{bad})
	if err == nil {
		t.Fatal("expected cast failure")
	}
	if !strings.Contains(err.Error(), `source "x_ads"`) {
		t.Errorf("err = %v, want source attribution", err)
	}
	var castErr *table.CastError
	if !errors.As(err, &castErr) {
		t.Errorf("err = %v, want wrapped *CastError", err)
	}
	if castErr.Column != "Spend" {
		t.Errorf("Column = %q", castErr.Column)
	}
}
