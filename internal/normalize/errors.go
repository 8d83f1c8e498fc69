package normalize

import (
	"fmt"
	"strings"
)

// ConfigError is a fatal configuration failure detected at pipeline
// construction, before any file I/O. It aggregates every violated invariant
// so a misconfigured client file can be fixed in one pass.
type ConfigError struct {
	Issues []string
}

func (e *ConfigError) Error() string {
	return "pipeline config: " + strings.Join(e.Issues, " | ")
}

// UnclassifiedSourceError means a raw table satisfied no configured source's
// required column set. Classification never falls back to an "Unknown" label:
// an unmapped table entering the merge would corrupt the run.
type UnclassifiedSourceError struct {
	Columns []string
}

func (e *UnclassifiedSourceError) Error() string {
	return fmt.Sprintf("no configured source matches columns [%s]", strings.Join(e.Columns, ", "))
}

// MissingMappingError means classification resolved a source that has no
// rename mapping. Construction-time validation makes this unreachable; it is
// kept as a runtime guard.
type MissingMappingError struct {
	Source string
}

func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("no rename mapping registered for source %q", e.Source)
}

// StageOrderError reports a pipeline stage invoked out of sequence.
type StageOrderError struct {
	Op   string
	Have Stage
	Want Stage
}

func (e *StageOrderError) Error() string {
	return fmt.Sprintf("%s: pipeline is at stage %s, want %s", e.Op, e.Have, e.Want)
}
