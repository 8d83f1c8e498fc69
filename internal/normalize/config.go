package normalize

import (
	"fmt"
	"sort"

	"adetl/internal/table"
)

// SourceColumn is the name of the leading column the classifier stamps onto
// every table with the resolved source identity.
const SourceColumn = "Source"

// Source declares one platform export shape: the column fingerprint that
// identifies it, the rename mapping into canonical names, and the ordered
// cleaners to run on its tables.
type Source struct {
	Name     string
	Criteria []string
	Rename   map[string]string
	Cleaners []string
}

// Config is the complete, per-client pipeline configuration. Source order is
// significant: the classifier probes candidates in declaration order.
type Config struct {
	Sources []Source
	Schema  table.Schema
}

// validate checks the construction-time invariants:
//
//	(a) no column name appears in more than one source's criteria
//	(b) every source has a fingerprint and a rename mapping (1:1)
//	(c) every rename target is declared in the canonical schema
//	(d) every cleaner name resolves in the cleaner registry
//
// All violations are collected into a single *ConfigError.
func (c Config) validate() error {
	var issues []string

	if len(c.Sources) == 0 {
		issues = append(issues, "no sources configured")
	}
	if len(c.Schema) == 0 {
		issues = append(issues, "canonical schema is empty")
	}

	seenNames := make(map[string]struct{}, len(c.Sources))
	criteriaOwner := make(map[string][]string)

	for _, src := range c.Sources {
		if src.Name == "" {
			issues = append(issues, "source with empty name")
			continue
		}
		if _, dup := seenNames[src.Name]; dup {
			issues = append(issues, fmt.Sprintf("source %q declared twice", src.Name))
			continue
		}
		seenNames[src.Name] = struct{}{}

		if len(src.Criteria) == 0 {
			issues = append(issues, fmt.Sprintf("source %q: empty criteria", src.Name))
		}
		for _, col := range src.Criteria {
			criteriaOwner[col] = append(criteriaOwner[col], src.Name)
		}

		if len(src.Rename) == 0 {
			issues = append(issues, fmt.Sprintf("source %q: no rename mapping", src.Name))
		}
		var badTargets []string
		for _, target := range src.Rename {
			if !c.Schema.Has(target) {
				badTargets = append(badTargets, target)
			}
		}
		if len(badTargets) > 0 {
			sort.Strings(badTargets)
			issues = append(issues, fmt.Sprintf("source %q: mapping targets not in canonical schema: %v", src.Name, badTargets))
		}

		for _, name := range src.Cleaners {
			if _, ok := LookupCleaner(name); !ok {
				issues = append(issues, fmt.Sprintf("source %q: unknown cleaner %q", src.Name, name))
			}
		}
	}

	// Shared discriminating columns make classification ambiguous.
	shared := make([]string, 0)
	for col, owners := range criteriaOwner {
		if len(owners) > 1 {
			sort.Strings(owners)
			shared = append(shared, fmt.Sprintf("column %q used by sources %v", col, owners))
		}
	}
	sort.Strings(shared)
	issues = append(issues, shared...)

	if len(issues) > 0 {
		return &ConfigError{Issues: issues}
	}
	return nil
}
