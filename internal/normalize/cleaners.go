package normalize

import (
	"fmt"
	"sort"

	"adetl/internal/table"
)

// CleanerFunc is a source-specific table fix applied after classification and
// before renaming. Cleaners mutate the table in place and run only on tables
// already confirmed to belong to the source they were registered for, so a
// missing expected column is a fatal error, not a skip.
type CleanerFunc func(t *table.Table) error

var cleanerRegistry = map[string]CleanerFunc{}

// RegisterCleaner adds a cleaner to the name-keyed registry. Client configs
// bind cleaners to sources by these names. Registering a duplicate name
// panics: it is a programming error, mirroring database/sql driver
// registration.
func RegisterCleaner(name string, fn CleanerFunc) {
	if _, dup := cleanerRegistry[name]; dup {
		panic(fmt.Sprintf("normalize: cleaner %q registered twice", name))
	}
	cleanerRegistry[name] = fn
}

// LookupCleaner resolves a registered cleaner by name.
func LookupCleaner(name string) (CleanerFunc, bool) {
	fn, ok := cleanerRegistry[name]
	return fn, ok
}

// CleanerNames returns the registered cleaner names, sorted.
func CleanerNames() []string {
	out := make([]string, 0, len(cleanerRegistry))
	for name := range cleanerRegistry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
