// Package filter decides which declared examples take part in a run, based on
// inclusion and exclusion tag predicates evaluated against example metadata.
package filter

import (
	"fmt"
	"regexp"

	"github.com/ethereum-optimism/infra/op-describe/types"
)

// Filter holds the inclusion and exclusion tag predicates of a run.
// The zero value selects everything.
type Filter struct {
	Inclusion types.Metadata
	Exclusion types.Metadata
}

// Candidate is the metadata view of one example at filter time.
type Candidate struct {
	// Merged is the example's full metadata, ancestors included.
	Merged types.Metadata
	// Local holds the tag maps carried directly by the example and by each of its
	// groups, innermost first. An inclusion match in any of them forces inclusion
	// as long as the merged value of that key still matches.
	Local []types.Metadata
}

// IsEmpty reports whether neither predicate is set.
func (f Filter) IsEmpty() bool {
	return len(f.Inclusion) == 0 && len(f.Exclusion) == 0
}

// Selects decides whether the candidate runs.
//
// With an inclusion filter only candidates satisfying it are kept. A tag that
// matches inclusion and is carried locally by the example or any of its groups
// forces inclusion, and exclusion never removes a force-included candidate.
// A closer group that overrides the tag with a non-matching value cancels it.
// Without an inclusion filter, candidates satisfying the exclusion filter are dropped.
func (f Filter) Selects(c Candidate) bool {
	forced := false
	if len(f.Inclusion) > 0 {
		for _, local := range c.Local {
			if forces(local, c.Merged, f.Inclusion) {
				forced = true
				break
			}
		}
		if !forced && !Satisfies(c.Merged, f.Inclusion) {
			return false
		}
	}
	if len(f.Exclusion) > 0 && !forced && Satisfies(c.Merged, f.Exclusion) {
		return false
	}
	return true
}

// Satisfies reports whether metadata matches at least one predicate of conditions.
func Satisfies(metadata, conditions types.Metadata) bool {
	for key, want := range conditions {
		got, ok := metadata[key]
		if !ok {
			continue
		}
		if Matches(got, want) {
			return true
		}
	}
	return false
}

// forces reports whether a local tag matches inclusion and the merged metadata
// still carries a matching value for the same key.
func forces(local, merged, inclusion types.Metadata) bool {
	for key, want := range inclusion {
		got, ok := local[key]
		if !ok || !Matches(got, want) {
			continue
		}
		if effective, ok := merged[key]; ok && Matches(effective, want) {
			return true
		}
	}
	return false
}

// Matches applies a single predicate value to a metadata value.
//
// Supported predicate values are a *regexp.Regexp (matched against the value's
// string form), a func(any) bool, a []any (any element equal) or any other value
// compared for equality.
func Matches(value, predicate any) bool {
	switch p := predicate.(type) {
	case *regexp.Regexp:
		return p.MatchString(fmt.Sprint(value))
	case func(any) bool:
		return p(value)
	case []any:
		for _, candidate := range p {
			if types.EqualValues(value, candidate) {
				return true
			}
		}
		return false
	default:
		return types.EqualValues(value, predicate)
	}
}
