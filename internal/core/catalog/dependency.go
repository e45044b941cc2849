package catalog

import "sort"

// DependencyResult is the outcome of analyzing one compiled fragment: the
// module identifiers it requires, classified per catalog set. A name can
// appear in more than one set when the catalogs overlap.
type DependencyResult struct {
	Runtime   map[string]bool
	Primary   map[string]bool
	Component map[string]bool
}

// NewDependencyResult returns an empty result with all sets allocated.
func NewDependencyResult() DependencyResult {
	return DependencyResult{
		Runtime:   make(map[string]bool),
		Primary:   make(map[string]bool),
		Component: make(map[string]bool),
	}
}

// Empty reports whether no dependency was recorded in any set.
func (r DependencyResult) Empty() bool {
	return len(r.Runtime) == 0 && len(r.Primary) == 0 && len(r.Component) == 0
}

// Total returns the number of recorded dependencies across all sets.
func (r DependencyResult) Total() int {
	return len(r.Runtime) + len(r.Primary) + len(r.Component)
}

// SortedRuntime returns the runtime dependencies in lexicographic order.
func (r DependencyResult) SortedRuntime() []string { return sortedSet(r.Runtime) }

// SortedPrimary returns the primary dependencies in lexicographic order.
func (r DependencyResult) SortedPrimary() []string { return sortedSet(r.Primary) }

// SortedComponent returns the component dependencies in lexicographic order.
func (r DependencyResult) SortedComponent() []string { return sortedSet(r.Component) }

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
