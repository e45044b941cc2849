// Package analyze determines which modules a compiled fragment depends on.
//
// The current implementation scans the fragment text for module-qualified
// call sites. That is pragmatic but fragile, so it hides behind the Analyzer
// interface: a future implementation can read the compiler's own symbol
// tables without touching callers.
package analyze

import (
	"fmt"
	"os"
	"regexp"

	"github.com/crosscast/tvlink/internal/core/catalog"
)

// Analyzer resolves one compiled fragment into its dependency set.
type Analyzer interface {
	// Analyze classifies the fragment's module references against the
	// catalog. self is the logical name of the component that owns the
	// fragment ("" for free-standing modules); a fragment never depends on
	// itself.
	Analyze(fragment []byte, self string, cat *catalog.Catalog) catalog.DependencyResult

	// AnalyzeFile reads and analyzes the fragment at path. An unreadable
	// fragment returns an empty result alongside the error so callers can
	// degrade instead of aborting.
	AnalyzeFile(path, self string, cat *catalog.Catalog) (catalog.DependencyResult, error)
}

// callSitePattern matches module-qualified call sites of the form
// Module_member(. The first capture group is the module prefix.
var callSitePattern = regexp.MustCompile(`\b([A-Za-z][A-Za-z0-9]*)_[A-Za-z][A-Za-z0-9]*\s*\(`)

// scanAnalyzer is the regex-based Analyzer.
type scanAnalyzer struct{}

// New returns the default text-scanning analyzer.
func New() Analyzer {
	return scanAnalyzer{}
}

func (scanAnalyzer) Analyze(fragment []byte, self string, cat *catalog.Catalog) catalog.DependencyResult {
	result := catalog.NewDependencyResult()

	// Candidate prefixes are matched against each catalog set independently:
	// a name appearing in two sets counts under both.
	for _, m := range callSitePattern.FindAllSubmatch(fragment, -1) {
		prefix := string(m[1])

		if _, ok := cat.Runtime[prefix]; ok {
			result.Runtime[prefix] = true
		}
		if _, ok := cat.Primary[prefix]; ok {
			result.Primary[prefix] = true
		}
		if _, ok := cat.Component[prefix]; ok && prefix != self {
			result.Component[prefix] = true
		}
	}

	// Core runtime modules are required even when no textual reference
	// exists: parts of the runtime are reached implicitly.
	for _, name := range catalog.CoreRuntimeModules {
		result.Runtime[name] = true
	}

	return result
}

func (a scanAnalyzer) AnalyzeFile(path, self string, cat *catalog.Catalog) (catalog.DependencyResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.NewDependencyResult(), fmt.Errorf("reading fragment %s: %w", path, err)
	}
	return a.Analyze(data, self, cat), nil
}
