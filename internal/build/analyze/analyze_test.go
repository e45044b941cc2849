package analyze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/tvlink/internal/core/catalog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Runtime: map[string]string{
			"Runtime":     "runtime/Runtime.brs",
			"Lang":        "runtime/Lang.brs",
			"Collections": "runtime/Collections.brs",
		},
		Primary: map[string]string{
			"Shared": "source/Shared.brs",
			"Main":   "source/Main.brs",
		},
		Component: map[string]string{
			"Alpha": "components/Alpha/AlphaKt.brs",
			"Beta":  "components/Beta/BetaKt.brs",
		},
	}
}

func TestAnalyzeClassifiesCallSites(t *testing.T) {
	fragment := []byte(`
sub init()
	Shared_init()
	Collections_newList()
	Beta_show(m.top)
	Alpha_render() ' self reference
end sub
`)

	result := New().Analyze(fragment, "Alpha", testCatalog())

	assert.Equal(t, []string{"Shared"}, result.SortedPrimary())
	assert.Equal(t, []string{"Beta"}, result.SortedComponent())
	// Collections matched by scan; Runtime and Lang always required.
	assert.Equal(t, []string{"Collections", "Lang", "Runtime"}, result.SortedRuntime())
}

func TestAnalyzeSelfReferenceExcluded(t *testing.T) {
	fragment := []byte("sub init()\n\tShared_init()\n\tAlpha_render()\nend sub")

	result := New().Analyze(fragment, "Alpha", testCatalog())

	assert.Equal(t, []string{"Shared"}, result.SortedPrimary())
	assert.NotContains(t, result.Component, "Alpha")
}

func TestAnalyzeZeroMatchesStillHasCoreRuntime(t *testing.T) {
	result := New().Analyze([]byte("sub init()\n\tprint 1\nend sub"), "", testCatalog())

	assert.ElementsMatch(t, catalog.CoreRuntimeModules, result.SortedRuntime())
	assert.Empty(t, result.Primary)
	assert.Empty(t, result.Component)
}

func TestAnalyzeOverlappingCatalogsCountBoth(t *testing.T) {
	cat := testCatalog()
	// Same name known both as primary module and component.
	cat.Primary["Beta"] = "source/Beta.brs"

	result := New().Analyze([]byte("Beta_show()"), "Alpha", cat)

	assert.Contains(t, result.Primary, "Beta")
	assert.Contains(t, result.Component, "Beta")
}

func TestAnalyzeIgnoresNonCallReferences(t *testing.T) {
	// Assignments and bare identifiers are not call sites.
	fragment := []byte(`x = Shared_value` + "\n" + `print "Beta_show("`)

	result := New().Analyze(fragment, "", testCatalog())

	assert.Empty(t, result.Primary)
	// The quoted Beta_show( still matches textually; the scanner is
	// deliberately line-agnostic. Pin that behavior.
	assert.Contains(t, result.Component, "Beta")
}

func TestAnalyzeFileUnreadable(t *testing.T) {
	result, err := New().AnalyzeFile(filepath.Join(t.TempDir(), "missing.brs"), "", testCatalog())

	require.Error(t, err)
	assert.True(t, result.Empty())
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Alpha.brs")
	require.NoError(t, os.WriteFile(path, []byte("Shared_init()"), 0o644))

	result, err := New().AnalyzeFile(path, "Alpha", testCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"Shared"}, result.SortedPrimary())
}
