package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/tvlink/internal/build/analyze"
	"github.com/crosscast/tvlink/internal/core/catalog"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureOptions(t *testing.T) Options {
	t.Helper()
	base := t.TempDir()
	overlay := t.TempDir()
	runtime := t.TempDir()

	writeFile(t, base, "manifest", "title=Demo\n")
	writeFile(t, base, "source/Main.brs", "sub Main()\n\tAlpha_show()\nend sub")
	writeFile(t, base, "components/Alpha/Alpha.xml",
		`<component name="Alpha" extends="Group">`+"\n</component>\n")
	writeFile(t, base, "components/Beta/Beta.xml",
		`<component name="Beta" extends="Group">`+"\n</component>\n")

	writeFile(t, base, "components/Beta/Beta.brs", "sub Beta_render()\nend sub")

	writeFile(t, overlay, "source/Shared.brs", "sub Shared_init()\nend sub")
	writeFile(t, overlay, "components/AlphaKt.brs",
		"sub Alpha_show()\n\tShared_init()\n\tBeta_render()\n\tCollections_new()\nend sub")

	writeFile(t, runtime, "Runtime.brs", "' core")
	writeFile(t, runtime, "Lang.brs", "' core")
	writeFile(t, runtime, "Collections.brs", "' stdlib")

	return Options{
		BaseDir:    base,
		OverlayDir: overlay,
		RuntimeDir: runtime,
		DestDir:    filepath.Join(t.TempDir(), "merged"),
	}
}

func TestRunLinksAndMerges(t *testing.T) {
	opts := fixtureOptions(t)

	report, err := New(opts, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Components, 2)

	alpha := report.Components[0]
	assert.Equal(t, "Alpha", alpha.Name)
	assert.Equal(t, "AlphaKt.brs", alpha.Fragment)
	assert.Equal(t, 1, alpha.Primary)    // Shared
	assert.Equal(t, 1, alpha.Components) // Beta
	assert.Equal(t, 3, alpha.Runtime)    // Collections + always-required
	// own fragment + 1 primary + 1 component + 3 runtime
	assert.Equal(t, 6, alpha.Directives)

	beta := report.Components[1]
	assert.Equal(t, "Beta", beta.Name)
	assert.Equal(t, "Beta.brs", beta.Fragment)
	// own fragment + the always-required runtime pair
	assert.Equal(t, 3, beta.Directives)

	// Linked manifest in the destination declares the directives.
	linked, err := os.ReadFile(filepath.Join(opts.DestDir, "components", "Alpha", "Alpha.xml"))
	require.NoError(t, err)
	text := string(linked)
	assert.Contains(t, text, `uri="pkg:/components/Alpha/AlphaKt.brs"`)
	assert.Contains(t, text, `uri="pkg:/source/Shared.brs"`)
	assert.Contains(t, text, `uri="pkg:/source/lib/Collections.brs"`)

	// Beta's manifest declares its own fragment and the core runtime.
	betaDoc, err := os.ReadFile(filepath.Join(opts.DestDir, "components", "Beta", "Beta.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(betaDoc), `uri="pkg:/components/Beta/Beta.brs"`)

	// Merge placed the overlay fragment next to Alpha's manifest.
	assert.FileExists(t, filepath.Join(opts.DestDir, "components", "Alpha", "AlphaKt.brs"))
}

// erroringAnalyzer fails AnalyzeFile for one component to simulate an
// unreadable fragment.
type erroringAnalyzer struct {
	analyze.Analyzer
	failFor string
}

func (a erroringAnalyzer) AnalyzeFile(path, self string, cat *catalog.Catalog) (catalog.DependencyResult, error) {
	if self == a.failFor {
		return catalog.NewDependencyResult(), errors.New("read error")
	}
	return a.Analyzer.AnalyzeFile(path, self, cat)
}

func TestRunUnreadableFragmentDegrades(t *testing.T) {
	opts := fixtureOptions(t)

	report, err := New(opts, erroringAnalyzer{Analyzer: analyze.New(), failFor: "Alpha"}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Components, 2)

	alpha := report.Components[0]
	assert.Contains(t, alpha.Warning, "fragment unreadable")
	assert.Zero(t, alpha.Primary)
	// Analysis degraded, but the manifest still declares the fragment itself.
	assert.Equal(t, 1, alpha.Directives)

	// The unaffected component linked normally.
	beta := report.Components[1]
	assert.Empty(t, beta.Warning)
	assert.Equal(t, 3, beta.Directives)
}

func TestRunArchive(t *testing.T) {
	opts := fixtureOptions(t)
	opts.ArchivePath = filepath.Join(t.TempDir(), "demo.zip")

	report, err := New(opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.ArchiveEntries, 0)

	r, err := zip.OpenReader(opts.ArchivePath)
	require.NoError(t, err)
	defer r.Close()

	found := false
	for _, f := range r.File {
		if f.Name == "components/Alpha/Alpha.xml" {
			found = true
		}
		assert.False(t, strings.HasPrefix(f.Name, "/"))
	}
	assert.True(t, found, "linked manifest missing from archive")
}

func TestRunDeterministicAcrossRuns(t *testing.T) {
	opts := fixtureOptions(t)

	_, err := New(opts, nil).Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(opts.DestDir, "components", "Alpha", "Alpha.xml"))
	require.NoError(t, err)

	_, err = New(opts, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(opts.DestDir, "components", "Alpha", "Alpha.xml"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRunMissingRuntimeDirEmitsNoBrokenDirectives(t *testing.T) {
	opts := fixtureOptions(t)
	opts.RuntimeDir = filepath.Join(t.TempDir(), "absent")

	report, err := New(opts, nil).Run(context.Background())
	require.NoError(t, err)

	// The always-required runtime modules have no fragment to point at, so
	// no source/lib directive may appear, least of all one for "".
	for _, comp := range []string{"Alpha", "Beta"} {
		doc, err := os.ReadFile(filepath.Join(opts.DestDir, "components", comp, comp+".xml"))
		require.NoError(t, err)
		assert.NotContains(t, string(doc), "pkg:/source/lib/")
	}

	alpha := report.Components[0]
	assert.Contains(t, alpha.Warning, "Runtime")
	assert.Contains(t, alpha.Warning, "Lang")
	// own fragment + Shared + Beta; the always-required pair dropped
	assert.Equal(t, 3, alpha.Directives)
}

func TestRunNestedComponentDirectories(t *testing.T) {
	base := t.TempDir()
	overlay := t.TempDir()
	runtime := t.TempDir()

	writeFile(t, base, "manifest", "title=Demo\n")
	writeFile(t, base, "components/screens/Alpha/Alpha.xml",
		`<component name="Alpha" extends="Group">`+"\n</component>\n")
	writeFile(t, overlay, "components/AlphaKt.brs", "sub Alpha_show()\nend sub")
	writeFile(t, runtime, "Runtime.brs", "' core")
	writeFile(t, runtime, "Lang.brs", "' core")

	opts := Options{
		BaseDir:    base,
		OverlayDir: overlay,
		RuntimeDir: runtime,
		DestDir:    filepath.Join(t.TempDir(), "merged"),
	}

	_, err := New(opts, nil).Run(context.Background())
	require.NoError(t, err)

	// The linked manifest replaces the copy at the component's real nested
	// path; no flattened duplicate may appear.
	nested := filepath.Join(opts.DestDir, "components", "screens", "Alpha", "Alpha.xml")
	doc, err := os.ReadFile(nested)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<!-- tvlink:scripts:begin -->")
	assert.Contains(t, string(doc), `uri="pkg:/components/screens/Alpha/AlphaKt.brs"`)
	assert.NoFileExists(t, filepath.Join(opts.DestDir, "components", "Alpha", "Alpha.xml"))

	// The overlay fragment landed alongside the nested manifest.
	assert.FileExists(t, filepath.Join(opts.DestDir, "components", "screens", "Alpha", "AlphaKt.brs"))
	assert.NoFileExists(t, filepath.Join(opts.DestDir, "components", "Alpha", "AlphaKt.brs"))
}

func TestRunMissingManifestDirWarnsOnly(t *testing.T) {
	opts := Options{
		BaseDir:    filepath.Join(t.TempDir(), "no-base"),
		OverlayDir: filepath.Join(t.TempDir(), "no-overlay"),
		DestDir:    filepath.Join(t.TempDir(), "merged"),
	}

	report, err := New(opts, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Components)
	assert.NotEmpty(t, report.Warnings)
}

func TestStageError(t *testing.T) {
	inner := os.ErrPermission
	err := &StageError{Stage: StageMerge, Err: inner}
	assert.Contains(t, err.Error(), "stage merge")
	assert.ErrorIs(t, err, os.ErrPermission)
}
