package merge

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscast/tvlink/internal/core/naming"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// snapshot returns rel path -> content for every file under root.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

// fixturePlan builds a typical base+overlay pair.
func fixturePlan(t *testing.T) (Plan, *naming.Resolver) {
	t.Helper()
	base := t.TempDir()
	overlay := t.TempDir()
	runtime := t.TempDir()

	writeFile(t, base, "manifest", "title=Demo\n")
	writeFile(t, base, "source/Main.brs", "' base main")
	writeFile(t, base, "components/Alpha/Alpha.xml", "<component name=\"Alpha\"></component>")
	writeFile(t, base, "components/Beta/Beta.xml", "<component name=\"Beta\"></component>")

	writeFile(t, overlay, "manifest", "title=Demo\nbuild=2\n")
	writeFile(t, overlay, "source/Shared.brs", "' overlay shared")
	writeFile(t, overlay, "components/AlphaKt.brs", "' overlay alpha fragment")
	writeFile(t, overlay, "components/OrphanKt.brs", "' no matching component")

	writeFile(t, runtime, "Runtime.brs", "' runtime")
	writeFile(t, runtime, "Lang.brs", "' lang")

	return Plan{
		Base:       base,
		Overlay:    overlay,
		RuntimeDir: runtime,
		Dest:       filepath.Join(t.TempDir(), "merged"),
	}, naming.NewResolver([]string{"Alpha", "Beta"})
}

func TestRunPlacement(t *testing.T) {
	plan, resolver := fixturePlan(t)

	stats, err := Run(plan, resolver)
	require.NoError(t, err)
	assert.False(t, stats.GuardTriggered)
	assert.Empty(t, stats.Warnings)

	files := snapshot(t, plan.Dest)
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	assert.Equal(t, []string{
		"components/Alpha/Alpha.xml",
		"components/Alpha/AlphaKt.brs", // resolved to Alpha, placed by the manifest
		"components/Beta/Beta.xml",
		"manifest",
		"source/Main.brs",
		"source/OrphanKt.brs", // unresolved, shared module root
		"source/Shared.brs",
		"source/lib/Lang.brs",
		"source/lib/Runtime.brs",
	}, paths)

	// Overlay's manifest wins over the base's.
	assert.Equal(t, "title=Demo\nbuild=2\n", files["manifest"])
}

func TestRunNestedComponentPlacement(t *testing.T) {
	base := t.TempDir()
	overlay := t.TempDir()

	writeFile(t, base, "components/screens/Alpha/Alpha.xml", "<component name=\"Alpha\"></component>")
	writeFile(t, overlay, "components/AlphaKt.brs", "' overlay alpha fragment")

	plan := Plan{
		Base:          base,
		Overlay:       overlay,
		Dest:          filepath.Join(t.TempDir(), "merged"),
		ComponentDirs: map[string]string{"Alpha": "components/screens/Alpha"},
	}

	_, err := Run(plan, naming.NewResolver([]string{"Alpha"}))
	require.NoError(t, err)

	// The fragment follows the manifest's real directory, not a flattened
	// components/<Name>/ path.
	assert.FileExists(t, filepath.Join(plan.Dest, "components", "screens", "Alpha", "AlphaKt.brs"))
	assert.NoFileExists(t, filepath.Join(plan.Dest, "components", "Alpha", "AlphaKt.brs"))
}

func TestRunDeterministic(t *testing.T) {
	plan, resolver := fixturePlan(t)

	_, err := Run(plan, resolver)
	require.NoError(t, err)
	first := snapshot(t, plan.Dest)

	// Re-running against the same inputs with an already-populated
	// destination produces byte-identical output.
	_, err = Run(plan, resolver)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, plan.Dest))
}

func TestRunOverlayWinsPathCollision(t *testing.T) {
	plan, resolver := fixturePlan(t)
	writeFile(t, plan.Base, "source/Shared.brs", "' base shared")

	stats, err := Run(plan, resolver)
	require.NoError(t, err)

	assert.Equal(t, "' overlay shared", readFile(t, plan.Dest, "source/Shared.brs"))
	assert.GreaterOrEqual(t, stats.Replaced, 2) // manifest + Shared.brs
}

func TestRunCaseInsensitiveCollisionFirstWins(t *testing.T) {
	plan, resolver := fixturePlan(t)
	writeFile(t, plan.Base, "images/Splash.png", "base bytes")
	writeFile(t, plan.Overlay, "images/splash.png", "overlay bytes")

	stats, err := Run(plan, resolver)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkippedCaseCollision)
	assert.Equal(t, "base bytes", readFile(t, plan.Dest, "images/Splash.png"))

	// Exactly one destination file for the colliding name.
	entries, err := os.ReadDir(filepath.Join(plan.Dest, "images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunSkipsZeroLengthFragments(t *testing.T) {
	plan, resolver := fixturePlan(t)
	writeFile(t, plan.Overlay, "source/Empty.brs", "")
	writeFile(t, plan.Overlay, "components/BetaKt.brs", "")

	stats, err := Run(plan, resolver)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SkippedEmpty)
	assert.NoFileExists(t, filepath.Join(plan.Dest, "source", "Empty.brs"))
	assert.NoFileExists(t, filepath.Join(plan.Dest, "components", "Beta", "BetaKt.brs"))
}

func TestRunUpstreamGuard(t *testing.T) {
	plan, resolver := fixturePlan(t)
	// Base already carries a populated support-library dir: an upstream
	// stage performed the overlay.
	writeFile(t, plan.Base, "source/lib/Runtime.brs", "' already merged")

	stats, err := Run(plan, resolver)
	require.NoError(t, err)

	assert.True(t, stats.GuardTriggered)
	// Overlay application was skipped entirely.
	assert.NoFileExists(t, filepath.Join(plan.Dest, "source", "Shared.brs"))
	assert.Equal(t, "title=Demo\n", readFile(t, plan.Dest, "manifest"))
}

func TestRunMissingTreesWarnNotFail(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "merged")

	stats, err := Run(Plan{
		Base:       filepath.Join(t.TempDir(), "no-base"),
		Overlay:    filepath.Join(t.TempDir(), "no-overlay"),
		RuntimeDir: filepath.Join(t.TempDir(), "no-runtime"),
		Dest:       dest,
	}, naming.NewResolver(nil))
	require.NoError(t, err)

	assert.Len(t, stats.Warnings, 3)
	assert.DirExists(t, dest)
}

func TestRunClearsStaleDestination(t *testing.T) {
	plan, resolver := fixturePlan(t)
	writeFile(t, plan.Dest, "stale/Leftover.brs", "' from an old run")

	_, err := Run(plan, resolver)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(plan.Dest, "stale", "Leftover.brs"))
}

func TestRunCountsAdds(t *testing.T) {
	plan, resolver := fixturePlan(t)

	stats, err := Run(plan, resolver)
	require.NoError(t, err)

	// 4 base files + 3 overlay placements (manifest replaces, so it is not
	// an add) + 2 runtime modules.
	assert.Equal(t, 9, stats.Added)
	assert.Equal(t, 1, stats.Replaced)

	if !strings.HasPrefix(plan.Dest, os.TempDir()) {
		t.Fatalf("fixture misconfigured: %s", plan.Dest)
	}
}
