// Package merge overlays one compiler's output tree onto another's,
// producing the single package tree that gets archived and installed.
package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/crosscast/tvlink/internal/core/naming"
	"github.com/crosscast/tvlink/internal/output"
)

// RuntimeLibDir is where the platform support-library fragments are installed
// inside the merged tree. Its presence with fragments in it also serves as
// the marker that an upstream stage already performed the overlay: in that
// case the merger must not apply the overlay again.
const RuntimeLibDir = "source/lib"

// sharedModuleRoot receives overlay fragments that resolve to no component.
const sharedModuleRoot = "source"

// componentRoot receives overlay fragments that resolve to a component.
const componentRoot = "components"

// Plan is one merge: base tree, overlay tree, runtime fragments, destination.
type Plan struct {
	// Base is the primary compiled-output tree, copied verbatim first.
	Base string

	// Overlay is the secondary tree. On path collisions its files win.
	Overlay string

	// RuntimeDir holds the platform support-library fragments copied into
	// RuntimeLibDir (the module-copy step).
	RuntimeDir string

	// Dest is cleared and recreated at the start of every merge.
	Dest string

	// ComponentDirs maps component names to their package-relative
	// directories (slash-separated). Components can sit at any depth under
	// components/, so fragment placement cannot assume components/<Name>/.
	ComponentDirs map[string]string
}

// Stats counts what the merge did.
type Stats struct {
	// Added counts files installed at a previously empty destination path.
	Added int

	// Replaced counts overlay files that displaced a base file at the same
	// resolved path. Overlay always wins path collisions.
	Replaced int

	// SkippedEmpty counts zero-length overlay fragments. Those are compiler
	// artifacts that would break the loader, so they are never installed.
	SkippedEmpty int

	// SkippedCaseCollision counts files skipped because a same-named file
	// (differing only in case) was already installed. The platform loader
	// is case-insensitive, so the first-installed file wins here even
	// though path collisions resolve the other way.
	SkippedCaseCollision int

	// GuardTriggered is true when an upstream stage had already performed
	// the overlay and the merger skipped its overlay and module-copy steps.
	GuardTriggered bool

	// Warnings collects non-fatal conditions (missing input trees).
	Warnings []string
}

// merger carries the per-run state of one merge.
type merger struct {
	plan     Plan
	resolver *naming.Resolver
	stats    *Stats

	// caseIndex maps lower-cased dest-relative paths to the path actually
	// installed, for case-insensitive collision detection on case-sensitive
	// filesystems.
	caseIndex map[string]string
}

// Run executes the plan. The destination is cleared first, so re-running the
// same plan is idempotent. Absent input trees degrade to warnings; only
// destination I/O failures abort.
func Run(plan Plan, resolver *naming.Resolver) (*Stats, error) {
	m := &merger{
		plan:      plan,
		resolver:  resolver,
		stats:     &Stats{},
		caseIndex: make(map[string]string),
	}

	if err := os.RemoveAll(plan.Dest); err != nil {
		return nil, fmt.Errorf("clearing destination: %w", err)
	}
	if err := os.MkdirAll(plan.Dest, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	if err := m.copyBase(); err != nil {
		return nil, err
	}

	if m.upstreamOverlayPresent() {
		m.stats.GuardTriggered = true
		output.StageLogger("merge").Warn("overlay already applied upstream, skipping overlay and module copy",
			"marker", RuntimeLibDir)
		return m.stats, nil
	}

	if err := m.applyOverlay(); err != nil {
		return nil, err
	}
	if err := m.copyRuntimeModules(); err != nil {
		return nil, err
	}

	return m.stats, nil
}

// copyBase copies the base tree verbatim into the destination as the merge's
// starting state.
func (m *merger) copyBase() error {
	info, err := os.Stat(m.plan.Base)
	if err != nil || !info.IsDir() {
		m.warn(fmt.Sprintf("base tree %s not found, starting from empty destination", m.plan.Base))
		return nil
	}

	return filepath.WalkDir(m.plan.Base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(m.plan.Base, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(m.plan.Dest, rel), 0o755)
		}
		return m.install(path, rel)
	})
}

// upstreamOverlayPresent reports whether the marker subdirectory is already
// populated with fragments. This is the idempotence guard, not an
// optimization: re-inserting modules would double directives downstream.
func (m *merger) upstreamOverlayPresent() bool {
	entries, err := os.ReadDir(filepath.Join(m.plan.Dest, filepath.FromSlash(RuntimeLibDir)))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && naming.IsFragment(e.Name()) {
			return true
		}
	}
	return false
}

// applyOverlay places every overlay file at its resolved destination.
// Fragments mapped to a component land alongside that component's manifest
// directory; unmapped fragments land at the shared module root; anything
// else mirrors its overlay-relative path.
func (m *merger) applyOverlay() error {
	info, err := os.Stat(m.plan.Overlay)
	if err != nil || !info.IsDir() {
		m.warn(fmt.Sprintf("overlay tree %s not found, keeping base content only", m.plan.Overlay))
		return nil
	}

	return filepath.WalkDir(m.plan.Overlay, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.plan.Overlay, path)
		if err != nil {
			return err
		}

		if naming.IsFragment(d.Name()) {
			fi, err := d.Info()
			if err != nil {
				return err
			}
			if fi.Size() == 0 {
				m.stats.SkippedEmpty++
				output.StageLogger("merge").Debug("skipping zero-length fragment", "file", rel)
				return nil
			}
			return m.install(path, m.fragmentDest(d.Name()))
		}

		return m.install(path, rel)
	})
}

// fragmentDest computes where an overlay fragment belongs in the
// destination: alongside its component's manifest directory when the
// resolver maps it to one, at the shared module root otherwise.
func (m *merger) fragmentDest(fileName string) string {
	if m.resolver != nil {
		if comp, ok := m.resolver.ComponentFor(fileName); ok {
			if dir, ok := m.plan.ComponentDirs[comp]; ok {
				return filepath.Join(filepath.FromSlash(dir), fileName)
			}
			return filepath.Join(componentRoot, comp, fileName)
		}
	}
	return filepath.Join(sharedModuleRoot, fileName)
}

// copyRuntimeModules installs the platform support-library fragments under
// RuntimeLibDir (the module-copy step).
func (m *merger) copyRuntimeModules() error {
	entries, err := os.ReadDir(m.plan.RuntimeDir)
	if err != nil {
		if m.plan.RuntimeDir != "" {
			m.warn(fmt.Sprintf("runtime fragment dir %s not found, package will carry no support library", m.plan.RuntimeDir))
		}
		return nil
	}

	for _, e := range entries {
		if e.IsDir() || !naming.IsFragment(e.Name()) {
			continue
		}
		src := filepath.Join(m.plan.RuntimeDir, e.Name())
		if err := m.install(src, filepath.Join(filepath.FromSlash(RuntimeLibDir), e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// install copies src to the dest-relative path rel, applying both collision
// policies: exact-path collisions are replaced (overlay wins), while
// case-insensitive name collisions keep the first-installed file. The
// asymmetry mirrors the platform loader's behavior and is intentional.
func (m *merger) install(src, rel string) error {
	key := strings.ToLower(filepath.ToSlash(rel))
	if prior, exists := m.caseIndex[key]; exists {
		if prior != filepath.ToSlash(rel) {
			m.stats.SkippedCaseCollision++
			output.StageLogger("merge").Warn("case-insensitive name collision, keeping first-installed file",
				"kept", prior, "skipped", filepath.ToSlash(rel))
			return nil
		}
		m.stats.Replaced++
		output.StageLogger("merge").Debug("replacing file", "file", rel)
	} else {
		m.stats.Added++
		output.StageLogger("merge").Debug("adding file", "file", rel)
	}

	dest := filepath.Join(m.plan.Dest, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	if err := copyFile(src, dest); err != nil {
		return fmt.Errorf("installing %s: %w", rel, err)
	}

	m.caseIndex[key] = filepath.ToSlash(rel)
	return nil
}

func (m *merger) warn(msg string) {
	m.stats.Warnings = append(m.stats.Warnings, msg)
	output.StageLogger("merge").Warn(msg)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
