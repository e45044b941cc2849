// Package pipeline orchestrates one packaging run: catalog build, dependency
// analysis, manifest injection, tree merge, and archive. Stages run strictly
// in sequence; each consumes the previous stage's completed output.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/crosscast/tvlink/internal/build/analyze"
	"github.com/crosscast/tvlink/internal/build/archive"
	"github.com/crosscast/tvlink/internal/build/manifest"
	"github.com/crosscast/tvlink/internal/build/merge"
	"github.com/crosscast/tvlink/internal/core/catalog"
	"github.com/crosscast/tvlink/internal/core/naming"
	"github.com/crosscast/tvlink/internal/output"
)

// Options names the directories one packaging run works over.
type Options struct {
	// BaseDir is the primary compiled-output tree.
	BaseDir string

	// OverlayDir is the secondary compiled-output tree. Its files win path
	// collisions during the merge.
	OverlayDir string

	// RuntimeDir holds the platform support-library fragments.
	RuntimeDir string

	// ManifestDir holds the component manifests. Defaults to
	// BaseDir/components.
	ManifestDir string

	// DestDir receives the merged package tree.
	DestDir string

	// ArchivePath, when set, packages DestDir into a zip after the merge.
	ArchivePath string
}

// ComponentReport summarizes one component's linking.
type ComponentReport struct {
	Name       string `yaml:"name"`
	Fragment   string `yaml:"fragment,omitempty"`
	Primary    int    `yaml:"primary"`
	Components int    `yaml:"components"`
	Runtime    int    `yaml:"runtime"`
	Directives int    `yaml:"directives"`
	Warning    string `yaml:"warning,omitempty"`
}

// Report is the outcome of one packaging run.
type Report struct {
	Components     []ComponentReport `yaml:"components"`
	Merge          merge.Stats       `yaml:"merge"`
	ArchiveEntries int               `yaml:"archiveEntries,omitempty"`
	Warnings       []string          `yaml:"warnings,omitempty"`
}

// Pipeline runs one packaging pass.
type Pipeline interface {
	Run(ctx context.Context) (*Report, error)
}

// pipeline implements Pipeline.
type pipeline struct {
	opts     Options
	analyzer analyze.Analyzer
}

// New creates a Pipeline. A nil analyzer gets the default text-scanning one.
func New(opts Options, analyzer analyze.Analyzer) Pipeline {
	if analyzer == nil {
		analyzer = analyze.New()
	}
	if opts.ManifestDir == "" {
		opts.ManifestDir = filepath.Join(opts.BaseDir, "components")
	}
	return &pipeline{opts: opts, analyzer: analyzer}
}

func (p *pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	// Discover components from their manifests. A component is identified
	// by manifest base name only; fragments attach by naming convention.
	manifests, err := DiscoverManifests(p.opts.ManifestDir)
	if err != nil {
		return nil, &StageError{Stage: StageDiscover, Err: err}
	}

	names := make([]string, 0, len(manifests))
	componentDirs := make(map[string]string, len(manifests))
	for name, m := range manifests {
		names = append(names, name)
		componentDirs[name] = m.Dir
	}
	sort.Strings(names)
	resolver := naming.NewResolver(names)

	cat, err := catalog.Build(catalog.BuildOptions{
		RuntimeDir: p.opts.RuntimeDir,
		SourceDirs: []string{
			filepath.Join(p.opts.BaseDir, "source"),
			filepath.Join(p.opts.OverlayDir, "source"),
		},
		ComponentDirs: []string{
			filepath.Join(p.opts.BaseDir, "components"),
			filepath.Join(p.opts.OverlayDir, "components"),
		},
		Resolver: resolver,
	})
	if err != nil {
		return nil, &StageError{Stage: StageCatalog, Err: err}
	}
	output.StageLogger(StageCatalog).Debug("catalog built",
		"runtime", len(cat.Runtime), "primary", len(cat.Primary), "components", len(cat.Component))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Analyze and inject per component, fully in memory. Linked manifests
	// are written after the merge so the destination tree is never observed
	// mid-mutation.
	linked := make(map[string][]byte, len(names))
	for _, name := range names {
		cr := p.linkComponent(name, manifests[name].Path, componentDirs, cat, linked)
		report.Components = append(report.Components, cr)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, err := merge.Run(merge.Plan{
		Base:          p.opts.BaseDir,
		Overlay:       p.opts.OverlayDir,
		RuntimeDir:    p.opts.RuntimeDir,
		Dest:          p.opts.DestDir,
		ComponentDirs: componentDirs,
	}, resolver)
	if err != nil {
		return nil, &StageError{Stage: StageMerge, Err: err}
	}
	report.Merge = *stats
	report.Warnings = append(report.Warnings, stats.Warnings...)

	// Linked manifests replace the verbatim copies at the component's own
	// directory, wherever it sits under components/. Writing to a flattened
	// path would leave the original, directive-less manifest in the package.
	for _, name := range names {
		doc, ok := linked[name]
		if !ok {
			continue
		}
		dest := filepath.Join(p.opts.DestDir,
			filepath.FromSlash(manifests[name].Dir), filepath.Base(manifests[name].Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, &StageError{Stage: StageInject, Err: err}
		}
		if err := os.WriteFile(dest, doc, 0o644); err != nil {
			return nil, &StageError{Stage: StageInject, Err: fmt.Errorf("writing linked manifest for %s: %w", name, err)}
		}
	}

	if p.opts.ArchivePath != "" {
		n, err := archive.Create(p.opts.DestDir, p.opts.ArchivePath)
		if err != nil {
			return nil, &StageError{Stage: StageArchive, Err: err}
		}
		report.ArchiveEntries = n
		output.StageLogger(StageArchive).Info("archive written",
			"path", p.opts.ArchivePath, "entries", n)
	}

	return report, nil
}

// linkComponent analyzes one component's fragment and injects its load
// directives. Artifact problems degrade: the component is reported with a
// warning and the run continues.
func (p *pipeline) linkComponent(name, manifestPath string, componentDirs map[string]string, cat *catalog.Catalog, linked map[string][]byte) ComponentReport {
	cr := ComponentReport{Name: name}
	logger := output.StageLogger(StageAnalyze)

	fragment := cat.Component[name]
	deps := catalog.NewDependencyResult()

	if fragment != "" {
		cr.Fragment = filepath.Base(fragment)
		var err error
		deps, err = p.analyzer.AnalyzeFile(fragment, name, cat)
		if err != nil {
			cr.Warning = fmt.Sprintf("fragment unreadable, linked with zero dependencies: %v", err)
			logger.Warn("fragment unreadable", "component", name, "error", err)
			deps = catalog.NewDependencyResult()
		}
	}
	cr.Primary = len(deps.Primary)
	cr.Components = len(deps.Component)
	cr.Runtime = len(deps.Runtime)

	doc, err := os.ReadFile(manifestPath)
	if err != nil {
		cr.Warning = fmt.Sprintf("manifest unreadable: %v", err)
		output.StageLogger(StageInject).Warn("manifest unreadable", "component", name, "error", err)
		return cr
	}

	out, res := manifest.InjectScripts(doc, manifest.Injection{
		Component:     name,
		OwnFragment:   fragment,
		Deps:          deps,
		Catalog:       cat,
		ComponentDirs: componentDirs,
	})
	if res.Warning != "" {
		cr.Warning = res.Warning
		output.StageLogger(StageInject).Warn(res.Warning)
	}
	cr.Directives = res.Directives
	linked[name] = out
	return cr
}

// Manifest locates one discovered component manifest.
type Manifest struct {
	// Path is the manifest file on disk.
	Path string

	// Dir is the package-relative directory the component lives in,
	// slash-separated (for example "components/screens/Alpha"). Components
	// may sit at any depth under components/.
	Dir string
}

// DiscoverManifests maps component names to their manifests under dir.
// Duplicate names keep the first manifest found (lexical walk order). A
// missing dir yields an empty map, not an error.
func DiscoverManifests(dir string) (map[string]Manifest, error) {
	manifests := make(map[string]Manifest)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !naming.IsManifest(d.Name()) {
			return nil
		}
		name := d.Name()[:len(d.Name())-len(filepath.Ext(d.Name()))]
		if _, exists := manifests[name]; exists {
			output.StageLogger(StageDiscover).Warn("duplicate component manifest ignored", "component", name, "path", path)
			return nil
		}

		rel, err := filepath.Rel(dir, filepath.Dir(path))
		if err != nil {
			return err
		}
		pkgDir := "components"
		if rel != "." {
			pkgDir += "/" + filepath.ToSlash(rel)
		}
		manifests[name] = Manifest{Path: path, Dir: pkgDir}
		return nil
	})
	if os.IsNotExist(err) {
		output.StageLogger(StageDiscover).Warn("component manifest dir not found", "dir", dir)
		return manifests, nil
	}
	return manifests, err
}
