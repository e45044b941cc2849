// Package catalog provides the module catalog: the three sets of known
// module identifiers a packaging run can link against. It is built once per
// run from the compiled-output directories and is immutable afterwards.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/crosscast/tvlink/internal/core/naming"
)

// Catalog holds the known modules for one packaging run, keyed by logical
// module name. Values are the fragment file paths the names resolve to; that
// lookup is authoritative for injection URIs and merge placement, so within
// one map names are unique. Across maps, names may overlap.
type Catalog struct {
	// Runtime maps platform/standard library module names to fragments.
	Runtime map[string]string

	// Primary maps user main-source module names to fragments.
	Primary map[string]string

	// Component maps logical component names to their compiled fragments.
	Component map[string]string
}

// CoreRuntimeModules is the always-required runtime subset. Every compiled
// fragment depends on these implicitly; some of that runtime behavior never
// shows up as a textual symbol reference, so analysis unions them in
// unconditionally.
var CoreRuntimeModules = []string{"Runtime", "Lang"}

// BuildOptions names the directories a catalog is built from.
type BuildOptions struct {
	// RuntimeDir holds the platform/standard library fragments.
	RuntimeDir string

	// SourceDirs hold free-standing main-source fragments (the source/
	// subtree of each compiled-output tree).
	SourceDirs []string

	// ComponentDirs hold per-component fragments colocated with component
	// manifests (the components/ subtree of each compiled-output tree).
	ComponentDirs []string

	// Resolver maps component fragment file names to component names.
	Resolver *naming.Resolver
}

// Build scans the filesystem state of the compiled-output directories into a
// catalog. Missing directories are tolerated: the corresponding set stays
// empty. Later directories never overwrite earlier entries for the same name.
func Build(opts BuildOptions) (*Catalog, error) {
	c := &Catalog{
		Runtime:   make(map[string]string),
		Primary:   make(map[string]string),
		Component: make(map[string]string),
	}

	if opts.RuntimeDir != "" {
		if err := collectFlat(opts.RuntimeDir, c.Runtime); err != nil {
			return nil, fmt.Errorf("scanning runtime fragments: %w", err)
		}
	}
	for _, dir := range opts.SourceDirs {
		if err := collectFlat(dir, c.Primary); err != nil {
			return nil, fmt.Errorf("scanning source fragments: %w", err)
		}
	}
	for _, dir := range opts.ComponentDirs {
		if err := collectComponents(dir, opts.Resolver, c.Component); err != nil {
			return nil, fmt.Errorf("scanning component fragments: %w", err)
		}
	}

	return c, nil
}

// collectFlat records every fragment directly inside dir under its module name.
func collectFlat(dir string, into map[string]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !naming.IsFragment(e.Name()) {
			continue
		}
		name := naming.ModuleName(e.Name())
		if _, exists := into[name]; !exists {
			into[name] = filepath.Join(dir, e.Name())
		}
	}
	return nil
}

// collectComponents walks a components tree and records fragments under the
// component name the resolver maps them to. Fragments that resolve to no
// known component are recorded under their own module name: downstream they
// are installed at the shared module root, not dropped.
func collectComponents(dir string, resolver *naming.Resolver, into map[string]string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !naming.IsFragment(d.Name()) {
			return nil
		}

		name := naming.ModuleName(d.Name())
		if resolver != nil {
			if comp, ok := resolver.ComponentFor(d.Name()); ok {
				name = comp
			}
		}
		if _, exists := into[name]; !exists {
			into[name] = path
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SortedNames returns the keys of a catalog set in lexicographic order.
// Load directives must come out in a stable order regardless of map
// iteration, so every consumer goes through this.
func SortedNames(set map[string]string) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
