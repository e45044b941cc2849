// Package naming maps compiled fragment file names to the logical component
// or module they belong to. The association between a component's manifest
// and its compiled fragment is purely name-based (no linkage metadata), so
// the injector and the merger must share this one implementation.
package naming

import (
	"path/filepath"
	"strings"
)

const (
	// FragmentExt is the file extension of compiled script fragments.
	FragmentExt = ".brs"

	// ManifestExt is the file extension of component manifests.
	ManifestExt = ".xml"

	// interopSuffix is appended by the secondary compiler front end to
	// fragments generated from file facades (e.g. Alpha -> AlphaKt.brs).
	interopSuffix = "Kt"

	// layoutSuffix marks generated layout accessor fragments. A fragment
	// named AlphaLayout.brs belongs to component Alpha, not to a phantom
	// component named AlphaLayout.
	layoutSuffix = "Layout"
)

// Resolver resolves fragment file names against a fixed set of known
// component names. Matching is case-insensitive because the platform's
// loader is case-insensitive about file names.
type Resolver struct {
	// lower(component name) -> canonical component name
	components map[string]string
}

// NewResolver creates a resolver over the given component names.
func NewResolver(componentNames []string) *Resolver {
	components := make(map[string]string, len(componentNames))
	for _, name := range componentNames {
		components[strings.ToLower(name)] = name
	}
	return &Resolver{components: components}
}

// ModuleName returns the logical module name for a fragment file: the base
// name with the fragment extension stripped.
func ModuleName(fileName string) string {
	base := filepath.Base(fileName)
	if strings.EqualFold(filepath.Ext(base), FragmentExt) {
		base = base[:len(base)-len(FragmentExt)]
	}
	return base
}

// IsFragment reports whether the file name is a compiled fragment.
func IsFragment(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), FragmentExt)
}

// IsManifest reports whether the file name is a component manifest.
func IsManifest(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ManifestExt)
}

// ComponentFor maps a fragment file name to the canonical name of the
// component it belongs to. Rules, applied in order: exact base-name match;
// strip the compiler interop suffix and retry; strip the layout accessor
// suffix and retry. Returns false when the fragment belongs to no known
// component (such fragments are installed at the shared module root).
func (r *Resolver) ComponentFor(fileName string) (string, bool) {
	base := ModuleName(fileName)

	for _, candidate := range r.candidates(base) {
		if name, ok := r.components[strings.ToLower(candidate)]; ok {
			return name, true
		}
	}
	return "", false
}

// candidates returns the base name plus every recognized suffix-stripped
// variant, in match-priority order.
func (r *Resolver) candidates(base string) []string {
	out := []string{base}

	interop := base
	if stripped, ok := trimSuffixFold(base, interopSuffix); ok {
		interop = stripped
		out = append(out, stripped)
	}
	if stripped, ok := trimSuffixFold(base, layoutSuffix); ok {
		out = append(out, stripped)
	}
	if interop != base {
		if stripped, ok := trimSuffixFold(interop, layoutSuffix); ok {
			out = append(out, stripped)
		}
	}
	return out
}

// trimSuffixFold strips suffix case-insensitively. The remainder must be
// non-empty: a fragment named just "Layout.brs" is its own module.
func trimSuffixFold(s, suffix string) (string, bool) {
	if len(s) <= len(suffix) {
		return s, false
	}
	if !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}
