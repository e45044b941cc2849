// Package manifest rewrites component manifests to declare the compiled
// fragments they must load.
package manifest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crosscast/tvlink/internal/core/catalog"
)

// Markers delimit the generated directive block so repeated injection can
// find and replace its own prior output instead of duplicating it.
const (
	beginMarker = "<!-- tvlink:scripts:begin -->"
	endMarker   = "<!-- tvlink:scripts:end -->"
)

const directiveIndent = "  "

// Injection describes the load directives for one component.
type Injection struct {
	// Component is the logical component name.
	Component string

	// OwnFragment is the path of the component's own compiled fragment,
	// or "" when the component has none.
	OwnFragment string

	// Deps is the component's resolved dependency set.
	Deps catalog.DependencyResult

	// Catalog is the authoritative module-to-file lookup for the run.
	Catalog *catalog.Catalog

	// ComponentDirs maps component names to their package-relative
	// directories (slash-separated, for example "components/screens/Alpha").
	// Directive URIs must point where the merger actually places fragments,
	// which for nested components is not components/<Name>/.
	ComponentDirs map[string]string
}

// Result reports what injection did.
type Result struct {
	// Changed is true when the output differs from the input.
	Changed bool

	// Directives is the number of load directives declared.
	Directives int

	// Warning is set when the manifest could not be injected (no root
	// opening tag) or when dependency modules had no fragment on disk to
	// point a directive at. Neither condition fails the run.
	Warning string
}

// InjectScripts rewrites the manifest to declare load directives immediately
// after the root opening tag, in fixed order: the component's own fragment,
// primary modules, sibling component modules, runtime modules (each group
// sorted lexicographically). A component with no fragment and no
// dependencies gets its manifest back byte-identical.
func InjectScripts(doc []byte, inj Injection) ([]byte, Result) {
	directives, unresolved := buildDirectives(inj)

	var warning string
	if len(unresolved) > 0 {
		warning = fmt.Sprintf("component %s: no fragment on disk for module(s) %s, directives omitted",
			inj.Component, strings.Join(unresolved, ", "))
	}
	if len(directives) == 0 {
		return doc, Result{Warning: warning}
	}

	// Replace any block from a prior injection.
	stripped := stripGeneratedBlock(doc)

	insertAt := rootTagEnd(stripped)
	if insertAt < 0 {
		return doc, Result{Warning: fmt.Sprintf("component %s: no root opening tag found, manifest left unmodified", inj.Component)}
	}

	var block bytes.Buffer
	block.WriteString("\n" + directiveIndent + beginMarker)
	for _, d := range directives {
		block.WriteString("\n" + directiveIndent + d)
	}
	block.WriteString("\n" + directiveIndent + endMarker)

	out := make([]byte, 0, len(stripped)+block.Len())
	out = append(out, stripped[:insertAt]...)
	out = append(out, block.Bytes()...)
	out = append(out, stripped[insertAt:]...)

	return out, Result{
		Changed:    !bytes.Equal(out, doc),
		Directives: len(directives),
		Warning:    warning,
	}
}

// buildDirectives renders the script elements in declaration order. Names
// the catalog cannot resolve to a fragment file are returned separately
// rather than rendered: a directive pointing at nothing would break the
// loader. The always-required runtime subset hits this when the runtime
// fragment dir is absent.
func buildDirectives(inj Injection) (directives, unresolved []string) {
	if inj.OwnFragment != "" {
		directives = append(directives, scriptElement(inj.componentURI(inj.Component, inj.OwnFragment)))
	}
	for _, name := range inj.Deps.SortedPrimary() {
		path, ok := inj.Catalog.Primary[name]
		if !ok || path == "" {
			unresolved = append(unresolved, name)
			continue
		}
		directives = append(directives, scriptElement(sourceURI(path)))
	}
	for _, name := range inj.Deps.SortedComponent() {
		path, ok := inj.Catalog.Component[name]
		if !ok || path == "" {
			unresolved = append(unresolved, name)
			continue
		}
		directives = append(directives, scriptElement(inj.componentURI(name, path)))
	}
	for _, name := range inj.Deps.SortedRuntime() {
		path, ok := inj.Catalog.Runtime[name]
		if !ok || path == "" {
			unresolved = append(unresolved, name)
			continue
		}
		directives = append(directives, scriptElement(runtimeURI(path)))
	}
	return directives, unresolved
}

func scriptElement(uri string) string {
	return fmt.Sprintf(`<script type="text/brightscript" uri=%q />`, uri)
}

// sourceURI locates a free-standing module fragment: primary modules are
// merged into the shared source/ root of the package.
func sourceURI(fragmentPath string) string {
	return "pkg:/source/" + filepath.Base(fragmentPath)
}

// runtimeURI locates a platform support-library fragment: the merger
// installs those under source/lib/.
func runtimeURI(fragmentPath string) string {
	return "pkg:/source/lib/" + filepath.Base(fragmentPath)
}

// componentURI locates a fragment installed alongside a component's
// manifest, at whatever depth that manifest sits under components/.
func (inj Injection) componentURI(component, fragmentPath string) string {
	dir, ok := inj.ComponentDirs[component]
	if !ok {
		dir = "components/" + component
	}
	return "pkg:/" + dir + "/" + filepath.Base(fragmentPath)
}

// stripGeneratedBlock removes a previously injected directive block,
// including the indentation and newline that precede it.
func stripGeneratedBlock(doc []byte) []byte {
	begin := bytes.Index(doc, []byte(beginMarker))
	if begin < 0 {
		return doc
	}
	end := bytes.Index(doc[begin:], []byte(endMarker))
	if end < 0 {
		return doc
	}
	end += begin + len(endMarker)

	// Swallow whitespace back to the preceding newline.
	start := begin
	for start > 0 && (doc[start-1] == ' ' || doc[start-1] == '\t') {
		start--
	}
	if start > 0 && doc[start-1] == '\n' {
		start--
	}

	out := make([]byte, 0, len(doc))
	out = append(out, doc[:start]...)
	out = append(out, doc[end:]...)
	return out
}

// rootTagEnd returns the index just past the root opening tag's '>', or -1
// when no root element exists or the root is self-closing.
func rootTagEnd(doc []byte) int {
	i := 0
	for i < len(doc) {
		open := bytes.IndexByte(doc[i:], '<')
		if open < 0 {
			return -1
		}
		i += open

		switch {
		case bytes.HasPrefix(doc[i:], []byte("<?")):
			close := bytes.Index(doc[i:], []byte("?>"))
			if close < 0 {
				return -1
			}
			i += close + 2
		case bytes.HasPrefix(doc[i:], []byte("<!--")):
			close := bytes.Index(doc[i:], []byte("-->"))
			if close < 0 {
				return -1
			}
			i += close + 3
		case bytes.HasPrefix(doc[i:], []byte("<!")):
			close := bytes.IndexByte(doc[i:], '>')
			if close < 0 {
				return -1
			}
			i += close + 1
		default:
			return scanTagEnd(doc, i)
		}
	}
	return -1
}

// scanTagEnd scans from the '<' at start for the tag's terminating '>',
// honoring quoted attribute values. Self-closing roots have no insertion
// point.
func scanTagEnd(doc []byte, start int) int {
	if start+1 >= len(doc) || !isNameStart(doc[start+1]) {
		return -1
	}

	var quote byte
	for i := start + 1; i < len(doc); i++ {
		c := doc[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			if doc[i-1] == '/' {
				return -1
			}
			return i + 1
		}
	}
	return -1
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
