// Package testutil provides test helpers for CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a file with the given content under dir, making parent
// directories as needed, and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// WriteAppTree lays out a minimal app tree: a manifest, the given fragments
// under source/, and a component manifest per component name.
func WriteAppTree(t *testing.T, dir string, components []string, fragments map[string]string) {
	t.Helper()
	WriteFile(t, dir, "manifest", "title=Test App\n")
	for name, body := range fragments {
		WriteFile(t, dir, filepath.Join("source", name), body)
	}
	for _, comp := range components {
		WriteFile(t, dir, filepath.Join("components", comp, comp+".xml"),
			`<component name="`+comp+`" extends="Group">`+"\n</component>\n")
	}
}

// CopyDir copies a directory tree, preserving file modes.
func CopyDir(t *testing.T, src, dst string) {
	t.Helper()
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dstPath, data, info.Mode())
	})
	if err != nil {
		t.Fatalf("failed to copy %s to %s: %v", src, dst, err)
	}
}
