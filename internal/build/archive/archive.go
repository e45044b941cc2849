// Package archive packages a merged tree into the deployable zip. It is a
// thin collaborator: content decisions are all made by the merge stage.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Create writes the zip for the tree rooted at srcDir to zipPath and returns
// the number of entries written. Entries use slash-separated paths relative
// to srcDir. Dotfiles are editor/VCS noise and are skipped. The walk is
// lexical, so entry order is reproducible.
func Create(srcDir, zipPath string) (int, error) {
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("package tree %s does not exist", srcDir)
	}
	if err := os.MkdirAll(filepath.Dir(zipPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating archive dir: %w", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	entries := 0
	err = filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, in)
		in.Close()
		if err != nil {
			return err
		}

		entries++
		return nil
	})
	if err != nil {
		zw.Close()
		return 0, fmt.Errorf("archiving %s: %w", srcDir, err)
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finalizing archive: %w", err)
	}
	return entries, out.Close()
}
