// Package watch re-runs a build action when app sources change. Events are
// debounced so an editor's write-then-rename dance triggers one rebuild, not
// three.
package watch

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/crosscast/tvlink/internal/output"
)

const defaultDebounce = 400 * time.Millisecond

// Only app sources matter; everything else on a dev machine is noise.
var defaultPatterns = []string{
	"**/*.brs",
	"**/*.xml",
	"**/manifest",
	"**/images/**",
}

var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// Config selects what to watch and what to do about it.
type Config struct {
	// Roots are the directory trees to monitor. Missing roots are skipped
	// with a warning so a project without an overlay tree still watches.
	Roots []string

	// Patterns narrow which files trigger OnChange. Empty means the default
	// app-source patterns.
	Patterns []string

	// Debounce is the quiet period after the last event before OnChange
	// fires. Zero means the default.
	Debounce time.Duration

	// OnChange receives the deduplicated changed paths. Its error is logged,
	// not fatal: a broken build must not stop the watch loop.
	OnChange func(ctx context.Context, changed []string) error
}

// Watcher monitors the configured roots until its context ends.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *log.Logger
}

// New validates the config and registers every directory under the roots.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("watch: no roots configured")
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = defaultPatterns
	}
	for _, pat := range cfg.Patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("watch: invalid pattern %q: %w", pat, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{cfg: cfg, fsw: fsw, debounce: debounce, log: output.StageLogger("watch")}

	for _, root := range cfg.Roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks, dispatching debounced OnChange calls, until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		w.log.Info("sources changed", "files", len(changed))
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.log.Error("rebuild failed", "err", err)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if w.ignored(evt.Name) || !w.matches(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: error channel closed")
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

// addTree registers root and every non-ignored directory under it.
func (w *Watcher) addTree(root string) error {
	if _, err := os.Stat(root); err != nil {
		w.log.Warn("skipping missing watch root", "root", root)
		return nil
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add %q: %w", path, addErr)
		}
		return nil
	})
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignored(path) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("cannot watch new directory", "dir", path, "err", err)
	}
}

func (w *Watcher) ignored(path string) bool {
	return matchAny(defaultIgnores, path)
}

func (w *Watcher) matches(path string) bool {
	return matchAny(w.cfg.Patterns, path)
}

// matchAny matches the path's slashed form and, for root-relative patterns,
// its basename against each glob.
func matchAny(patterns []string, path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}
