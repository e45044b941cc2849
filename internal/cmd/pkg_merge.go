package cmd

import (
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/build/merge"
	"github.com/crosscast/tvlink/internal/core/naming"
	"github.com/crosscast/tvlink/internal/output"
	"github.com/crosscast/tvlink/internal/pipeline"
)

var (
	pkgMergeBase    string
	pkgMergeOverlay string
	pkgMergeRuntime string
	pkgMergeDest    string
)

// NewPkgMergeCmd creates the pkg merge command.
func NewPkgMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the base and overlay trees without linking",
		Long: `Merge the compiled trees into the output directory.

Skips manifest injection and archiving. Useful for inspecting exactly what
the merge step produces.`,
		RunE: runPkgMerge,
	}

	cmd.Flags().StringVar(&pkgMergeBase, "base", "", "Base app tree (default from config)")
	cmd.Flags().StringVar(&pkgMergeOverlay, "overlay", "", "Overlay tree merged over the base")
	cmd.Flags().StringVar(&pkgMergeRuntime, "runtime", "", "Runtime library fragment directory")
	cmd.Flags().StringVar(&pkgMergeDest, "dest", "", "Destination directory (default <out>/pkg)")

	return cmd
}

func runPkgMerge(cmd *cobra.Command, args []string) error {
	build := GetConfig().Build

	plan := merge.Plan{
		Base:       pkgMergeBase,
		Overlay:    pkgMergeOverlay,
		RuntimeDir: pkgMergeRuntime,
		Dest:       pkgMergeDest,
	}
	if plan.Base == "" {
		plan.Base = build.BaseDir
	}
	if plan.Overlay == "" {
		plan.Overlay = build.OverlayDir
	}
	if plan.RuntimeDir == "" {
		plan.RuntimeDir = build.RuntimeDir
	}
	if plan.Dest == "" {
		plan.Dest = filepath.Join(build.OutDir, "pkg")
	}

	names, dirs := discoverComponents(plan.Base, plan.Overlay)
	plan.ComponentDirs = dirs
	resolver := naming.NewResolver(names)

	stats, err := merge.Run(plan, resolver)
	if err != nil {
		return err
	}

	output.Info("merge complete",
		"dest", plan.Dest,
		"added", stats.Added,
		"replaced", stats.Replaced,
		"skipped_empty", stats.SkippedEmpty,
		"skipped_case", stats.SkippedCaseCollision,
	)
	if stats.GuardTriggered {
		output.Warn("overlay already applied upstream; merge reused it as-is")
	}
	for _, w := range stats.Warnings {
		output.Warn(w)
	}
	return nil
}

// discoverComponents collects component names and their package-relative
// directories from the trees' manifests so overlay fragments land next to
// them, nested layouts included. The first tree that defines a name wins.
func discoverComponents(trees ...string) ([]string, map[string]string) {
	var names []string
	dirs := map[string]string{}
	for _, tree := range trees {
		found, err := pipeline.DiscoverManifests(filepath.Join(tree, "components"))
		if err != nil {
			continue
		}
		for name, m := range found {
			if _, seen := dirs[name]; seen {
				continue
			}
			dirs[name] = m.Dir
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, dirs
}
