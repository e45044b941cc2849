package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/crosscast/tvlink/internal/output"
	"github.com/crosscast/tvlink/internal/pipeline"
)

var (
	pkgBuildBase      string
	pkgBuildOverlay   string
	pkgBuildRuntime   string
	pkgBuildOut       string
	pkgBuildArchive   string
	pkgBuildNoArchive bool
	pkgBuildReport    string
)

// NewPkgBuildCmd creates the pkg build command.
func NewPkgBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Link, merge, and archive an installable package",
		Long: `Run the full packaging pipeline.

For every component manifest under the base tree, scans its fragment for
cross-module calls and injects the load directives it needs. Then merges
the base and overlay trees into the output directory and zips the result.

Examples:
  # Package with trees from the config file
  tvlink pkg build

  # Explicit trees
  tvlink pkg build --base app --overlay overlays/living-room --runtime runtime`,
		RunE: runPkgBuild,
	}

	cmd.Flags().StringVar(&pkgBuildBase, "base", "", "Base app tree (default from config)")
	cmd.Flags().StringVar(&pkgBuildOverlay, "overlay", "", "Overlay tree merged over the base")
	cmd.Flags().StringVar(&pkgBuildRuntime, "runtime", "", "Runtime library fragment directory")
	cmd.Flags().StringVar(&pkgBuildOut, "out", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&pkgBuildArchive, "archive", "", "Archive path (default <out>/app.zip)")
	cmd.Flags().BoolVar(&pkgBuildNoArchive, "no-archive", false, "Skip the zip step")
	cmd.Flags().StringVar(&pkgBuildReport, "report", "", "Write a YAML build report to this path")

	return cmd
}

func runPkgBuild(cmd *cobra.Command, args []string) error {
	opts := buildOptions()

	var report *pipeline.Report
	err := output.RunWithSpinner(cmd.Context(), func() error {
		var runErr error
		report, runErr = pipeline.New(opts, nil).Run(cmd.Context())
		return runErr
	}, output.WithTitle("Packaging "+opts.BaseDir))
	if err != nil {
		return err
	}

	if pkgBuildReport != "" {
		if err := writeBuildReport(pkgBuildReport, report); err != nil {
			return err
		}
	}

	printBuildReport(report, opts)
	return nil
}

func writeBuildReport(path string, report *pipeline.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode build report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write build report: %w", err)
	}
	return nil
}

// buildOptions resolves the pipeline directories from flags and config.
func buildOptions() pipeline.Options {
	build := GetConfig().Build

	opts := pipeline.Options{
		BaseDir:    pkgBuildBase,
		OverlayDir: pkgBuildOverlay,
		RuntimeDir: pkgBuildRuntime,
	}
	if opts.BaseDir == "" {
		opts.BaseDir = build.BaseDir
	}
	if opts.OverlayDir == "" {
		opts.OverlayDir = build.OverlayDir
	}
	if opts.RuntimeDir == "" {
		opts.RuntimeDir = build.RuntimeDir
	}

	outDir := pkgBuildOut
	if outDir == "" {
		outDir = build.OutDir
	}
	opts.DestDir = filepath.Join(outDir, "pkg")

	if !pkgBuildNoArchive {
		opts.ArchivePath = pkgBuildArchive
		if opts.ArchivePath == "" {
			opts.ArchivePath = filepath.Join(outDir, "app.zip")
		}
	}
	return opts
}

func printBuildReport(report *pipeline.Report, opts pipeline.Options) {
	if verboseFlag {
		files := make(map[string]string, len(report.Components))
		for _, c := range report.Components {
			files[filepath.Join("components", c.Name, c.Name+".xml")] =
				fmt.Sprintf("%d directives", c.Directives)
		}
		output.Println(output.RenderFileTree(opts.DestDir, files))
	}

	t := output.NewTable("COMPONENT", "FRAGMENT", "PRIMARY", "COMPONENTS", "RUNTIME", "DIRECTIVES")
	for _, c := range report.Components {
		t.Row(c.Name, c.Fragment,
			strconv.Itoa(c.Primary), strconv.Itoa(c.Components),
			strconv.Itoa(c.Runtime), strconv.Itoa(c.Directives))
	}
	output.Println(t.String())

	m := report.Merge
	output.Info("merge complete",
		"added", m.Added,
		"replaced", m.Replaced,
		"skipped_empty", m.SkippedEmpty,
		"skipped_case", m.SkippedCaseCollision,
	)
	if m.GuardTriggered {
		output.Warn("overlay already applied upstream; merge reused it as-is")
	}
	for _, w := range report.Warnings {
		output.Warn(w)
	}

	if opts.ArchivePath != "" {
		output.Println(output.Checkmark() + " " + fmt.Sprintf("%s (%d entries)", opts.ArchivePath, report.ArchiveEntries))
	} else {
		output.Println(output.Checkmark() + " " + opts.DestDir)
	}
}
