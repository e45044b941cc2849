package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	oerrors "github.com/crosscast/tvlink/internal/errors"
	"github.com/crosscast/tvlink/internal/output"
	"github.com/crosscast/tvlink/internal/pipeline"
	"github.com/crosscast/tvlink/internal/watch"
)

var (
	deviceInstallArchive string
	deviceInstallWatch   bool
)

// NewDeviceInstallCmd creates the device install command.
func NewDeviceInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the packaged app on the device",
		Long: `Upload the app archive through the device's developer installer.

With --watch, rebuilds the package and reinstalls whenever app sources
change.

Examples:
  # Install the default archive
  tvlink device install -d 192.168.1.50

  # Rebuild and reinstall on every source change
  tvlink device install --watch`,
		RunE: runDeviceInstall,
	}

	cmd.Flags().StringVar(&deviceInstallArchive, "archive", "", "Archive to install (default <out>/app.zip)")
	cmd.Flags().BoolVarP(&deviceInstallWatch, "watch", "w", false, "Rebuild and reinstall on source changes")

	return cmd
}

func runDeviceInstall(cmd *cobra.Command, args []string) error {
	client, err := deviceClient()
	if err != nil {
		return err
	}

	archivePath := deviceInstallArchive
	if archivePath == "" {
		archivePath = filepath.Join(GetConfig().Build.OutDir, "app.zip")
	}

	install := func(ctx context.Context) error {
		// Build when the archive is absent so a bare install works from a
		// clean checkout.
		if _, err := os.Stat(archivePath); err != nil {
			if buildErr := rebuildArchive(ctx, archivePath); buildErr != nil {
				return buildErr
			}
		}
		if err := output.RunWithSpinner(ctx, func() error {
			return client.Install(ctx, archivePath)
		}, output.WithTitle("Installing on "+client.Host)); err != nil {
			return err
		}
		output.Println(output.Checkmark() + " installed " + filepath.Base(archivePath) + " on " + client.Host)
		return nil
	}

	if !deviceInstallWatch {
		return install(cmd.Context())
	}

	if err := install(cmd.Context()); err != nil {
		// First install may fail while sources are mid-edit; keep watching.
		output.Error("install failed", "err", err)
	}

	build := GetConfig().Build
	roots := []string{build.BaseDir}
	if build.OverlayDir != "" {
		roots = append(roots, build.OverlayDir)
	}

	w, err := watch.New(watch.Config{
		Roots: roots,
		OnChange: func(ctx context.Context, changed []string) error {
			if err := rebuildArchive(ctx, archivePath); err != nil {
				return err
			}
			return install(ctx)
		},
	})
	if err != nil {
		return err
	}

	output.Info("watching for changes", "roots", roots)
	return w.Run(cmd.Context())
}

// rebuildArchive runs the packaging pipeline with the configured trees.
func rebuildArchive(ctx context.Context, archivePath string) error {
	build := GetConfig().Build
	if build.BaseDir == "" {
		return oerrors.NewConfigError("no base tree configured", "",
			"Set build.baseDir in the config or run 'tvlink pkg build' first.")
	}

	opts := pipeline.Options{
		BaseDir:     build.BaseDir,
		OverlayDir:  build.OverlayDir,
		RuntimeDir:  build.RuntimeDir,
		DestDir:     filepath.Join(build.OutDir, "pkg"),
		ArchivePath: archivePath,
	}
	_, err := pipeline.New(opts, nil).Run(ctx)
	return err
}
