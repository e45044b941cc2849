package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/config"
	oerrors "github.com/crosscast/tvlink/internal/errors"
	"github.com/crosscast/tvlink/internal/output"
)

var configInitForce bool

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize default configuration",
		Long: `Initialize the tvlink configuration.

Creates ~/.tvlink/config.yaml with the default device, build, and test
settings filled in.

Examples:
  # Initialize configuration
  tvlink config init

  # Overwrite existing configuration
  tvlink config init --force`,
		RunE: runConfigInit,
	}

	cmd.Flags().BoolVarP(&configInitForce, "force", "f", false,
		"Overwrite existing configuration")

	return cmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return oerrors.Wrap(oerrors.ErrConfig, "could not determine home directory")
	}

	if _, err := os.Stat(paths.ConfigFile); err == nil && !configInitForce {
		return oerrors.NewConfigError("configuration already exists",
			paths.ConfigFile, "Use --force to overwrite existing configuration.")
	}

	if err := os.MkdirAll(paths.HomeDir, 0o700); err != nil {
		return oerrors.Wrap(oerrors.ErrConfig, "could not create ~/.tvlink directory")
	}

	if err := os.WriteFile(paths.ConfigFile, []byte(config.DefaultConfigTemplate), 0o600); err != nil {
		return oerrors.Wrap(oerrors.ErrConfig, "could not write config.yaml")
	}

	output.Println("Configuration initialized at " + paths.ConfigFile)
	output.Println("")
	output.Println("Set your device address and password, then validate with: tvlink config vet")

	return nil
}
