package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/config"
	oerrors "github.com/crosscast/tvlink/internal/errors"
	"github.com/crosscast/tvlink/internal/output"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		Long: `Validate the tvlink configuration file against its schema.

Reports every constraint violation, not just the first.`,
		RunE: runConfigVet,
	}
}

func runConfigVet(cmd *cobra.Command, args []string) error {
	path := configFlag
	if path == "" {
		var err error
		path, err = config.GetConfigFile()
		if err != nil {
			return oerrors.Wrap(oerrors.ErrConfig, "could not determine config file path")
		}
	}

	exists, err := config.ConfigFileExists(path)
	if err != nil {
		return err
	}
	if !exists {
		return oerrors.NewConfigError("config file does not exist", path,
			"Run 'tvlink config init' to create one.")
	}

	validator, err := config.NewValidator()
	if err != nil {
		return err
	}

	if err := validator.ValidateFile(path); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, ve := range verrs {
				output.Error("invalid config value", "field", ve.Field, "problem", ve.Message)
			}
		}
		return oerrors.Wrap(oerrors.ErrConfig, "config validation failed")
	}

	output.Println(output.Checkmark() + " " + path + " is valid")
	return nil
}
