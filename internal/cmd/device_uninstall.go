package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/output"
)

// NewDeviceUninstallCmd creates the device uninstall command.
func NewDeviceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the installed dev app from the device",
		RunE:  runDeviceUninstall,
	}
}

func runDeviceUninstall(cmd *cobra.Command, args []string) error {
	client, err := deviceClient()
	if err != nil {
		return err
	}

	if err := output.RunWithSpinner(cmd.Context(), func() error {
		return client.Uninstall(cmd.Context())
	}, output.WithTitle("Uninstalling from "+client.Host)); err != nil {
		return err
	}

	output.Println(output.Checkmark() + " uninstalled from " + client.Host)
	return nil
}
