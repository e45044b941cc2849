package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/output"
)

// NewDeviceLogsCmd creates the device logs command.
func NewDeviceLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Stream the device debug console",
		Long: `Stream the device's debug console to stdout until interrupted.

The device allows a single console connection; stop other tools (including
a running 'tvlink device test') before tailing.`,
		RunE: runDeviceLogs,
	}
}

func runDeviceLogs(cmd *cobra.Command, args []string) error {
	client, err := deviceClient()
	if err != nil {
		return err
	}

	output.Info("streaming console", "device", client.Host)
	return client.TailLogs(cmd.Context(), os.Stdout)
}
