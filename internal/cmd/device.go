package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/device"
	oerrors "github.com/crosscast/tvlink/internal/errors"
)

// NewDeviceCmd creates the device command group.
func NewDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Install, test, and observe a set-top device",
	}

	cmd.AddCommand(NewDeviceInstallCmd())
	cmd.AddCommand(NewDeviceUninstallCmd())
	cmd.AddCommand(NewDeviceTestCmd())
	cmd.AddCommand(NewDeviceLogsCmd())

	return cmd
}

// deviceClient builds a client for the resolved device, or fails with a
// config error when no device is known.
func deviceClient() (*device.Client, error) {
	host := DeviceHost()
	if host == "" {
		return nil, oerrors.NewConfigError("no device address configured", "",
			"Set device.host in the config, TVLINK_DEVICE, or pass --device.")
	}

	timeout := GetConfig().Device.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return device.NewClient(host, DevicePassword(), timeout), nil
}
