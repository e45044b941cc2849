package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crosscast/tvlink/internal/config"
	"github.com/crosscast/tvlink/internal/output"
)

var (
	// Global flags
	configFlag     string
	deviceFlag     string
	passwdFlag     string
	verboseFlag    bool
	timestampsFlag bool

	// Loaded configuration (set during PersistentPreRunE)
	loadedConfig   *config.Config
	resolvedDevice config.Resolution
	resolvedPasswd config.Resolution
)

// NewRootCmd creates the root command for the tvlink CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tvlink",
		Short:         "TV app packager and deployer",
		Long:          `tvlink links compiled app trees into installable packages and drives set-top devices: install, uninstall, test, and log streaming.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: TVLINK_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "Device IP or hostname (env: TVLINK_DEVICE)")
	rootCmd.PersistentFlags().StringVar(&passwdFlag, "passwd", "", "Developer-mode password (env: TVLINK_PASSWD)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewPkgCmd())
	rootCmd.AddCommand(NewDeviceCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals(cmd *cobra.Command) error {
	cfg, err := config.NewLoader().LoadWithDefaults(configFlag)
	if err != nil {
		// Commands that don't need config should still work.
		output.Debug("config load error", "error", err)
		cfg = config.DefaultConfig()
	}
	loadedConfig = cfg

	resolvedDevice = config.Resolve(deviceFlag, "TVLINK_DEVICE", cfg.Device.Host)
	resolvedPasswd = config.Resolve(passwdFlag, "TVLINK_PASSWD", cfg.Device.Password)

	// Timestamps precedence: flag (if explicitly set) > config > default(true).
	logCfg := output.LogConfig{Verbose: verboseFlag}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if cfg.Log.Timestamps != nil {
		logCfg.Timestamps = cfg.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if verboseFlag {
		config.LogResolvedValues([]config.ResolvedValue{
			{Key: "device", Value: resolvedDevice.Value, Source: resolvedDevice.Source, Shadowed: resolvedDevice.Shadowed},
			{Key: "config", Value: configFlag, Source: config.SourceFlag},
		})
	}

	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if loadedConfig == nil {
		return config.DefaultConfig()
	}
	return loadedConfig
}

// DeviceHost returns the resolved device address.
func DeviceHost() string {
	return resolvedDevice.Value
}

// DevicePassword returns the resolved installer password.
func DevicePassword() string {
	return resolvedPasswd.Value
}
