// Package config provides configuration loading and management.
package config

import "time"

// DeviceConfig contains the target device settings.
type DeviceConfig struct {
	// Host is the device's IP address or hostname.
	// Env: TVLINK_DEVICE
	Host string `json:"host,omitempty"`

	// Password is the developer-mode installer password.
	// Env: TVLINK_PASSWD
	Password string `json:"password,omitempty"`

	// Timeout bounds each installer HTTP exchange.
	// Env: TVLINK_TIMEOUT, Default: 30s
	Timeout time.Duration `json:"timeout,omitempty"`
}

// BuildConfig contains the source tree layout for pkg operations.
type BuildConfig struct {
	// BaseDir is the shared app tree.
	// Env: TVLINK_BASE_DIR, Default: "."
	BaseDir string `json:"baseDir,omitempty"`

	// OverlayDir is the platform overlay tree merged over BaseDir.
	// Env: TVLINK_OVERLAY_DIR
	OverlayDir string `json:"overlayDir,omitempty"`

	// RuntimeDir holds the runtime library fragments copied into every build.
	// Env: TVLINK_RUNTIME_DIR
	RuntimeDir string `json:"runtimeDir,omitempty"`

	// OutDir receives the linked tree and archive.
	// Env: TVLINK_OUT_DIR, Default: "out"
	OutDir string `json:"outDir,omitempty"`
}

// TestConfig contains on-device test run settings.
type TestConfig struct {
	// Deadline bounds a whole test session in wall-clock time.
	// Default: 5m
	Deadline time.Duration `json:"deadline,omitempty"`

	// ReportDir receives the NDJSON and JUnit reports.
	// Default: "out/test-results"
	ReportDir string `json:"reportDir,omitempty"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `json:"timestamps,omitempty"`
}

// Config represents the tvlink configuration.
// Loaded from ~/.tvlink/config.yaml, validated against an embedded CUE schema.
type Config struct {
	Device DeviceConfig `json:"device,omitempty"`
	Build  BuildConfig  `json:"build,omitempty"`
	Test   TestConfig   `json:"test,omitempty"`
	Log    LogConfig    `json:"log,omitempty"`
}

// DefaultConfig returns a Config with all default values populated.
// Used by `tvlink config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{Timeout: 30 * time.Second},
		Build:  BuildConfig{BaseDir: ".", OutDir: "out"},
		Test:   TestConfig{Deadline: 5 * time.Minute, ReportDir: "out/test-results"},
	}
}

// WithDefaults fills unset fields with their defaults.
func (c *Config) WithDefaults() *Config {
	def := DefaultConfig()
	if c.Device.Timeout <= 0 {
		c.Device.Timeout = def.Device.Timeout
	}
	if c.Build.BaseDir == "" {
		c.Build.BaseDir = def.Build.BaseDir
	}
	if c.Build.OutDir == "" {
		c.Build.OutDir = def.Build.OutDir
	}
	if c.Test.Deadline <= 0 {
		c.Test.Deadline = def.Test.Deadline
	}
	if c.Test.ReportDir == "" {
		c.Test.ReportDir = def.Test.ReportDir
	}
	return c
}

// DefaultConfigTemplate is the config file written by `tvlink config init`.
const DefaultConfigTemplate = `# tvlink configuration
# Values here are overridden by TVLINK_* environment variables and flags.

device:
  # host: 192.168.1.50
  # password: rokudev-password
  timeout: 30s

build:
  baseDir: .
  # overlayDir: overlays/living-room
  # runtimeDir: runtime
  outDir: out

test:
  deadline: 5m
  reportDir: out/test-results

log:
  timestamps: true
`

// ResolvedValue records one configuration value and where it came from,
// for --verbose resolution logging.
type ResolvedValue struct {
	Key      string
	Value    string
	Source   Source
	Shadowed map[Source]string
}
