package config

import (
	"os"
	"path/filepath"
)

// Paths contains the standard filesystem locations for tvlink.
type Paths struct {
	// ConfigFile is the path to the config file (~/.tvlink/config.yaml).
	ConfigFile string

	// HomeDir is the tvlink home directory (~/.tvlink).
	HomeDir string
}

// DefaultPaths returns the default paths for tvlink.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	tvlinkHome := filepath.Join(homeDir, ".tvlink")

	return &Paths{
		ConfigFile: filepath.Join(tvlinkHome, "config.yaml"),
		HomeDir:    tvlinkHome,
	}, nil
}

// GetConfigFile returns the config file path.
// If TVLINK_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv("TVLINK_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

// EnsureHomeDir creates the tvlink home directory if it doesn't exist.
func EnsureHomeDir() error {
	paths, err := DefaultPaths()
	if err != nil {
		return err
	}
	return os.MkdirAll(paths.HomeDir, 0o755)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// ~username is not supported
	return path, nil
}
