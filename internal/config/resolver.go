package config

import (
	"os"

	"github.com/crosscast/tvlink/internal/output"
)

// Source indicates where a configuration value came from.
type Source string

const (
	// SourceFlag indicates the value came from a command-line flag.
	SourceFlag Source = "flag"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv Source = "env"
	// SourceConfig indicates the value came from the config file.
	SourceConfig Source = "config"
	// SourceDefault indicates the value is the built-in default.
	SourceDefault Source = "default"
)

// Resolution is one resolved value with its provenance.
type Resolution struct {
	Value    string
	Source   Source
	Shadowed map[Source]string
}

// Resolve applies the flag > env > config precedence to one value.
// envVar is the full variable name, e.g. "TVLINK_DEVICE".
func Resolve(flagValue, envVar, configValue string) Resolution {
	r := Resolution{Shadowed: make(map[Source]string)}
	envValue := os.Getenv(envVar)

	switch {
	case flagValue != "":
		r.Value = flagValue
		r.Source = SourceFlag
		if envValue != "" {
			r.Shadowed[SourceEnv] = envValue
		}
		if configValue != "" {
			r.Shadowed[SourceConfig] = configValue
		}
	case envValue != "":
		r.Value = envValue
		r.Source = SourceEnv
		if configValue != "" {
			r.Shadowed[SourceConfig] = configValue
		}
	case configValue != "":
		r.Value = configValue
		r.Source = SourceConfig
	}
	return r
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) TVLINK_CONFIG env, (3) ~/.tvlink/config.yaml.
func ResolveConfigPath(flagValue string) (Resolution, error) {
	r := Resolution{Shadowed: make(map[Source]string)}

	envValue := os.Getenv("TVLINK_CONFIG")
	paths, err := DefaultPaths()
	if err != nil {
		return r, err
	}

	switch {
	case flagValue != "":
		r.Value = flagValue
		r.Source = SourceFlag
		if envValue != "" {
			r.Shadowed[SourceEnv] = envValue
		}
		r.Shadowed[SourceDefault] = paths.ConfigFile
	case envValue != "":
		r.Value = envValue
		r.Source = SourceEnv
		r.Shadowed[SourceDefault] = paths.ConfigFile
	default:
		r.Value = paths.ConfigFile
		r.Source = SourceDefault
	}
	return r, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
