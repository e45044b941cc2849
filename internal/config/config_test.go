package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Device.Timeout)
	assert.Equal(t, ".", cfg.Build.BaseDir)
	assert.Equal(t, "out", cfg.Build.OutDir)
	assert.Equal(t, 5*time.Minute, cfg.Test.Deadline)
	assert.Equal(t, "out/test-results", cfg.Test.ReportDir)
	assert.Empty(t, cfg.Device.Host)
}

func TestWithDefaultsFillsOnlyUnsetFields(t *testing.T) {
	cfg := &Config{
		Device: DeviceConfig{Host: "192.0.2.7", Timeout: 5 * time.Second},
		Build:  BuildConfig{OutDir: "dist"},
	}

	cfg.WithDefaults()

	assert.Equal(t, "192.0.2.7", cfg.Device.Host)
	assert.Equal(t, 5*time.Second, cfg.Device.Timeout)
	assert.Equal(t, "dist", cfg.Build.OutDir)
	assert.Equal(t, ".", cfg.Build.BaseDir)
	assert.Equal(t, 5*time.Minute, cfg.Test.Deadline)
}
