package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, GitCommit, info.GitCommit)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
}

func TestInfoString(t *testing.T) {
	s := Info{Version: "v1.2.3", GitCommit: "abc1234", BuildDate: "2026-01-01", GoVersion: "go1.25.0"}.String()

	assert.Contains(t, s, "v1.2.3")
	assert.Contains(t, s, "abc1234")
	assert.Contains(t, s, "go1.25.0")
}
