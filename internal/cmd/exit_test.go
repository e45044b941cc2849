package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeName(t *testing.T) {
	tests := []struct {
		code int
		name string
	}{
		{ExitSuccess, "Success"},
		{ExitGeneralError, "General Error"},
		{ExitConfigError, "Configuration Error"},
		{ExitConnectivityError, "Connectivity Error"},
		{ExitAuthError, "Authentication Error"},
		{ExitDeviceError, "Device Error"},
		{ExitNotFound, "Not Found"},
		{ExitTimeout, "Timeout"},
		{99, "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, ExitCodeName(tt.code))
	}
}
