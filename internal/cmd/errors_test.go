package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	oerrors "github.com/crosscast/tvlink/internal/errors"
)

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil error", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitGeneralError},
		{"config sentinel", oerrors.Wrap(oerrors.ErrConfig, "bad config"), ExitConfigError},
		{"connectivity sentinel", oerrors.Wrap(oerrors.ErrConnectivity, "no route"), ExitConnectivityError},
		{"auth sentinel", oerrors.Wrap(oerrors.ErrAuth, "rejected"), ExitAuthError},
		{"device sentinel", oerrors.Wrap(oerrors.ErrDevice, "install failure"), ExitDeviceError},
		{"not found sentinel", oerrors.Wrap(oerrors.ErrNotFound, "no archive"), ExitNotFound},
		{"artifact sentinel", oerrors.Wrap(oerrors.ErrArtifact, "unreadable"), ExitNotFound},
		{"timeout sentinel", oerrors.Wrap(oerrors.ErrTimeout, "too slow"), ExitTimeout},
		{"detail error carries its cause", oerrors.NewAuthError("nope", "box"), ExitAuthError},
		{"explicit exit error wins", NewExitError(oerrors.Wrap(oerrors.ErrAuth, "x"), ExitDeviceError), ExitDeviceError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(errors.New("inner"), ExitTimeout)), ExitTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewExitError(inner, ExitGeneralError)

	assert.Equal(t, "inner", err.Error())
	assert.ErrorIs(t, err, inner)
}
