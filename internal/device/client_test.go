package device

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/crosscast/tvlink/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		Host:     strings.TrimPrefix(srv.URL, "http://"),
		Password: "hunter2",
		HTTP:     srv.Client(),
	}
}

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04zipstub"), 0o644))
	return path
}

func TestInstallDigestHandshake(t *testing.T) {
	var sawAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, installerPath, r.URL.Path)
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate",
				`Digest realm="rokudev", nonce="abc123", qop="auth"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		sawAuth = auth

		require.NoError(t, r.ParseMultipartForm(1 << 20))
		assert.Equal(t, "Install", r.FormValue("mysubmit"))
		file, header, err := r.FormFile("archive")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "app.zip", header.Filename)

		fmt.Fprint(w, `JSON.parse('{"messages":[{"text":"Install Success.","type":"success"}]}')`)
	})

	c := newTestClient(t, handler)
	err := c.Install(context.Background(), writeArchive(t))
	require.NoError(t, err)

	assert.Contains(t, sawAuth, `username="rokudev"`)
	assert.Contains(t, sawAuth, `realm="rokudev"`)
	assert.Contains(t, sawAuth, `qop=auth`)
	assert.Contains(t, sawAuth, `uri="/plugin_install"`)
}

func TestInstallWrongPassword(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate",
			`Digest realm="rokudev", nonce="abc123", qop="auth"`)
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, handler)
	err := c.Install(context.Background(), writeArchive(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrAuth)
}

func TestInstallDeviceFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `JSON.parse('{"messages":[{"text":"Install Failure: bad manifest","type":"error"}]}')`)
	})

	c := newTestClient(t, handler)
	err := c.Install(context.Background(), writeArchive(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrDevice)
	assert.Contains(t, err.Error(), "bad manifest")
}

func TestInstallLegacyPlainTextResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Install Success.</body></html>`)
	})

	c := newTestClient(t, handler)
	assert.NoError(t, c.Install(context.Background(), writeArchive(t)))
}

func TestInstallStatusOnlyResponse(t *testing.T) {
	// Old firmware sometimes returns 200 with no recognizable message.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html></html>`)
	})

	c := newTestClient(t, handler)
	assert.NoError(t, c.Install(context.Background(), writeArchive(t)))
}

func TestUninstallSendsDeleteForm(t *testing.T) {
	var submit string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		submit = r.FormValue("mysubmit")
		fmt.Fprint(w, `Delete Succeeded`)
	})

	c := newTestClient(t, handler)
	require.NoError(t, c.Uninstall(context.Background()))
	assert.Equal(t, "Delete", submit)
}

func TestInstallMissingArchive(t *testing.T) {
	c := NewClient("192.0.2.1", "pw", time.Second)
	err := c.Install(context.Background(), filepath.Join(t.TempDir(), "nope.zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
}

func TestInstallConnectivityError(t *testing.T) {
	c := NewClient("127.0.0.1:1", "pw", 200*time.Millisecond)
	err := c.Install(context.Background(), writeArchive(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrConnectivity)
}
