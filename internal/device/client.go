// Package device speaks the set-top box developer protocols: the installer
// HTTP endpoint with its digest handshake, the debug console, and the test
// harness port.
package device

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	oerrors "github.com/crosscast/tvlink/internal/errors"
	"github.com/crosscast/tvlink/internal/output"
)

const (
	// installerUser is the fixed username the developer installer expects.
	installerUser = "rokudev"

	// installerPath is the install/uninstall form endpoint.
	installerPath = "/plugin_install"

	// HarnessPort carries both the debug console and test harness output.
	HarnessPort = 8085
)

// Client talks to one device.
type Client struct {
	// Host is the device address (IP or hostname), without a scheme.
	Host string

	// Password is the developer-mode password paired with installerUser.
	Password string

	// HTTP is the underlying client. Callers may replace it in tests.
	HTTP *http.Client
}

// NewClient creates a device client. timeout bounds each HTTP exchange.
func NewClient(host, password string, timeout time.Duration) *Client {
	return &Client{
		Host:     host,
		Password: password,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Install uploads the archive to the device and verifies that the device
// reported a successful install.
func (c *Client) Install(ctx context.Context, archivePath string) error {
	archive, err := os.ReadFile(archivePath)
	if err != nil {
		return oerrors.NewNotFoundError(
			fmt.Sprintf("cannot read archive: %v", err), archivePath, "run `tvlink pkg build` first")
	}
	return c.submit(ctx, "Install", filepath.Base(archivePath), archive)
}

// Uninstall removes the installed dev channel from the device.
func (c *Client) Uninstall(ctx context.Context) error {
	return c.submit(ctx, "Delete", "", nil)
}

// submit posts the installer form, replaying it with a digest Authorization
// header when the device answers 401. Success is judged by the messages
// embedded in the response body, not by HTTP status alone.
func (c *Client) submit(ctx context.Context, action, archiveName string, archive []byte) error {
	body, contentType, err := installerForm(action, archiveName, archive)
	if err != nil {
		return fmt.Errorf("building installer form: %w", err)
	}

	resp, err := c.post(ctx, body, contentType, "")
	if err != nil {
		return c.connectivityError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		header := resp.Header.Get("WWW-Authenticate")
		drain(resp)

		ch, err := parseChallenge(header)
		if err != nil {
			return err
		}
		auth := authorizationHeader(ch, installerUser, c.Password, http.MethodPost, installerPath, newCnonce())

		resp, err = c.post(ctx, body, contentType, auth)
		if err != nil {
			return c.connectivityError(err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return oerrors.NewAuthError("device rejected the digest response", c.Host)
		}
	}

	defer drain(resp)

	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.connectivityError(err)
	}

	result := parseInstallerResponse(page)
	for _, msg := range result.Messages {
		output.Debug("installer message", "type", msg.Type, "text", msg.Text)
	}

	switch {
	case result.Failed():
		return oerrors.NewDeviceError(result.FailureText(), map[string]string{"action": action})
	case result.Succeeded():
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// No parseable message blob; trust the status code for old firmware.
		return nil
	default:
		return oerrors.NewDeviceError(
			fmt.Sprintf("installer returned HTTP %d with no success message", resp.StatusCode),
			map[string]string{"action": action})
	}
}

// post sends one installer request. The form body is replayable because the
// digest handshake needs the identical payload twice.
func (c *Client) post(ctx context.Context, body []byte, contentType, authorization string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+c.Host+installerPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return c.HTTP.Do(req)
}

func (c *Client) connectivityError(err error) error {
	return oerrors.NewConnectivityError(err.Error(),
		map[string]string{"device": c.Host},
		"check that the device is on and developer mode is enabled")
}

// installerForm builds the multipart form body once, so it can be replayed.
func installerForm(action, archiveName string, archive []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("mysubmit", action); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("passwd", ""); err != nil {
		return nil, "", err
	}

	if archive != nil {
		part, err := w.CreateFormFile("archive", archiveName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(archive); err != nil {
			return nil, "", err
		}
	} else if err := w.WriteField("archive", ""); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func newCnonce() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
