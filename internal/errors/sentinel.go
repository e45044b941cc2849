package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrConfig indicates missing or invalid configuration (device address,
	// credentials, malformed config file).
	ErrConfig = errors.New("configuration error")

	// ErrArtifact indicates a missing or unreadable build artifact (compiled
	// fragment, component manifest). Callers degrade rather than abort.
	ErrArtifact = errors.New("artifact error")

	// ErrConnectivity indicates the device could not be reached.
	ErrConnectivity = errors.New("connectivity error")

	// ErrAuth indicates the device rejected the installer credentials.
	ErrAuth = errors.New("authentication rejected")

	// ErrDevice indicates the device accepted the request but reported a
	// failure (e.g. install rejected by the loader).
	ErrDevice = errors.New("device reported failure")

	// ErrTimeout indicates a device operation exceeded its wall-clock budget.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound indicates a file, directory, or archive was not found.
	ErrNotFound = errors.New("not found")
)
