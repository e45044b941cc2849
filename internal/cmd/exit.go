// Package cmd provides CLI command implementations.
package cmd

// Exit codes reported to the shell.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitConfigError indicates missing or invalid configuration.
	ExitConfigError = 2

	// ExitConnectivityError indicates the device could not be reached.
	ExitConnectivityError = 3

	// ExitAuthError indicates the device rejected the installer credentials.
	ExitAuthError = 4

	// ExitDeviceError indicates the device accepted the request but reported
	// a failure.
	ExitDeviceError = 5

	// ExitNotFound indicates a file, directory, or archive was not found.
	ExitNotFound = 6

	// ExitTimeout indicates a device operation exceeded its deadline.
	ExitTimeout = 7
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitConfigError:
		return "Configuration Error"
	case ExitConnectivityError:
		return "Connectivity Error"
	case ExitAuthError:
		return "Authentication Error"
	case ExitDeviceError:
		return "Device Error"
	case ExitNotFound:
		return "Not Found"
	case ExitTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}
