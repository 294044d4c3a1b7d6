package cmd

import "errors"

// ErrUsage marks an invalid combination of mode flags.
var ErrUsage = errors.New("exactly one of --list, --check, --remap, --set-default is required")

// ErrDeviceResolution marks a failure to resolve the mount point to a
// backing device.
var ErrDeviceResolution = errors.New("could not resolve mount point to a device")

// ExitCodeFor maps a top-level error to a process exit code. Anything
// else is a generic failure (1).
func ExitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrUsage):
		return 10
	case errors.Is(err, ErrDeviceResolution):
		return 20
	default:
		return 1
	}
}
