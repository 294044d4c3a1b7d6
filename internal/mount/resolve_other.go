//go:build !linux
// +build !linux

package mount

import "fmt"

// resolveDevice has no mount-table equivalent to /proc/mounts outside
// Linux, so it always fails there.
func resolveDevice(path string) (string, error) {
	return "", fmt.Errorf("mount: automatic device resolution is not supported on this platform")
}
