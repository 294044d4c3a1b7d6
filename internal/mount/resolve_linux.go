//go:build linux
// +build linux

package mount

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveDevice parses /proc/mounts looking for a mount whose target
// matches path exactly.
func resolveDevice(path string) (string, error) {
	clean, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("mount: resolving %s: %w", path, err)
	}
	clean = strings.TrimSuffix(clean, "/")

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return "", fmt.Errorf("mount: reading /proc/mounts: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[1] == clean {
			return fields[0], nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("mount: scanning /proc/mounts: %w", err)
	}

	return "", fmt.Errorf("%w: %s", ErrDeviceNotFound, clean)
}
