// Package mount resolves a host mount point to the block device backing
// it, the way the original tool consults /proc/mounts before opening the
// raw FAT volume underneath a user-supplied directory.
package mount

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// ErrDeviceNotFound signals that no mounted filesystem was found at the
// requested path.
var ErrDeviceNotFound = errors.New("mount: no device mounted at path")

// ResolveDevice returns the block device mounted at path. On Linux it
// parses /proc/mounts; elsewhere (no equivalent table) it is
// unsupported.
func ResolveDevice(path string) (string, error) {
	return resolveDevice(path)
}

// NormalizeVolumePath rewrites a drive-letter or bare path into the raw
// volume path Windows needs (\\.\C:). Elsewhere it returns path
// unchanged.
func NormalizeVolumePath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}

	path = strings.TrimSpace(path)
	path = strings.ReplaceAll(path, "/", `\`)
	upper := strings.ToUpper(path)

	if strings.HasPrefix(upper, `\\.\`) {
		return upper
	}

	if len(upper) >= 2 && upper[1] == ':' && unicode.IsLetter(rune(upper[0])) {
		return `\\.\` + strings.ToUpper(string(upper[0])) + `:`
	}

	return path
}

// SelectorPath returns the path to selector.adf under a mount point, and
// an error if it is not a regular file there.
func SelectorPath(mountpoint string) (string, error) {
	p := filepath.Join(mountpoint, "selector.adf")
	fi, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("mount: selector.adf not found under %s: %w", mountpoint, err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("mount: %s is not a regular file", p)
	}
	return p, nil
}
