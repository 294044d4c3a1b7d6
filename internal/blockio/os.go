//go:build !windows
// +build !windows

package blockio

import "os"

// Open opens a raw block device or regular image file for read-only
// positioned access.
func Open(path string) (File, error) {
	return os.Open(path)
}
