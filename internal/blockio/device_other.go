//go:build !linux && !windows
// +build !linux,!windows

package blockio

import (
	"fmt"
)

// deviceGeometry falls back to the file size and DefaultSectorSize on
// platforms without a dedicated block-device ioctl path.
func deviceGeometry(f File) (sectorSize int64, totalSize int64, err error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("blockio: stat: %w", err)
	}
	return DefaultSectorSize, fi.Size(), nil
}
