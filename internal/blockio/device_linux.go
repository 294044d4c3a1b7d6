//go:build linux
// +build linux

package blockio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// deviceGeometry reports the logical sector size and total size of a raw
// Linux block device via the BLKSSZGET/BLKGETSIZE64 ioctls. For a regular
// image file, or anything that isn't an *os.File, it falls back to
// Stat's size and DefaultSectorSize.
func deviceGeometry(f File) (sectorSize int64, totalSize int64, err error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("blockio: stat: %w", err)
	}

	osFile, ok := f.(*os.File)
	if !ok || fi.Mode()&os.ModeDevice == 0 {
		return DefaultSectorSize, fi.Size(), nil
	}

	fd := int(osFile.Fd())

	ssz, err := unix.IoctlGetInt(fd, unix.BLKSSZGET)
	if err != nil {
		return 0, 0, fmt.Errorf("blockio: BLKSSZGET on %s: %w", osFile.Name(), err)
	}

	sz, err := unix.IoctlGetUint64(fd, unix.BLKGETSIZE64)
	if err != nil {
		return 0, 0, fmt.Errorf("blockio: BLKGETSIZE64 on %s: %w", osFile.Name(), err)
	}

	return int64(ssz), int64(sz), nil
}
