package fat

import (
	"encoding/binary"
	"fmt"

	"github.com/SukkoPera/gotekonf/internal/blockio"
	"github.com/SukkoPera/gotekonf/internal/logger"
)

// Volume is a parsed, read-only FAT12/16/32 volume. It is constructed
// once per invocation and treated as immutable thereafter. Logger is
// nil by default; callers that want parse diagnostics (mismatched LFN
// checksums and sequence numbers) set it after Open.
type Volume struct {
	r      *blockio.BlockReader
	Info   *BootSectorInfo
	Logger *logger.Logger
}

func (v *Volume) warnf(format string, args ...any) {
	if v.Logger != nil {
		v.Logger.Warnf(format, args...)
	}
}

// Open parses the boot sector at the reader's current position (the
// "volume start") and returns a ready-to-use Volume.
func Open(r *blockio.BlockReader) (*Volume, error) {
	volumeStart := r.Pos()

	raw, err := r.ReadExact(bootSectorSize)
	if err != nil {
		return nil, fmt.Errorf("fat: reading boot sector: %w", err)
	}

	info, err := parseBootSector(raw, volumeStart)
	if err != nil {
		return nil, err
	}

	v := &Volume{r: r, Info: info}

	if info.Variant == FAT32 {
		if info.RootStartCluster < 2 {
			return nil, fmt.Errorf("%w: FAT32 volume has no usable root start cluster", ErrInputFormat)
		}
		info.RootDirOffset = v.ClusterToOffset(info.RootStartCluster)
	}

	return v, nil
}

// ClusterToOffset returns the absolute byte offset of cluster c.
// Defined for c >= 2.
func (v *Volume) ClusterToOffset(c uint32) int64 {
	return v.Info.DataStart + int64(c-2)*int64(v.Info.SectorsPerCluster)*int64(v.Info.SectorSize)
}

// NextCluster reads the FAT cell for cluster c and returns the next
// cluster in its chain, dispatching on the volume's variant.
func (v *Volume) NextCluster(c uint32) (uint32, error) {
	switch v.Info.Variant {
	case FAT12:
		offset := v.Info.FATStart + int64(c) + int64(c)/2
		buf := make([]byte, 2)
		if err := v.r.ReadExactAt(offset, buf); err != nil {
			return 0, fmt.Errorf("fat: reading FAT12 cell for cluster %d: %w", c, err)
		}
		value := binary.LittleEndian.Uint16(buf)
		if c%2 == 1 {
			return uint32(value >> 4), nil
		}
		return uint32(value & 0x0FFF), nil

	case FAT16:
		offset := v.Info.FATStart + int64(c)*2
		buf := make([]byte, 2)
		if err := v.r.ReadExactAt(offset, buf); err != nil {
			return 0, fmt.Errorf("fat: reading FAT16 cell for cluster %d: %w", c, err)
		}
		return uint32(binary.LittleEndian.Uint16(buf)), nil

	case FAT32:
		offset := v.Info.FATStart + int64(c)*4
		buf := make([]byte, 4)
		if err := v.r.ReadExactAt(offset, buf); err != nil {
			return 0, fmt.Errorf("fat: reading FAT32 cell for cluster %d: %w", c, err)
		}
		return binary.LittleEndian.Uint32(buf) & 0x0FFFFFFF, nil

	default:
		return 0, fmt.Errorf("%w: unknown FAT variant", ErrInputFormat)
	}
}

// ClusterChain returns the clusters starting from c, stopping before the
// first cell value at or above the variant's EOC threshold. c == 0
// returns the sentinel chain []uint32{0}. A cluster
// repeated within the chain, or a chain re-entering a reserved cluster
// (<2), is a fatal ErrChainCorrupt.
func (v *Volume) ClusterChain(c uint32) ([]uint32, error) {
	if c == 0 {
		return []uint32{0}, nil
	}

	seen := make(map[uint32]bool)
	var chain []uint32

	cur := c
	for {
		if seen[cur] {
			return nil, fmt.Errorf("%w: cluster %d revisited in chain starting at %d", ErrChainCorrupt, cur, c)
		}
		if cur < 2 {
			return nil, fmt.Errorf("%w: chain starting at %d re-entered reserved cluster %d", ErrChainCorrupt, c, cur)
		}
		seen[cur] = true
		chain = append(chain, cur)

		next, err := v.NextCluster(cur)
		if err != nil {
			return nil, err
		}
		if next >= v.Info.EOCThreshold {
			break
		}
		cur = next
	}

	return chain, nil
}

// ReadCluster reads the full contents of cluster c. For c < 2 it returns
// an empty buffer.
func (v *Volume) ReadCluster(c uint32) ([]byte, error) {
	if c < 2 {
		return nil, nil
	}
	size := int(v.Info.SectorsPerCluster) * int(v.Info.SectorSize)
	buf := make([]byte, size)
	if err := v.r.ReadExactAt(v.ClusterToOffset(c), buf); err != nil {
		return nil, fmt.Errorf("fat: reading cluster %d: %w", c, err)
	}
	return buf, nil
}
