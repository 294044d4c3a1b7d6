package fat

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"
)

// Variant tags the three FAT widths this driver understands.
type Variant int

const (
	FAT12 Variant = iota
	FAT16
	FAT32
)

func (v Variant) String() string {
	switch v {
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	default:
		return "unknown"
	}
}

// eocThreshold is the cell value at or above which a chain is considered
// terminated, per variant.
func (v Variant) eocThreshold() uint32 {
	switch v {
	case FAT12:
		return 0x0FF8
	case FAT16:
		return 0xFFF8
	default:
		return 0x0FFFFFF8
	}
}

// classifyVariant picks a Variant from the computed cluster count.
func classifyVariant(numClusters uint32) Variant {
	switch {
	case numClusters < 4085:
		return FAT12
	case numClusters < 65525:
		return FAT16
	default:
		return FAT32
	}
}

// rawBootSector is the 48-byte on-disk BIOS Parameter Block this driver
// reads, restruct-decoded against a tagged struct rather than assembled
// field by field with binary.Read.
type rawBootSector struct {
	Jump              [3]byte
	OEMName           [8]byte
	SectorSize        uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntries       uint16
	TotalSectors16    uint16
	MediaDescriptor   uint8
	SectorsPerFAT16   uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
	SectorsPerFAT32   uint32
	Flags             uint16
	Version           uint16
	RootStartCluster  uint32
}

const bootSectorSize = 48

// BootSectorInfo holds the immutable per-volume facts parsed from the
// boot sector, plus the derived quantities cached alongside it.
type BootSectorInfo struct {
	SectorSize        uint32
	SectorsPerCluster uint32
	ReservedSectors   uint32
	NumFATs           uint32
	RootEntries       uint32
	TotalSectors      uint32
	SectorsPerFAT     uint32
	Flags             uint16
	Version           uint16
	RootStartCluster  uint32 // FAT32 only

	Variant       Variant
	EOCThreshold  uint32
	NumClusters   uint32
	FATStart      int64
	DataStart     int64
	RootDirOffset int64 // fixed region (FAT12/16) or cluster_to_offset(RootStartCluster) (FAT32)
}

// parseBootSector decodes the 48-byte BPB and computes every derived
// quantity a volume needs: FAT start, data start, cluster count, variant,
// and EOC threshold.
func parseBootSector(raw []byte, volumeStart int64) (*BootSectorInfo, error) {
	if len(raw) != bootSectorSize {
		return nil, fmt.Errorf("%w: boot sector must be %d bytes, got %d", ErrInputFormat, bootSectorSize, len(raw))
	}

	var rb rawBootSector
	if err := restruct.Unpack(raw, binary.LittleEndian, &rb); err != nil {
		return nil, fmt.Errorf("%w: decoding boot sector: %v", ErrInputFormat, err)
	}

	if rb.SectorSize == 0 || rb.SectorsPerCluster == 0 || rb.NumFATs == 0 {
		return nil, fmt.Errorf("%w: zero sector size, sectors-per-cluster, or FAT count", ErrInputFormat)
	}

	totalSectors := uint32(rb.TotalSectors16)
	if totalSectors == 0 {
		totalSectors = rb.TotalSectors32
	}

	sectorsPerFAT := uint32(rb.SectorsPerFAT16)
	if sectorsPerFAT == 0 {
		sectorsPerFAT = rb.SectorsPerFAT32
	}
	if sectorsPerFAT == 0 {
		return nil, fmt.Errorf("%w: sectors-per-FAT is zero", ErrInputFormat)
	}

	info := &BootSectorInfo{
		SectorSize:        uint32(rb.SectorSize),
		SectorsPerCluster: uint32(rb.SectorsPerCluster),
		ReservedSectors:   uint32(rb.ReservedSectors),
		NumFATs:           uint32(rb.NumFATs),
		RootEntries:       uint32(rb.RootEntries),
		TotalSectors:      totalSectors,
		SectorsPerFAT:     sectorsPerFAT,
		Flags:             rb.Flags,
		Version:           rb.Version,
		RootStartCluster:  rb.RootStartCluster,
	}

	info.FATStart = volumeStart + int64(info.ReservedSectors)*int64(info.SectorSize)

	rootDirSectors := (info.RootEntries*32 + info.SectorSize - 1) / info.SectorSize
	dataSectors := int64(info.TotalSectors) - (int64(info.ReservedSectors) + int64(info.NumFATs)*int64(info.SectorsPerFAT) + int64(rootDirSectors))
	if dataSectors < 0 || info.SectorsPerCluster == 0 {
		return nil, fmt.Errorf("%w: negative data region size", ErrInputFormat)
	}
	info.NumClusters = uint32(dataSectors) / info.SectorsPerCluster
	info.Variant = classifyVariant(info.NumClusters)
	info.EOCThreshold = info.Variant.eocThreshold()

	if info.Variant == FAT32 {
		info.DataStart = info.FATStart + int64(info.NumFATs)*int64(info.SectorsPerFAT)*int64(info.SectorSize)
		// RootDirOffset is filled in by the caller once cluster_to_offset
		// is available (it needs DataStart, set just above).
	} else {
		rootDirOffset := info.FATStart + int64(info.NumFATs)*int64(info.SectorsPerFAT)*int64(info.SectorSize)
		info.RootDirOffset = rootDirOffset
		info.DataStart = rootDirOffset + 32*int64(info.RootEntries)
	}

	return info, nil
}
