package fat_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SukkoPera/gotekonf/internal/blockio"
	"github.com/SukkoPera/gotekonf/internal/fat"
	"github.com/SukkoPera/gotekonf/internal/logger"
)

const (
	sectorSize  = 512
	sectorsFAT  = 1
	reservedSec = 1
	rootEntries = 16
	totalSec    = 10
)

// buildFAT12Image assembles a minimal single-directory FAT12 volume: one
// reserved sector, one 512-byte FAT, a 16-entry root directory, and seven
// one-sector data clusters. populate is called with the image so the caller can place
// directory entries and FAT cells before the image is finalized.
func buildFAT12Image(t *testing.T, populate func(img []byte)) []byte {
	t.Helper()

	img := make([]byte, totalSec*sectorSize)

	putU16 := func(off int, v uint16) { img[off] = byte(v); img[off+1] = byte(v >> 8) }

	putU16(11, sectorSize)  // SectorSize
	img[13] = 1             // SectorsPerCluster
	putU16(14, reservedSec) // ReservedSectors
	img[16] = 1             // NumFATs
	putU16(17, rootEntries) // RootEntries
	putU16(19, totalSec)    // TotalSectors16
	img[21] = 0xF8          // MediaDescriptor
	putU16(22, sectorsFAT)  // SectorsPerFAT16

	populate(img)
	return img
}

func fatStart() int  { return reservedSec * sectorSize }
func rootStart() int { return fatStart() + sectorsFAT*sectorSize }
func dataStart() int { return rootStart() + rootEntries*32 }

func setFAT12Cell(img []byte, cluster uint32, value uint16) {
	off := fatStart() + int(cluster) + int(cluster)/2
	cur := uint16(img[off]) | uint16(img[off+1])<<8
	if cluster%2 == 1 {
		cur = (cur & 0x000F) | (value << 4)
	} else {
		cur = (cur & 0xF000) | (value & 0x0FFF)
	}
	img[off] = byte(cur)
	img[off+1] = byte(cur >> 8)
}

func writeShortDirEntry(img []byte, entryIndex int, name [11]byte, attr uint8, startCluster uint32, size uint32) {
	off := rootStart() + entryIndex*32
	copy(img[off:off+11], name[:])
	img[off+11] = attr
	img[off+20] = byte(startCluster >> 16)
	img[off+21] = byte(startCluster >> 24)
	img[off+26] = byte(startCluster)
	img[off+27] = byte(startCluster >> 8)
	img[off+28] = byte(size)
	img[off+29] = byte(size >> 8)
	img[off+30] = byte(size >> 16)
	img[off+31] = byte(size >> 24)
}

// writeLFNEntry writes one 32-byte VFAT long-filename directory slot.
// units must be exactly 26 bytes (13 UTF-16LE code units).
func writeLFNEntry(img []byte, entryIndex int, seq uint8, checksum uint8, units []byte) {
	off := rootStart() + entryIndex*32
	img[off] = seq
	copy(img[off+1:off+11], units[0:10])
	img[off+11] = 0x0F // LFN attribute combination
	img[off+13] = checksum
	copy(img[off+14:off+26], units[10:22])
	copy(img[off+28:off+32], units[22:26])
}

func openVolume(t *testing.T, img []byte) *fat.Volume {
	t.Helper()
	r := blockio.New(bytes.NewReader(img))
	v, err := fat.Open(r)
	require.NoError(t, err)
	return v
}

func TestOpen_ClassifiesFAT12(t *testing.T) {
	img := buildFAT12Image(t, func(img []byte) {})
	v := openVolume(t, img)

	require.Equal(t, fat.FAT12, v.Info.Variant)
	require.Equal(t, int64(fatStart()), v.Info.FATStart)
	require.Equal(t, int64(rootStart()), v.Info.RootDirOffset)
	require.Equal(t, int64(dataStart()), v.Info.DataStart)
}

func TestClusterChain_FAT12_OddAndEvenCells(t *testing.T) {
	img := buildFAT12Image(t, func(img []byte) {
		setFAT12Cell(img, 2, 3)      // even cell: cluster 2 -> 3
		setFAT12Cell(img, 3, 0xFFF)  // odd cell: cluster 3 -> EOC
	})
	v := openVolume(t, img)

	chain, err := v.ClusterChain(2)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 3}, chain)
}

func TestClusterChain_ZeroIsSentinel(t *testing.T) {
	img := buildFAT12Image(t, func(img []byte) {})
	v := openVolume(t, img)

	chain, err := v.ClusterChain(0)
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, chain)
}

func TestClusterChain_DetectsCycles(t *testing.T) {
	img := buildFAT12Image(t, func(img []byte) {
		setFAT12Cell(img, 2, 3)
		setFAT12Cell(img, 3, 2) // cycles back to 2
	})
	v := openVolume(t, img)

	_, err := v.ClusterChain(2)
	require.Error(t, err)
}

func TestBuildFileIndex_ShortNameOnlyEntry(t *testing.T) {
	img := buildFAT12Image(t, func(img []byte) {
		setFAT12Cell(img, 2, 0xFFF)
		writeShortDirEntry(img, 0, [11]byte{'H', 'E', 'L', 'L', 'O', ' ', ' ', ' ', 'T', 'X', 'T'}, 0x20, 2, 5)
	})
	v := openVolume(t, img)

	idx, err := fat.BuildFileIndex(v)
	require.NoError(t, err)

	cluster, ok := idx.StartingCluster("hello.txt")
	require.True(t, ok)
	require.Equal(t, uint32(2), cluster)

	entry, ok := idx.FileAtCluster(2)
	require.True(t, ok)
	require.Equal(t, uint32(5), entry.Size)
	require.Equal(t, "HELLO.TXT", entry.Name)
}

func TestBuildFileIndex_AmbiguousClusterIsNotResolved(t *testing.T) {
	img := buildFAT12Image(t, func(img []byte) {
		setFAT12Cell(img, 2, 0xFFF)
		writeShortDirEntry(img, 0, [11]byte{'A', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 'A', 'D', 'F'}, 0x20, 2, 1)
		writeShortDirEntry(img, 1, [11]byte{'B', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 'A', 'D', 'F'}, 0x20, 2, 1)
	})
	v := openVolume(t, img)

	idx, err := fat.BuildFileIndex(v)
	require.NoError(t, err)

	_, ok := idx.FileAtCluster(2)
	require.False(t, ok)
}

func TestDirEntry_DateClampKeepsInRangeMonth(t *testing.T) {
	// month=6, day=15 is already valid. The original
	// min(max(m,12),1) collapses any month to 1; the redesigned
	// max(min(m,12),1) must leave an in-range month untouched.
	img := buildFAT12Image(t, func(img []byte) {
		setFAT12Cell(img, 2, 0xFFF)
		writeShortDirEntry(img, 0, [11]byte{'D', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 'A', 'D', 'F'}, 0x20, 2, 0)
		// WriteDate at entry offset 24-25: bits 15:9 year, 8:5 month, 4:0 day.
		date := uint16(6<<5) | 15
		off := rootStart() + 24
		img[off] = byte(date)
		img[off+1] = byte(date >> 8)
	})
	v := openVolume(t, img)

	idx, err := fat.BuildFileIndex(v)
	require.NoError(t, err)

	entry, ok := idx.FileAtCluster(2)
	require.True(t, ok)
	require.Equal(t, time.Month(6), entry.Modified.Month())
	require.Equal(t, 15, entry.Modified.Day())
}

func TestBuildFileIndex_LogsLFNChecksumMismatch(t *testing.T) {
	units := make([]byte, 0, 26)
	for _, r := range "longname.txt" {
		units = append(units, byte(r), byte(r>>8))
	}
	units = append(units, 0, 0) // NUL terminator
	for len(units) < 26 {
		units = append(units, 0xFF, 0xFF)
	}

	img := buildFAT12Image(t, func(img []byte) {
		setFAT12Cell(img, 2, 0xFFF)
		writeLFNEntry(img, 0, 0x41, 0xAB, units) // deliberately wrong checksum
		writeShortDirEntry(img, 1, [11]byte{'L', 'O', 'N', 'G', 'N', 'A', '~', '1', 'T', 'X', 'T'}, 0x20, 2, 4)
	})

	v := openVolume(t, img)
	var buf bytes.Buffer
	v.Logger = logger.New(&buf, logger.DebugLevel)

	_, err := fat.BuildFileIndex(v)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "checksum mismatch")
}
