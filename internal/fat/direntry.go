package fat

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-restruct/restruct"
)

// Attr is the directory-entry attribute bitfield.
type Attr uint8

const (
	AttrReadOnly Attr = 0x01
	AttrHidden   Attr = 0x02
	AttrSystem   Attr = 0x04
	AttrLabel    Attr = 0x08
	AttrDir      Attr = 0x10
	AttrArchive  Attr = 0x20

	// AttrLongName is the combination that marks an LFN fragment slot.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrLabel
)

func (a Attr) IsDir() bool      { return a&AttrDir != 0 }
func (a Attr) IsLongName() bool { return a == AttrLongName }
func (a Attr) IsLabel() bool    { return a&AttrLabel != 0 && a&AttrReadOnly == 0 }

const dirEntrySize = 32

// rawDirEntry is the 32-byte on-disk directory entry, laid out exactly
// per the FAT spec and restruct-decoded against a tagged struct.
// FstClusHI is captured (not skipped) so FAT32 files above cluster
// 65535 can be resolved.
type rawDirEntry struct {
	Name            [11]byte
	Attr            uint8
	NTReserved      uint8
	CreateTimeTenth uint8
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FstClusHI       uint16
	WriteTime       uint16
	WriteDate       uint16
	FstClusLO       uint16
	FileSize        uint32
}

// DirEntry is a fully decoded directory entry.
type DirEntry struct {
	Name         string
	Attr         Attr
	Created      time.Time
	LastAccessed time.Time
	Modified     time.Time
	StartCluster uint32
	Size         uint32
	EntryOffset  int64
}

// decodeRawDirEntry builds a DirEntry from its 32 raw bytes, the
// already-reassembled LFN (empty if none applied), and the entry's
// absolute byte offset.
func decodeRawDirEntry(buf []byte, lfn string, entryOffset int64) (DirEntry, error) {
	var rd rawDirEntry
	if err := restruct.Unpack(buf, binary.LittleEndian, &rd); err != nil {
		return DirEntry{}, fmt.Errorf("%w: decoding directory entry: %v", ErrInputFormat, err)
	}

	name := lfn
	if name == "" {
		name = normalizeShortName(rd.Name)
	}

	return DirEntry{
		Name:         name,
		Attr:         Attr(rd.Attr),
		Created:      parseFATDateTime(rd.CreateTimeTenth, rd.CreateTime, rd.CreateDate),
		LastAccessed: parseFATDate(rd.LastAccessDate),
		Modified:     parseFATDateTime(0, rd.WriteTime, rd.WriteDate),
		StartCluster: uint32(rd.FstClusHI)<<16 | uint32(rd.FstClusLO),
		Size:         rd.FileSize,
		EntryOffset:  entryOffset,
	}, nil
}

// normalizeShortName trims and dot-joins an 8.3 name.
func normalizeShortName(raw [11]byte) string {
	base := strings.TrimRight(string(raw[0:8]), " ")
	ext := strings.TrimRight(string(raw[8:11]), " ")
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// clampDate keeps month in [1,12] and day in [1,31]. An earlier tool in
// this lineage computed min(max(m,12),1), which is algebraically always
// 1; this uses the evidently intended max(min(m,12),1) instead.
func clampDate(month, day int) (int, int) {
	if month > 12 {
		month = 12
	}
	if month < 1 {
		month = 1
	}
	if day > 31 {
		day = 31
	}
	if day < 1 {
		day = 1
	}
	return month, day
}

func parseFATDate(v uint16) time.Time {
	year := 1980 + int(v>>9)
	month, day := clampDate(int((v>>5)&0x1F), int(v&0x1F))
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// parseFATDateTime decodes a FAT date+time pair, refined by an optional
// 10ms creation-time byte.
func parseFATDateTime(centiseconds uint8, t uint16, d uint16) time.Time {
	hour := int(t >> 11)
	minute := int((t >> 5) & 0x3F)
	second := int(t&0x1F) * 2

	nanos := 0
	cs := int(centiseconds)
	if cs >= 100 {
		second++
		cs -= 100
	}
	nanos = cs * 10_000_000 // centiseconds -> nanoseconds

	date := parseFATDate(d)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, nanos, time.UTC)
}
