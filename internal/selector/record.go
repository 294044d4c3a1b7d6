package selector

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"
)

// Fixed on-disk geometry of selector.adf.
const (
	StatsOffset = 0x29416
	StatsSize   = 8
	RecOffset   = 0x29880
	RecSize     = 128
	MaxSlots    = 999
)

// rawSlotRecord is the 128-byte on-disk slot layout, restruct-decoded
// against a tagged struct rather than assembled field by field.
type rawSlotRecord struct {
	ShortName    [11]byte
	Reserved1    uint8
	Reserved2    uint8
	StartCluster uint32
	FileSize     uint32
	FileName     [41]byte
	Zeros        [66]byte
}

// SlotRecord is a decoded slot, plus bookkeeping (slot number, cleared
// flag, resolved disk path) not present on the wire.
type SlotRecord struct {
	Num          int
	Present      bool
	Cleared      bool
	ShortName    string
	StartCluster uint32
	FileSize     uint32
	FileName     string
	DiskFileName string // resolved relative path, "" if unresolved
	HasDiskFile  bool
}

func slotOffset(n int) int64 {
	return RecOffset + int64(n-1)*RecSize
}

// decodeSlotRecord decodes one 128-byte record. A present slot
// (non-zero first byte) whose reserved or zero-padding regions are not
// entirely zero is a fatal ErrRecordInvariant.
func decodeSlotRecord(buf []byte, num int) (SlotRecord, error) {
	if len(buf) != RecSize {
		return SlotRecord{}, fmt.Errorf("selector: record must be %d bytes, got %d", RecSize, len(buf))
	}

	if buf[0] == 0 {
		return SlotRecord{Num: num, Present: false}, nil
	}

	var raw rawSlotRecord
	if err := restruct.Unpack(buf, binary.LittleEndian, &raw); err != nil {
		return SlotRecord{}, fmt.Errorf("selector: decoding slot %d: %w", num, err)
	}

	if raw.Reserved1 != 0 || raw.Reserved2 != 0 {
		return SlotRecord{}, fmt.Errorf("%w: slot %d has non-zero reserved bytes", ErrRecordInvariant, num)
	}
	for _, b := range raw.Zeros {
		if b != 0 {
			return SlotRecord{}, fmt.Errorf("%w: slot %d has non-zero padding", ErrRecordInvariant, num)
		}
	}

	return SlotRecord{
		Num:          num,
		Present:      true,
		ShortName:    trimNulString(raw.ShortName[:]),
		StartCluster: raw.StartCluster,
		FileSize:     raw.FileSize,
		FileName:     trimNulString(raw.FileName[:]),
	}, nil
}

// encodeSlotRecord packs a slot back into its 128-byte wire form. A
// cleared slot encodes as all zeros; a present slot's ShortName/FileName
// are truncated or NUL-padded to their fixed widths.
func encodeSlotRecord(s SlotRecord) ([]byte, error) {
	if s.Cleared || !s.Present {
		return make([]byte, RecSize), nil
	}

	raw := rawSlotRecord{
		StartCluster: s.StartCluster,
		FileSize:     s.FileSize,
	}
	copyPadded(raw.ShortName[:], s.ShortName)
	copyPadded(raw.FileName[:], s.FileName)

	buf, err := restruct.Pack(binary.LittleEndian, &raw)
	if err != nil {
		return nil, fmt.Errorf("selector: encoding slot %d: %w", s.Num, err)
	}
	return buf, nil
}

func copyPadded(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func trimNulString(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// rawStatsHeader is the 8-byte stats header. Only DefaultSlot is ever
// interpreted or written; NImages, Reserved, and the four Unk bytes are
// preserved byte-for-byte across a setDefaultSlot write.
type rawStatsHeader struct {
	NImages     uint16
	DefaultSlot uint8
	Reserved    uint8
	Unk1        uint8
	Unk2        uint8
	Unk3        uint8
	Unk4        uint8
}

// StatsHeader is the decoded stats header.
type StatsHeader struct {
	NImages     uint16
	DefaultSlot uint8
	Unk1        uint8
	Unk2        uint8
	Unk3        uint8
	Unk4        uint8

	raw [StatsSize]byte // the header bytes exactly as read
}

func decodeStatsHeader(buf []byte) (StatsHeader, error) {
	if len(buf) != StatsSize {
		return StatsHeader{}, fmt.Errorf("selector: stats header must be %d bytes, got %d", StatsSize, len(buf))
	}

	var raw rawStatsHeader
	if err := restruct.Unpack(buf, binary.LittleEndian, &raw); err != nil {
		return StatsHeader{}, fmt.Errorf("selector: decoding stats header: %w", err)
	}

	var h StatsHeader
	h.NImages = raw.NImages
	h.DefaultSlot = raw.DefaultSlot
	h.Unk1, h.Unk2, h.Unk3, h.Unk4 = raw.Unk1, raw.Unk2, raw.Unk3, raw.Unk4
	copy(h.raw[:], buf)
	return h, nil
}

// DebugString renders the four unknown stat bytes in decimal and hex,
// the --verbose diagnostic dump.
func (h StatsHeader) DebugString() string {
	return fmt.Sprintf("DEC:\t%d\t%d\t%d\t%d\nHEX:\t%02x\t%02x\t%02x\t%02x",
		h.Unk1, h.Unk2, h.Unk3, h.Unk4,
		h.Unk1, h.Unk2, h.Unk3, h.Unk4)
}
