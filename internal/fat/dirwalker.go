package fat

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// utf16leDecoder turns raw UTF-16LE code units from VFAT LFN fragments
// into Go strings.
var utf16leDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// lfnFragment holds one still-unassembled long-filename directory slot.
type lfnFragment struct {
	seq      uint8
	chars    []byte // 26 raw UTF-16LE code-unit bytes
	checksum uint8
}

// lfnChecksum computes the 8-bit rolling hash over an 11-byte short
// name used to validate LFN fragments against their primary entry.
func lfnChecksum(shortName [11]byte) uint8 {
	var s uint8
	for _, b := range shortName {
		s = ((s & 1) << 7) + (s >> 1) + b
	}
	return s
}

// reassembleLFN decodes a run of LFN fragments (ordered first-logical to
// last, i.e. lowest sequence number first) into a string: strip trailing
// 0xFFFF code units from every fragment, then strip one trailing 0x0000
// from the final fragment, then decode the concatenation as UTF-16LE.
func reassembleLFN(fragments []lfnFragment) (string, error) {
	if len(fragments) == 0 {
		return "", nil
	}

	chunks := make([][]byte, len(fragments))
	for i, f := range fragments {
		chunks[i] = stripTrailingFFFF(f.chars)
	}

	last := len(chunks) - 1
	chunks[last] = stripTrailingZero(chunks[last])

	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c)
	}

	decoded, err := utf16leDecoder.Bytes(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("fat: decoding LFN: %w", err)
	}
	return string(decoded), nil
}

// stripTrailingFFFF removes trailing 16-bit 0xFFFF code units, operating
// at code-unit (2-byte) granularity so a stray 0xFF byte inside a
// multi-byte code unit is never mistaken for padding.
func stripTrailingFFFF(units []byte) []byte {
	n := len(units)
	for n >= 2 && units[n-2] == 0xFF && units[n-1] == 0xFF {
		n -= 2
	}
	return units[:n]
}

// stripTrailingZero removes one trailing 16-bit 0x0000 code unit, if
// present, from the final LFN fragment.
func stripTrailingZero(units []byte) []byte {
	n := len(units)
	if n >= 2 && units[n-2] == 0 && units[n-1] == 0 {
		return units[:n-2]
	}
	return units
}

// lfnFragmentFromEntry extracts the sequence number, checksum, and the
// 26 raw UTF-16LE bytes (offsets 1-10, 14-25, 28-31) from a 32-byte LFN
// directory slot.
func lfnFragmentFromEntry(buf []byte) lfnFragment {
	chars := make([]byte, 0, 26)
	chars = append(chars, buf[1:11]...)
	chars = append(chars, buf[14:26]...)
	chars = append(chars, buf[28:32]...)
	return lfnFragment{
		seq:      buf[0],
		chars:    chars,
		checksum: buf[13],
	}
}

// decodeDirEntries turns a stream of raw 32-byte directory slots (with
// their absolute offsets) into decoded DirEntry values, reassembling
// VFAT long filenames as it goes. It stops at the first
// 0x00-first-byte terminator, if any.
func (v *Volume) decodeDirEntries(raws [][]byte, offsets []int64) ([]DirEntry, error) {
	var (
		out       []DirEntry
		fragments []lfnFragment
		nextSeq   uint8
	)

	for i, buf := range raws {
		if buf[0] == 0x00 {
			break
		}
		if buf[0] == 0xE5 {
			continue
		}

		attr := Attr(buf[11])

		if attr.IsLongName() {
			frag := lfnFragmentFromEntry(buf)
			if frag.seq&0x40 != 0 {
				fragments = []lfnFragment{frag}
				nextSeq = (frag.seq &^ 0x40) - 1
			} else {
				// Mismatched sequence numbers are logged and are
				// non-fatal; the fragment is still kept.
				if frag.seq != nextSeq {
					v.warnf("fat: LFN sequence mismatch: expected %d, got %d", nextSeq, frag.seq)
				}
				fragments = append([]lfnFragment{frag}, fragments...)
				if nextSeq > 0 {
					nextSeq--
				}
			}
			continue
		}

		if attr.IsLabel() {
			fragments = nil
			continue
		}

		lfn := ""
		if len(fragments) > 0 {
			decoded, err := reassembleLFN(fragments)
			if err == nil {
				lfn = decoded
			}

			var shortName [11]byte
			copy(shortName[:], buf[0:11])
			want := lfnChecksum(shortName)
			for _, f := range fragments {
				if f.checksum != want {
					v.warnf("fat: LFN checksum mismatch for %q: fragment has %02x, short name has %02x", lfn, f.checksum, want)
					break
				}
			}
		}
		fragments = nil

		entry, err := decodeRawDirEntry(buf, lfn, offsets[i])
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}

	return out, nil
}

// readFlatDir reads a fixed-size, non-chained directory region (the
// FAT12/16 root directory).
func (v *Volume) readFlatDir(offset int64, entryCount uint32) ([]DirEntry, error) {
	raws := make([][]byte, 0, entryCount)
	offsets := make([]int64, 0, entryCount)

	for i := uint32(0); i < entryCount; i++ {
		pos := offset + int64(i)*dirEntrySize
		buf := make([]byte, dirEntrySize)
		if err := v.r.ReadExactAt(pos, buf); err != nil {
			return nil, fmt.Errorf("fat: reading root directory entry %d: %w", i, err)
		}
		raws = append(raws, buf)
		offsets = append(offsets, pos)
		if buf[0] == 0x00 {
			break
		}
	}

	return v.decodeDirEntries(raws, offsets)
}

// readChainedDir reads a directory whose contents live in the cluster
// chain starting at startCluster (everything but a FAT12/16 root).
func (v *Volume) readChainedDir(startCluster uint32) ([]DirEntry, error) {
	chain, err := v.ClusterChain(startCluster)
	if err != nil {
		return nil, err
	}

	entriesPerCluster := int(v.Info.SectorsPerCluster) * int(v.Info.SectorSize) / dirEntrySize

	var raws [][]byte
	var offsets []int64

outer:
	for _, c := range chain {
		base := v.ClusterToOffset(c)
		for i := 0; i < entriesPerCluster; i++ {
			pos := base + int64(i)*dirEntrySize
			buf := make([]byte, dirEntrySize)
			if err := v.r.ReadExactAt(pos, buf); err != nil {
				return nil, fmt.Errorf("fat: reading directory entry at cluster %d: %w", c, err)
			}
			raws = append(raws, buf)
			offsets = append(offsets, pos)
			if buf[0] == 0x00 {
				break outer
			}
		}
	}

	return v.decodeDirEntries(raws, offsets)
}

// readRootDir reads the volume's root directory region, branching on
// variant: FAT32 has no fixed root region, only a root start cluster
// like any other directory.
func (v *Volume) readRootDir() ([]DirEntry, error) {
	if v.Info.Variant == FAT32 {
		return v.readChainedDir(v.Info.RootStartCluster)
	}
	return v.readFlatDir(v.Info.RootDirOffset, v.Info.RootEntries)
}

// readDir reads a directory given its DirEntry (must have AttrDir set).
func (v *Volume) readDir(dir DirEntry) ([]DirEntry, error) {
	return v.readChainedDir(dir.StartCluster)
}

// walkEntry pairs a decoded entry with its full relative path.
type walkEntry struct {
	path  string
	entry DirEntry
}

// enumerateAll performs the depth-first recursive enumeration of the
// whole volume, used once by FileIndex construction.
func (v *Volume) enumerateAll() ([]walkEntry, error) {
	root, err := v.readRootDir()
	if err != nil {
		return nil, err
	}
	return v.enumerateDir("", root)
}

func (v *Volume) enumerateDir(prefix string, entries []DirEntry) ([]walkEntry, error) {
	var out []walkEntry

	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}

		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}

		if e.Attr.IsDir() {
			children, err := v.readDir(e)
			if err != nil {
				return nil, err
			}
			sub, err := v.enumerateDir(path, children)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}

		out = append(out, walkEntry{path: path, entry: e})
	}

	return out, nil
}

// normalizePath lower-cases a relative path for FileIndex's
// cluster/path map. Paths are already forward-slash joined by
// enumerateDir.
func normalizePath(path string) string {
	return strings.ToLower(path)
}
