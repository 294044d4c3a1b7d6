// Package selector implements the selector.adf control-file engine:
// decoding and rewriting the fixed 999-slot image table that gotekonf's
// host tool edits in place at the mount point.
package selector

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/SukkoPera/gotekonf/internal/fat"
	"github.com/SukkoPera/gotekonf/internal/logger"
	"github.com/SukkoPera/gotekonf/internal/mount"
)

// Engine opens selector.adf as a plain file (not through the
// block-device FAT driver: it is edited the same way any other file on
// the mounted volume is) and exposes the scan/check/remap/set-default
// operations. idx, if non-nil, lets Check and Remap resolve slots
// against the volume's file inventory. Logger is nil by default; set it
// after New to surface repair diagnostics that aren't errors on their
// own (an unresolvable repair candidate, say).
type Engine struct {
	adfPath string
	idx     *fat.FileIndex
	Logger  *logger.Logger
}

// New returns an Engine bound to the selector.adf at adfPath. idx may be
// nil for operations that don't need file resolution (plain Scan).
func New(adfPath string, idx *fat.FileIndex) *Engine {
	return &Engine{adfPath: adfPath, idx: idx}
}

func (e *Engine) warnf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Warnf(format, args...)
	}
}

// seekAssert seeks to want and asserts the file landed exactly there.
// This mirrors the position-assert discipline of the original tool: it
// is a correctness invariant on the fixed-layout table, not a debug
// check, and runs unconditionally.
func seekAssert(f *os.File, want int64) error {
	got, err := f.Seek(want, io.SeekStart)
	if err != nil {
		return fmt.Errorf("selector: seeking to %d: %w", want, err)
	}
	if got != want {
		return fmt.Errorf("%w: seek landed at %d, want %d", ErrRecordInvariant, got, want)
	}
	return nil
}

func readExact(f *os.File, offset int64, n int) ([]byte, error) {
	if err := seekAssert(f, offset); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("selector: reading %d bytes at %d: %w", n, offset, err)
	}
	return buf, nil
}

func writeExact(f *os.File, offset int64, buf []byte) error {
	if err := seekAssert(f, offset); err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("selector: writing %d bytes at %d: %w", len(buf), offset, err)
	}
	return nil
}

func (e *Engine) readStats(f *os.File) (StatsHeader, error) {
	buf, err := readExact(f, StatsOffset, StatsSize)
	if err != nil {
		return StatsHeader{}, err
	}
	return decodeStatsHeader(buf)
}

func (e *Engine) readSlot(f *os.File, n int) (SlotRecord, error) {
	buf, err := readExact(f, slotOffset(n), RecSize)
	if err != nil {
		return SlotRecord{}, err
	}
	return decodeSlotRecord(buf, n)
}

// Scan reads the stats header and all 999 slots.
func (e *Engine) Scan() ([]SlotRecord, StatsHeader, error) {
	f, err := os.Open(e.adfPath)
	if err != nil {
		return nil, StatsHeader{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer f.Close()

	stats, err := e.readStats(f)
	if err != nil {
		return nil, StatsHeader{}, err
	}

	slots := make([]SlotRecord, 0, MaxSlots)
	for n := 1; n <= MaxSlots; n++ {
		s, err := e.readSlot(f, n)
		if err != nil {
			return nil, StatsHeader{}, err
		}
		if e.idx != nil && s.Present {
			e.resolve(&s)
		}
		slots = append(slots, s)
	}

	return slots, stats, nil
}

// resolve fills in a present slot's DiskFileName/HasDiskFile by looking
// up its start cluster in the volume's file index.
func (e *Engine) resolve(s *SlotRecord) {
	entry, ok := e.idx.FileAtCluster(s.StartCluster)
	if !ok {
		return
	}
	s.DiskFileName = entry.Name
	s.HasDiskFile = true
}

// SetDefaultSlot rewrites only the single byte at StatsOffset+2: the remaining seven stats bytes are preserved byte-for-byte.
// Defaulting to an empty slot is rejected with ErrEmptySlotDefault.
func (e *Engine) SetDefaultSlot(n int) error {
	if n < 1 || n > MaxSlots {
		return fmt.Errorf("selector: slot %d out of range 1..%d", n, MaxSlots)
	}

	f, err := os.OpenFile(e.adfPath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer f.Close()

	slot, err := e.readSlot(f, n)
	if err != nil {
		return err
	}
	if !slot.Present {
		return fmt.Errorf("%w: slot %d", ErrEmptySlotDefault, n)
	}

	return writeExact(f, StatsOffset+2, []byte{uint8(n)})
}

// UpdateSlots rewrites all 999 slot records sequentially from RecOffset.
// It is not atomic: a failure partway through leaves the table
// partially rewritten.
func (e *Engine) UpdateSlots(slots []SlotRecord) error {
	if len(slots) != MaxSlots {
		return fmt.Errorf("selector: updateSlots needs exactly %d slots, got %d", MaxSlots, len(slots))
	}

	f, err := os.OpenFile(e.adfPath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer f.Close()

	for i, s := range slots {
		n := i + 1
		buf, err := encodeSlotRecord(s)
		if err != nil {
			return err
		}
		if err := writeExact(f, slotOffset(n), buf); err != nil {
			return err
		}
	}

	return nil
}

// Check resolves every present slot against the volume's file index,
// joining against the real mount-point directory tree when a slot's
// recorded start cluster can no longer be found (a file moved or was
// rewritten since the table was last saved). With fix set, a slot whose
// cluster lookup misses is repaired when the mount search turns up
// exactly one same-named file elsewhere on the volume (DiskFileName and
// StartCluster are reassigned to match), and cleared when it turns up
// none; several candidates are left untouched; a size mismatch on an
// already-resolved slot is corrected in place regardless of cluster
// repair. It returns the (possibly corrected) slots and a single error
// aggregating every problem found across all slots; a clean scan
// returns a nil error.
func (e *Engine) Check(mountRoot string, slots []SlotRecord, fix bool) ([]SlotRecord, error) {
	if e.idx == nil {
		return slots, fmt.Errorf("selector: check requires a file index")
	}

	var problems *multierror.Error
	out := make([]SlotRecord, len(slots))
	copy(out, slots)

	for i := range out {
		s := &out[i]
		if !s.Present {
			continue
		}

		entry, ok := e.idx.FileAtCluster(s.StartCluster)
		if ok {
			s.DiskFileName = entry.Name
			s.HasDiskFile = true

			if entry.Size != s.FileSize {
				problems = multierror.Append(problems, fmt.Errorf(
					"selector: slot %d (%s): size mismatch, table has %d, disk has %d",
					s.Num, s.FileName, s.FileSize, entry.Size))
				if fix {
					s.FileSize = entry.Size
				}
			}
			continue
		}

		candidates, err := mount.FindByName(mountRoot, s.FileName)
		if err != nil {
			problems = multierror.Append(problems, fmt.Errorf(
				"selector: slot %d (%s): searching mount for %q: %w", s.Num, s.FileName, s.FileName, err))
			continue
		}

		problems = multierror.Append(problems, fmt.Errorf(
			"%w: slot %d (%s): start cluster %d not found, %d name candidate(s)",
			ErrFileNotFound, s.Num, s.FileName, s.StartCluster, len(candidates)))

		if !fix {
			continue
		}

		switch len(candidates) {
		case 1:
			rel, err := relIndexPath(mountRoot, candidates[0])
			if err != nil {
				e.warnf("selector: slot %d (%s): %v", s.Num, s.FileName, err)
				continue
			}
			cluster, ok := e.idx.StartingCluster(rel)
			if !ok {
				e.warnf("selector: slot %d (%s): %q found on disk but not in the index", s.Num, s.FileName, rel)
				continue
			}
			s.StartCluster = cluster
			s.DiskFileName = rel
			s.HasDiskFile = true
			if entry, ok := e.idx.FileAtCluster(cluster); ok {
				s.FileSize = entry.Size
			}

		case 0:
			s.Present = false
			s.Cleared = true
			s.HasDiskFile = false
			s.DiskFileName = ""
		}
	}

	return out, problems.ErrorOrNil()
}

// relIndexPath converts an absolute host path under mountRoot, as
// returned by the mount package's directory search, into the
// lowercased, forward-slash relative path key the FAT file index uses.
func relIndexPath(mountRoot, hostPath string) (string, error) {
	rel, err := filepath.Rel(mountRoot, hostPath)
	if err != nil {
		return "", fmt.Errorf("%q is not under mount root %q: %w", hostPath, mountRoot, err)
	}
	return strings.ToLower(filepath.ToSlash(rel)), nil
}

// Remap rebuilds the slot table from scratch: every ".adf" file found
// walking the real mount point except selector.adf itself, in the
// depth-first, lexicographic-per-directory order mount.FindByExtension
// returns, becomes slot 1..N; the remaining slots are cleared. It does
// not write anything; call UpdateSlots with the result to commit.
func (e *Engine) Remap(mountRoot string) ([]SlotRecord, error) {
	if e.idx == nil {
		return nil, fmt.Errorf("selector: remap requires a file index")
	}

	found, err := mount.FindByExtension(mountRoot, ".adf")
	if err != nil {
		return nil, fmt.Errorf("selector: remap: %w", err)
	}

	var paths []string
	for _, p := range found {
		if strings.EqualFold(filepath.Base(p), "selector.adf") {
			continue
		}
		paths = append(paths, p)
	}

	if len(paths) > MaxSlots {
		return nil, fmt.Errorf("selector: %d .adf images found, only %d slots available", len(paths), MaxSlots)
	}

	slots := make([]SlotRecord, MaxSlots)
	for i := range slots {
		slots[i] = SlotRecord{Num: i + 1, Cleared: true}
	}

	for i, p := range paths {
		rel, err := relIndexPath(mountRoot, p)
		if err != nil {
			return nil, fmt.Errorf("selector: remap: %w", err)
		}

		cluster, ok := e.idx.StartingCluster(rel)
		if !ok {
			return nil, fmt.Errorf("selector: remap: %q vanished from the index mid-scan", rel)
		}

		displayName := filepath.Base(p)
		if entry, ok := e.idx.FileAtCluster(cluster); ok {
			displayName = entry.Name
		}

		n := i + 1
		slots[i] = SlotRecord{
			Num:          n,
			Present:      true,
			ShortName:    shortNameFor(displayName),
			StartCluster: cluster,
			FileName:     displayName,
			DiskFileName: rel,
			HasDiskFile:  true,
		}
	}

	return slots, nil
}

// shortNameFor derives a placeholder 8.3 short name from a file's
// display name, for slots Remap creates fresh. The real short name lives
// in the volume's directory entry; this is only ever used as a fallback
// when no 8.3 alias is otherwise available to the caller.
func shortNameFor(name string) string {
	base := strings.ToUpper(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if len(base) > 8 {
		base = base[:8]
	}
	return base
}
