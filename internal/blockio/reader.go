package blockio

import (
	"errors"
	"fmt"
	"io"
)

// DefaultSectorSize is assumed for regular image files, and as a
// fallback when a device's physical sector size cannot be determined.
const DefaultSectorSize = 512

// ErrShortRead is returned when the source delivers fewer bytes than
// requested. It is always fatal to the caller.
var ErrShortRead = errors.New("blockio: short read")

// BlockReader is the sole I/O surface every other component phrases its
// reads in terms of: absolute seek, exact-length read, and position
// query against a seekable byte source. The source may be a raw block
// device or a regular file; BlockReader makes no distinction between
// the two.
type BlockReader struct {
	src  io.ReadSeeker
	file File // non-nil only when opened via Open/OpenDevice
	pos  int64
}

// New wraps an already-open seekable source.
func New(src io.ReadSeeker) *BlockReader {
	return &BlockReader{src: src}
}

// OpenDevice opens path (a raw device or image file) and reports the
// device's logical sector size and total size alongside the reader, for
// callers that need to pick sane defaults before a boot sector has been
// parsed.
func OpenDevice(path string) (r *BlockReader, sectorSize int64, totalSize int64, err error) {
	f, err := Open(path)
	if err != nil {
		return nil, 0, 0, err
	}

	sectorSize, totalSize, err = deviceGeometry(f)
	if err != nil {
		f.Close()
		return nil, 0, 0, err
	}

	return &BlockReader{file: f}, sectorSize, totalSize, nil
}

// Close releases the underlying file handle, if any.
func (r *BlockReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Seek moves to an absolute byte offset from the start of the source.
func (r *BlockReader) Seek(offset int64) error {
	r.pos = offset
	return nil
}

// Pos reports the reader's current logical position.
func (r *BlockReader) Pos() int64 {
	return r.pos
}

// ReadExact reads exactly n bytes starting at the reader's current
// position, advancing it by n. Fewer bytes delivered by the source is a
// fatal ErrShortRead.
func (r *BlockReader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.ReadExactAt(r.pos, buf); err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadExactAt reads exactly len(buf) bytes at the given absolute offset
// without moving the reader's logical position.
func (r *BlockReader) ReadExactAt(offset int64, buf []byte) error {
	if r.file != nil {
		n, err := r.file.ReadAt(buf, offset)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("blockio: read at %d: %w", offset, err)
		}
		if n < len(buf) {
			return fmt.Errorf("%w: wanted %d bytes at offset %d, got %d", ErrShortRead, len(buf), offset, n)
		}
		return nil
	}

	if _, err := r.src.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("blockio: seek to %d: %w", offset, err)
	}
	n, err := io.ReadFull(r.src, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: wanted %d bytes at offset %d, got %d", ErrShortRead, len(buf), offset, n)
		}
		return fmt.Errorf("blockio: read at %d: %w", offset, err)
	}
	return nil
}
