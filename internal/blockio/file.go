// Package blockio provides the block-reader abstraction (spec component
// C1): positioned, exact-length reads against a seekable byte source,
// whether that source is a raw block device or a regular image file.
package blockio

import (
	"io"
	"os"
)

// File is the minimal surface gotekonf needs from an opened device or
// image file.
type File interface {
	io.ReadCloser
	io.ReaderAt
	Stat() (os.FileInfo, error)
}
