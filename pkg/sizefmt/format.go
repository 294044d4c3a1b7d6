// Package sizefmt renders byte counts for human consumption.
package sizefmt

import "github.com/dustin/go-humanize"

// Bytes renders n using IEC-ish binary units (go-humanize's IBytes),
// e.g. "880 KiB" for a standard Amiga floppy image.
func Bytes(n uint32) string {
	return humanize.IBytes(uint64(n))
}

// Comma renders n with thousands separators, for exact byte counts next
// to the human-readable form.
func Comma(n uint32) string {
	return humanize.Comma(int64(n))
}
