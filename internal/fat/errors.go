package fat

import "errors"

// ErrInputFormat signals a malformed boot sector, an unsupported
// variant (exFAT), or any other structural defect the driver cannot make
// sense of. Always fatal.
var ErrInputFormat = errors.New("fat: malformed input")

// ErrChainCorrupt signals a cluster chain that cycles back onto a
// cluster it has already visited, or that re-enters a reserved cluster
// (0 or 1). Always fatal.
var ErrChainCorrupt = errors.New("fat: cluster chain corrupt")

// ErrFileNotFound names a path or cluster that has no entry in the FAT
// inventory. FileIndex lookups do not return it; they report a miss
// with ok=false.
var ErrFileNotFound = errors.New("fat: file not found")
