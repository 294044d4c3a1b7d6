package selector

import "errors"

// ErrRecordInvariant signals non-zero bytes in a slot's reserved or
// zero-padding regions, fatal when reading a present slot.
var ErrRecordInvariant = errors.New("selector: record invariant violated")

// ErrEmptySlotDefault signals a request to set the default slot to one
// that is not present. Reported to the caller; nothing is written.
var ErrEmptySlotDefault = errors.New("selector: cannot default to an empty slot")

// ErrFileNotFound signals a slot whose resolved file is absent under
// the mount.
var ErrFileNotFound = errors.New("selector: file not found")

// ErrNotFound signals that selector.adf itself could not be located at
// the mount point.
var ErrNotFound = errors.New("selector: selector.adf not found")
