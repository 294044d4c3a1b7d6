package fat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func utf16leBytes(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestReassembleLFN_SingleFragment(t *testing.T) {
	name := "README"
	chars := utf16leBytes(name)
	for len(chars) < 26 {
		if len(chars) == len(utf16leBytes(name)) {
			chars = append(chars, 0, 0) // NUL terminator
		} else {
			chars = append(chars, 0xFF, 0xFF) // padding
		}
	}

	got, err := reassembleLFN([]lfnFragment{{seq: 0x41, chars: chars, checksum: 0}})
	require.NoError(t, err)
	require.Equal(t, name, got)
}

func TestReassembleLFN_MultiFragmentOrdering(t *testing.T) {
	// "abcdefghijklmnopqrstuvwxyz" split into two 13-char fragments; the
	// last-logical fragment carries 0x40 and is delivered first on disk;
	// reassembleLFN takes the fragments lowest sequence number first.
	full := "abcdefghijklmnopqrstuvwxyz"
	first13 := utf16leBytes(full[:13])
	last13 := utf16leBytes(full[13:])
	last13 = append(last13, 0, 0) // NUL-terminate the final fragment

	fragments := []lfnFragment{
		{seq: 0x01, chars: first13},
		{seq: 0x42, chars: last13},
	}

	got, err := reassembleLFN(fragments)
	require.NoError(t, err)
	require.Equal(t, full, got)
}

func TestLFNChecksum_MatchesShortName(t *testing.T) {
	var short [11]byte
	copy(short[:], "HELLO   TXT")

	sum := lfnChecksum(short)

	// 0xF1 is the rolling hash of "HELLO   TXT" worked out byte by byte.
	require.Equal(t, uint8(0xF1), sum)

	// The checksum is a pure function of the short name bytes; recomputing
	// it must be idempotent and deterministic.
	require.Equal(t, sum, lfnChecksum(short))
}

func TestStripTrailingFFFF_CodeUnitGranularity(t *testing.T) {
	// A single 0xFF data byte adjacent to a real 0xFFFF pair must not be
	// consumed as part of the stripped run; byte-level stripping would
	// get this wrong.
	units := []byte{0x41, 0x00, 0x41, 0xFF, 0xFF, 0xFF}
	got := stripTrailingFFFF(units)
	require.Equal(t, []byte{0x41, 0x00, 0x41, 0xFF}, got)
}
