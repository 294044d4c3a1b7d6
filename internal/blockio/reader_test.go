package blockio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SukkoPera/gotekonf/internal/blockio"
)

func TestBlockReader_ReadExact(t *testing.T) {
	data := []byte("0123456789ABCDEFGHIJ")
	r := blockio.New(bytes.NewReader(data))

	require.NoError(t, r.Seek(10))
	got, err := r.ReadExact(5)
	require.NoError(t, err)
	require.Equal(t, []byte("ABCDE"), got)
	require.Equal(t, int64(15), r.Pos())
}

func TestBlockReader_ReadExactAt_ShortRead(t *testing.T) {
	data := []byte("short")
	r := blockio.New(bytes.NewReader(data))

	buf := make([]byte, 10)
	err := r.ReadExactAt(0, buf)
	require.ErrorIs(t, err, blockio.ErrShortRead)
}

func TestBlockReader_ReadExactAt_PastEnd(t *testing.T) {
	data := []byte("0123456789")
	r := blockio.New(bytes.NewReader(data))

	buf := make([]byte, 4)
	err := r.ReadExactAt(20, buf)
	require.ErrorIs(t, err, blockio.ErrShortRead)
}

func TestBlockReader_IndependentOfSeekState(t *testing.T) {
	data := []byte("0123456789ABCDEFGHIJ")
	r := blockio.New(bytes.NewReader(data))

	require.NoError(t, r.Seek(5))

	buf := make([]byte, 3)
	require.NoError(t, r.ReadExactAt(0, buf))
	require.Equal(t, []byte("012"), buf)

	// ReadExactAt must not disturb Pos tracked by Seek/ReadExact.
	require.Equal(t, int64(5), r.Pos())
}
