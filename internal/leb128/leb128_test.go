package leb128

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeInt32(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 63, -64, 64, -65, 1 << 20, -(1 << 20), 1<<31 - 1, -(1 << 31)} {
		enc := EncodeInt32(v)
		decoded, n, err := LoadInt32(enc)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.Equal(t, uint32(len(enc)), n)

		decodedR, nR, err := DecodeInt32(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, decodedR)
		require.Equal(t, uint32(len(enc)), nR)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40), 1<<63 - 1, -(1 << 63)} {
		enc := EncodeInt64(v)
		decoded, n, err := LoadInt64(enc)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.Equal(t, uint32(len(enc)), n)
	}
}

func TestEncodeDecodeUint32(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 1 << 20, 1<<32 - 1} {
		enc := EncodeUint32(v)
		decoded, n, err := LoadUint32(enc)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.Equal(t, uint32(len(enc)), n)

		decodedR, nR, err := DecodeUint32(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, v, decodedR)
		require.Equal(t, uint32(len(enc)), nR)
	}
}

func TestEncodeDecodeUint64(t *testing.T) {
	for _, v := range []uint64{0, 1, 1 << 40, 1<<64 - 1} {
		enc := EncodeUint64(v)
		decoded, n, err := LoadUint64(enc)
		require.NoError(t, err)
		require.Equal(t, v, decoded)
		require.Equal(t, uint32(len(enc)), n)
	}
}

func TestDecodeUint32_Overflow(t *testing.T) {
	// five bytes encoding a value with bits set above bit 32 is rejected.
	_, _, err := LoadUint32([]byte{0x80, 0x80, 0x80, 0x80, 0x40})
	require.Error(t, err)
}

func TestDecode_UnexpectedEOF(t *testing.T) {
	_, _, err := DecodeUint32(bytes.NewReader([]byte{0x80, 0x80}))
	require.Error(t, err)

	_, _, err = LoadUint32([]byte{0x80, 0x80})
	require.Error(t, err)
}
