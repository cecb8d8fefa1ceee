// Package leb128 implements LEB128 variable-length integer encoding as used throughout the
// WebAssembly binary format: unsigned for indices and counts, signed for constants and block
// types.
package leb128

import (
	"fmt"
	"io"
	"math/bits"
)

const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

// DecodeUint32 reads an unsigned LEB128-encoded uint32 from r, returning the value and the
// number of bytes consumed.
func DecodeUint32(r io.ByteReader) (ret uint32, bytesRead uint32, err error) {
	v, n, err := decodeUint(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 reads an unsigned LEB128-encoded uint64 from r, returning the value and the
// number of bytes consumed.
func DecodeUint64(r io.ByteReader) (ret uint64, bytesRead uint32, err error) {
	return decodeUint(r, 64)
}

func decodeUint(r io.ByteReader, bitSize int) (ret uint64, bytesRead uint32, err error) {
	var shift int
	for {
		b, e := r.ReadByte()
		if e != nil {
			if e == io.EOF {
				return 0, 0, io.ErrUnexpectedEOF
			}
			return 0, 0, e
		}
		bytesRead++
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift > 0 && b&0x7f == 0 {
				return 0, 0, fmt.Errorf("invalid leb128 encoding: redundant trailing zero byte")
			}
			if bitSize < 64 && ret>>uint(bitSize) != 0 {
				return 0, 0, fmt.Errorf("invalid leb128 encoding: overflows %d bits", bitSize)
			}
			return ret, bytesRead, nil
		}
		shift += 7
		if shift >= maxVarintLen64*7 {
			return 0, 0, fmt.Errorf("invalid leb128 encoding: too many continuation bytes")
		}
	}
}

// DecodeInt32 reads a signed LEB128-encoded int32 from r, returning the value and the number of
// bytes consumed.
func DecodeInt32(r io.ByteReader) (ret int32, bytesRead uint32, err error) {
	v, n, err := decodeInt(r, 32)
	return int32(v), n, err
}

// DecodeInt64 reads a signed LEB128-encoded int64 from r, returning the value and the number of
// bytes consumed.
func DecodeInt64(r io.ByteReader) (ret int64, bytesRead uint32, err error) {
	return decodeInt(r, 64)
}

func decodeInt(r io.ByteReader, bitSize int) (ret int64, bytesRead uint32, err error) {
	var shift int
	var b byte
	for {
		b, err = r.ReadByte()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, 0, err
		}
		bytesRead++
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= maxVarintLen64*7 {
			return 0, 0, fmt.Errorf("invalid leb128 encoding: too many continuation bytes")
		}
	}
	if shift < 64 && b&0x40 != 0 {
		ret |= -1 << shift
	}
	if bitSize < 64 {
		// Verify the value fits in bitSize bits as a signed integer, catching overflow.
		lim := int64(1) << (bitSize - 1)
		if ret < -lim || ret >= lim {
			return 0, 0, fmt.Errorf("invalid leb128 encoding: value overflows int%d", bitSize)
		}
	}
	return ret, bytesRead, nil
}

// LoadUint32 decodes an unsigned LEB128 uint32 directly from a byte slice, without an io.Reader.
// It returns the value and the number of bytes consumed.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint32, err error) {
	v, n, err := loadUint(buf, 32)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned LEB128 uint64 directly from a byte slice.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint32, err error) {
	return loadUint(buf, 64)
}

func loadUint(buf []byte, bitSize int) (ret uint64, bytesRead uint32, err error) {
	var shift int
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if bitSize < 64 && ret>>uint(bitSize) != 0 {
				return 0, 0, fmt.Errorf("invalid leb128 encoding: overflows %d bits", bitSize)
			}
			return ret, uint32(i + 1), nil
		}
		shift += 7
		if shift >= maxVarintLen64*7 {
			return 0, 0, fmt.Errorf("invalid leb128 encoding: too many continuation bytes")
		}
	}
	return 0, 0, io.ErrUnexpectedEOF
}

// LoadInt32 decodes a signed LEB128 int32 directly from a byte slice.
func LoadInt32(buf []byte) (ret int32, bytesRead uint32, err error) {
	v, n, err := loadInt(buf, 32)
	return int32(v), n, err
}

// LoadInt64 decodes a signed LEB128 int64 directly from a byte slice.
func LoadInt64(buf []byte) (ret int64, bytesRead uint32, err error) {
	return loadInt(buf, 64)
}

func loadInt(buf []byte, bitSize int) (ret int64, bytesRead uint32, err error) {
	var shift int
	var b byte
	var i int
	for ; i < len(buf); i++ {
		b = buf[i]
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= maxVarintLen64*7 {
			return 0, 0, fmt.Errorf("invalid leb128 encoding: too many continuation bytes")
		}
	}
	if i == len(buf) && (len(buf) == 0 || buf[len(buf)-1]&0x80 != 0) {
		return 0, 0, io.ErrUnexpectedEOF
	}
	if shift < 64 && b&0x40 != 0 {
		ret |= -1 << shift
	}
	if bitSize < 64 {
		s := int64(1) << (bitSize - 1)
		ret = (ret ^ s) - s
	}
	return ret, uint32(i + 1), nil
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	ret := make([]byte, 0, (bits.Len64(v)/7)+1)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		ret = append(ret, b)
		if v == 0 {
			return ret
		}
	}
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	ret := make([]byte, 0, maxVarintLen64)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			ret = append(ret, b)
			return ret
		}
		ret = append(ret, b|0x80)
	}
}
