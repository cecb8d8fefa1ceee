// Package istream implements the flat, position-independent bytecode the compiler emits (§4.C):
// an append-only byte buffer addressed by 32-bit offsets, plus the forward-reference fixup
// bookkeeping branches and calls need while their targets are still unknown.
package istream

import (
	"encoding/binary"
	"math"
)

// InvalidOffset is the sentinel written in place of a target operand that is not yet known. No
// successfully compiled module leaves this value in any target-offset slot (§8 invariant 2).
const InvalidOffset uint32 = 0xFFFFFFFF

// Istream is the shared, append-only output buffer. Multiple modules may be compiled into the
// same Istream over time; each compile only ever appends past the buffer's length at the time it
// started (the Environment's mark-point, §4.A).
type Istream struct {
	buf []byte
}

// New returns an empty Istream.
func New() *Istream {
	return &Istream{}
}

// Len returns the current size of the buffer: the offset the next write will land at.
func (s *Istream) Len() uint32 {
	return uint32(len(s.buf))
}

// Truncate discards every byte at or past offset. Used to undo an aborted compile (§4.A mark/reset).
func (s *Istream) Truncate(offset uint32) {
	s.buf = s.buf[:offset]
}

// Bytes exposes the full underlying buffer. Callers must not retain it across a Truncate.
func (s *Istream) Bytes() []byte {
	return s.buf
}

// Slice returns the bytes in [start, end).
func (s *Istream) Slice(start, end uint32) []byte {
	return s.buf[start:end]
}

func (s *Istream) append(b []byte) uint32 {
	offset := s.Len()
	s.buf = append(s.buf, b...)
	return offset
}

// EmitOpcode writes a 4-byte little-endian opcode at the end of the buffer.
func (s *Istream) EmitOpcode(op Opcode) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(op))
	s.append(b[:])
}

// EmitI8 writes a single raw byte.
func (s *Istream) EmitI8(v byte) {
	s.append([]byte{v})
}

// EmitI32 writes a 4-byte little-endian operand.
func (s *Istream) EmitI32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.append(b[:])
}

// EmitI64 writes an 8-byte little-endian operand.
func (s *Istream) EmitI64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.append(b[:])
}

// EmitF32 writes a 4-byte little-endian IEEE-754 operand.
func (s *Istream) EmitF32(v float32) {
	s.EmitI32(math.Float32bits(v))
}

// EmitF64 writes an 8-byte little-endian IEEE-754 operand.
func (s *Istream) EmitF64(v float64) {
	s.EmitI64(math.Float64bits(v))
}

// EmitV128 writes a 16-byte raw operand.
func (s *Istream) EmitV128(v [16]byte) {
	s.append(v[:])
}

// EmitAt overwrites the bytes at offset with data, without changing the buffer's length. Used by
// fixups to patch a previously emitted forward reference.
func (s *Istream) EmitAt(offset uint32, data []byte) {
	copy(s.buf[offset:], data)
}

// patchU32 is a convenience wrapper for the overwhelmingly common case of patching a single u32
// target-offset operand.
func (s *Istream) patchU32(offset uint32, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.EmitAt(offset, b[:])
}
