package gas

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/istream"
)

// TestInstrumentS5 exercises scenario S5: `(i32.const 1)(i32.const 2)(i32.add)(return)` gets a
// single AddGas prefix priced at 2*cost(i64.const) + cost(i32.add) + cost(return).
func TestInstrumentS5(t *testing.T) {
	ops := []binary.Operator{
		{Opcode: istream.OpI32Const, I32: 1},
		{Opcode: istream.OpI32Const, I32: 2},
		{Opcode: istream.OpI32Add},
		{Opcode: istream.OpReturn},
	}

	exprs, err := Decode(ops)
	require.NoError(t, err)
	out := Instrument(exprs)

	require.Len(t, out, 5)
	require.Equal(t, istream.OpAddGas, out[0].Op)

	want, _ := costOf(istream.OpI64Const)
	want *= 2
	addCost, _ := costOf(istream.OpI32Add)
	retCost, _ := costOf(istream.OpReturn)
	want += addCost + retCost
	require.Equal(t, want, out[0].Cost)

	require.Equal(t, istream.OpI32Const, out[1].Op)
	require.Equal(t, istream.OpI32Const, out[2].Op)
	require.Equal(t, istream.OpI32Add, out[3].Op)
	require.Equal(t, istream.OpReturn, out[4].Op)
}

// TestGasIdempotenceOnZeroCostSegment exercises invariant 6: a function consisting solely of
// zero-cost opcodes receives zero AddGas prefixes.
func TestGasIdempotenceOnZeroCostSegment(t *testing.T) {
	ops := []binary.Operator{{Opcode: istream.OpNop}, {Opcode: istream.OpNop}}

	exprs, err := Decode(ops)
	require.NoError(t, err)
	out := Instrument(exprs)

	for _, e := range out {
		require.NotEqual(t, istream.OpAddGas, e.Op)
	}
}

// TestGasMonotonicityAcrossNestedSegments exercises invariant 5: every straight-line region gets
// exactly one AddGas at its head when its cost is nonzero, including a region nested inside a
// block, and the overall instrumented form never charges less than any one segment's true cost.
func TestGasMonotonicityAcrossNestedSegments(t *testing.T) {
	ops := []binary.Operator{
		{Opcode: istream.OpI32Const, I32: 1},
		{Opcode: istream.OpBlock, Block: binary.BlockType{}},
		{Opcode: istream.OpI32Const, I32: 2},
		{Opcode: istream.OpEnd},
		{Opcode: istream.OpReturn},
	}

	exprs, err := Decode(ops)
	require.NoError(t, err)
	out := Instrument(exprs)

	// Outer segment: AddGas, I32Const, Block{...}
	require.Equal(t, istream.OpAddGas, out[0].Op)
	require.Greater(t, out[0].Cost, int64(0))
	require.Equal(t, istream.OpI32Const, out[1].Op)
	require.Equal(t, istream.OpBlock, out[2].Op)

	// Inner segment, instrumented independently, carries its own AddGas prefix.
	inner := out[2].Block
	require.Equal(t, istream.OpAddGas, inner[0].Op)
	require.Equal(t, istream.OpI32Const, inner[1].Op)

	// Trailing segment after the block: just Return, priced but still correctly bounded.
	require.Equal(t, istream.OpAddGas, out[3].Op)
	require.Equal(t, istream.OpReturn, out[4].Op)
}

// TestDecodeRejectsUnbalancedBlock exercises the structural check guarding decodeSeq: a block
// missing its matching end is malformed, not silently accepted.
func TestDecodeRejectsUnbalancedBlock(t *testing.T) {
	ops := []binary.Operator{
		{Opcode: istream.OpBlock, Block: binary.BlockType{}},
		{Opcode: istream.OpNop},
	}
	_, err := Decode(ops)
	require.Error(t, err)
}

// TestDecodeIfElseEnd exercises the if/then/else/end tree shape scenario S4 relies on at the
// emitter layer; here it is the AST-building side of the same structured-control pattern.
func TestDecodeIfElseEnd(t *testing.T) {
	ops := []binary.Operator{
		{Opcode: istream.OpIf, Block: binary.BlockType{}},
		{Opcode: istream.OpI32Const, I32: 1},
		{Opcode: istream.OpElse},
		{Opcode: istream.OpI32Const, I32: 2},
		{Opcode: istream.OpEnd},
	}
	exprs, err := Decode(ops)
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	require.Equal(t, istream.OpIf, exprs[0].Op)
	require.Len(t, exprs[0].Then, 1)
	require.Len(t, exprs[0].Else, 1)
}
