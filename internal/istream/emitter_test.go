package istream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitDropKeep(t *testing.T) {
	tests := []struct {
		name       string
		drop, keep uint32
		expect     []byte
	}{
		{name: "no-op", drop: 0, keep: 5, expect: nil},
		{name: "bare drop", drop: 1, keep: 0, expect: opcodeBytes(OpDrop)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := New()
			e := NewEmitter(out)
			e.EmitDropKeep(tc.drop, tc.keep)
			require.Equal(t, tc.expect, out.Bytes())
		})
	}
}

func TestEmitDropKeep_General(t *testing.T) {
	out := New()
	e := NewEmitter(out)
	e.EmitDropKeep(3, 2)
	require.Equal(t, OpInterpDropKeep, readOpcode(out.Bytes()[0:4]))
	require.Equal(t, uint32(3), readU32(out.Bytes()[4:8]))
	require.Equal(t, uint32(2), readU32(out.Bytes()[8:12]))
}

// TestIfElseEnd exercises scenario S4: if/else with both branches resolved at `end`.
func TestIfElseEnd(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	e.EmitIf()
	out.EmitOpcode(OpI32Const)
	out.EmitI32(1)
	e.EmitElse()
	out.EmitOpcode(OpI32Const)
	out.EmitI32(2)
	e.EmitEnd()

	require.Equal(t, uint32(0), e.Depth())

	b := out.Bytes()
	require.Equal(t, OpInterpBrUnless, readOpcode(b[0:4]))
	brUnlessTarget := readU32(b[4:8])

	require.Equal(t, OpI32Const, readOpcode(b[8:12]))
	require.Equal(t, uint32(1), readU32(b[12:16]))

	require.Equal(t, OpBr, readOpcode(b[16:20]))
	brTarget := readU32(b[20:24])

	// else arm starts right after the unconditional Br's target operand.
	require.Equal(t, uint32(24), brUnlessTarget)
	require.Equal(t, OpI32Const, readOpcode(b[24:28]))
	require.Equal(t, uint32(2), readU32(b[28:32]))

	// end lands right after the else arm.
	require.Equal(t, uint32(32), brTarget)
	require.Equal(t, uint32(32), out.Len())
}

// TestIfWithoutElse checks the InterpBrUnless fixup is patched at `end` when there is no else.
func TestIfWithoutElse(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	e.EmitIf()
	out.EmitOpcode(OpNop)
	e.EmitEnd()

	b := out.Bytes()
	require.Equal(t, OpInterpBrUnless, readOpcode(b[0:4]))
	require.Equal(t, uint32(12), readU32(b[4:8]))
	require.Equal(t, uint32(12), out.Len())
}

func TestLoopBranchesBackward(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	e.EmitLoop()
	headerOffset := e.TopLabel().offset
	out.EmitOpcode(OpNop)
	out.EmitOpcode(OpBr)
	e.EmitBrOffset(0) // depth 0 targets the loop itself: a backward, already-known offset.
	e.EmitEnd()

	b := out.Bytes()
	require.Equal(t, headerOffset, readU32(b[8:12]))
}

func TestBlockForwardBranch(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	e.EmitBlock()
	out.EmitOpcode(OpBrIf)
	e.EmitBrOffset(0)
	out.EmitOpcode(OpNop)
	e.EmitEnd()

	b := out.Bytes()
	require.Equal(t, uint32(12), out.Len())
	require.Equal(t, uint32(12), readU32(b[4:8])) // patched to the end position
}

func TestNestedBlockDepth(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	e.EmitBlock() // depth 1 from innermost once the next block opens
	e.EmitBlock() // depth 0
	out.EmitOpcode(OpBr)
	e.EmitBrOffset(1) // targets the outer block
	e.EmitEnd()       // close inner
	innerEnd := out.Len()
	out.EmitOpcode(OpNop) // code after the inner block, still inside the outer one
	e.EmitEnd()           // close outer
	outerEnd := out.Len()

	b := out.Bytes()
	target := readU32(b[4:8])
	require.Equal(t, outerEnd, target)
	require.NotEqual(t, innerEnd, outerEnd)
}

func TestFuncOffsetFixup(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	out.EmitOpcode(OpCall)
	e.EmitFuncOffset(3, InvalidOffset)
	require.Len(t, e.PendingFuncFixups(), 1)

	e.ResolveFunc(3, 0xABCD)
	require.Empty(t, e.PendingFuncFixups())
	require.Equal(t, uint32(0xABCD), readU32(out.Bytes()[4:8]))
}

func TestBrTable(t *testing.T) {
	out := New()
	e := NewEmitter(out)

	e.EmitBlock() // depth 1
	e.EmitBlock() // depth 0
	e.EmitBrTable(
		[]BrTableEntry{{Depth: 0, Drop: 0, Keep: 1}},
		BrTableEntry{Depth: 1, Drop: 1, Keep: 0},
	)
	e.EmitEnd()
	innerEnd := out.Len()
	e.EmitEnd()
	outerEnd := out.Len()

	b := out.Bytes()
	require.Equal(t, OpBrTable, readOpcode(b[0:4]))
	require.Equal(t, uint32(1), readU32(b[4:8])) // 1 explicit target
	dataOffset := readU32(b[8:12])
	require.Equal(t, OpInterpData, readOpcode(b[12:16]))
	require.Equal(t, uint32(2*12), readU32(b[16:20]))
	require.Equal(t, uint32(20), dataOffset)

	// first entry: depth 0 -> patched to inner end.
	require.Equal(t, innerEnd, readU32(b[20:24]))
	require.Equal(t, uint32(0), readU32(b[24:28]))
	require.Equal(t, uint32(1), readU32(b[28:32]))

	// default entry: depth 1 -> patched to outer end.
	require.Equal(t, outerEnd, readU32(b[32:36]))
	require.Equal(t, uint32(1), readU32(b[36:40]))
	require.Equal(t, uint32(0), readU32(b[40:44]))
}

func opcodeBytes(op Opcode) []byte {
	out := New()
	out.EmitOpcode(op)
	return out.Bytes()
}

func readOpcode(b []byte) Opcode {
	return Opcode(readU32(b))
}

func readU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
