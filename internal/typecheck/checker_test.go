package typecheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/wasmerr"
)

func TestConstAndBinary(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	require.NoError(t, c.OnBinary(api.ValueTypeI32, api.ValueTypeI32))
	require.NoError(t, c.OnReturn())
	require.True(t, c.AtEnd())
	require.NoError(t, c.OnEnd())
}

func TestTypeMismatch(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	err := c.OnUnary(api.ValueTypeF64, api.ValueTypeF64)
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.TypeMismatch))
}

func TestStackUnderflow(t *testing.T) {
	c := New(0, nil, nil)
	err := c.OnBinary(api.ValueTypeI32, api.ValueTypeI32)
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.TypeMismatch))
}

// TestUnreachableToleratesAnything exercises §4.B "Unreachable tracking": once a block is marked
// unreachable, arbitrary further pops succeed via the `any` pseudo-type.
func TestUnreachableToleratesAnything(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	require.NoError(t, c.OnUnreachable())
	// Even though nothing is on the stack, any number of pops of any type now succeed.
	require.NoError(t, c.OnBinary(api.ValueTypeF64, api.ValueTypeF64))
	require.NoError(t, c.OnDrop())
	require.NoError(t, c.OnEnd())
}

func TestBlockResultMismatchAtEnd(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnBlock(nil, []api.ValueType{api.ValueTypeI32}))
	// forgot to push the i32
	err := c.OnEnd()
	require.Error(t, err)
}

func TestIfElseEnd(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // predicate
	require.NoError(t, c.OnIf(nil, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	require.NoError(t, c.OnElse())
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	require.NoError(t, c.OnEnd())
	require.NoError(t, c.OnReturn())
	require.NoError(t, c.OnEnd())
}

func TestIfWithoutElseRequiresMatchingSignature(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // predicate
	require.NoError(t, c.OnIf(nil, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	err := c.OnEnd()
	require.Error(t, err)
}

func TestBrTargetsLoopParamsNotResults(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // loop param
	require.NoError(t, c.OnLoop([]api.ValueType{api.ValueTypeI32}, nil))
	// loop's branch type is its param (i32), present on stack from entry.
	require.NoError(t, c.OnBr(0))
}

func TestBrDepthOutOfRange(t *testing.T) {
	c := New(0, nil, nil)
	err := c.OnBr(5)
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.InvalidIndex))
}

func TestGlobalSetImmutable(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	err := c.OnGlobalSet(api.ValueTypeI32, false)
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.ImmutableAssignment))
}

func TestLoadRequiresMemory(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	err := c.OnLoad(api.ValueTypeI32, false, 2, 2, false)
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.InvalidIndex))
}

func TestLoadAlignmentMustNotExceedNatural(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	err := c.OnLoad(api.ValueTypeI32, true, 4, 2, false)
	require.Error(t, err)
}

func TestAtomicAlignmentMustEqualNatural(t *testing.T) {
	c := New(0, nil, nil)
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	err := c.OnLoad(api.ValueTypeI32, true, 1, 2, true)
	require.Error(t, err)
}

func TestSelectUnifiesTypes(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI64})
	require.NoError(t, c.OnConst(api.ValueTypeI64))
	require.NoError(t, c.OnConst(api.ValueTypeI64))
	require.NoError(t, c.OnConst(api.ValueTypeI32))
	require.NoError(t, c.OnSelect())
	require.NoError(t, c.OnReturn())
	require.NoError(t, c.OnEnd())
}

func TestCallIndirectPopsTableIndex(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // arg
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // table index
	require.NoError(t, c.OnCallIndirect([]api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnReturn())
	require.NoError(t, c.OnEnd())
}

// TestReturnCallMatchesEnclosingResults exercises OnReturnCall directly: this engine refuses
// tail calls at the binary-reader layer (Unimplemented), so the type checker's own handling is
// only ever reached by a direct caller, not the full compile pipeline.
func TestReturnCallMatchesEnclosingResults(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // callee's single arg
	require.NoError(t, c.OnReturnCall([]api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnEnd())
}

func TestReturnCallResultMismatch(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	err := c.OnReturnCall(nil, []api.ValueType{api.ValueTypeF64})
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.TypeMismatch))
}

func TestReturnCallIndirectPopsTableIndex(t *testing.T) {
	c := New(0, nil, []api.ValueType{api.ValueTypeI32})
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // arg
	require.NoError(t, c.OnConst(api.ValueTypeI32)) // table index
	require.NoError(t, c.OnReturnCallIndirect([]api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnEnd())
}
