package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainvm/wazc/api"
)

func TestAppendSignatureNoDedup(t *testing.T) {
	e := NewEnvironment()
	ft := FunctionType{Params: []api.ValueType{api.ValueTypeI32}, Results: []api.ValueType{api.ValueTypeI32}}
	i0 := e.AppendSignature(ft)
	i1 := e.AppendSignature(ft)
	require.Equal(t, Index(0), i0)
	require.Equal(t, Index(1), i1)
	require.Equal(t, Index(2), e.SigCount())
}

func TestFuncTableMemoryGlobalRoundTrip(t *testing.T) {
	e := NewEnvironment()

	fi := e.AppendFunction(&Function{SigIndex: 0})
	fn, ok := e.Func(fi)
	require.True(t, ok)
	require.Same(t, e.Functions[0], fn)

	_, ok = e.Func(99)
	require.False(t, ok)

	ti := e.AppendTable(&Table{Min: 1})
	tb, ok := e.Table(ti)
	require.True(t, ok)
	require.EqualValues(t, 1, tb.Min)

	mi := e.AppendMemory(&Memory{Min: 2})
	mem, ok := e.Memory(mi)
	require.True(t, ok)
	require.EqualValues(t, 2, mem.Min)

	gi := e.AppendGlobal(&Global{Type: api.ValueTypeI64, Mutable: true})
	g, ok := e.Global(gi)
	require.True(t, ok)
	require.True(t, g.Mutable)
}

func TestRegisterModuleRejectsDuplicateName(t *testing.T) {
	e := NewEnvironment()
	require.NoError(t, e.RegisterModule(NewModule("env")))
	err := e.RegisterModule(NewModule("env"))
	require.Error(t, err)

	m, ok := e.LookupModule("env")
	require.True(t, ok)
	require.Equal(t, "env", m.Name)

	_, ok = e.LookupModule("missing")
	require.False(t, ok)
}

// TestMarkResetRollsBackEverything exercises §4.A mark/reset purity: a partially applied compile
// that mutates every owned store, including the istream, is fully undone by Reset.
func TestMarkResetRollsBackEverything(t *testing.T) {
	e := NewEnvironment()
	e.AppendSignature(FunctionType{})
	e.AppendFunction(&Function{})
	e.AppendTable(&Table{})
	e.AppendMemory(&Memory{})
	e.AppendGlobal(&Global{})
	e.Istream.EmitI32(1)

	mark := e.Mark()

	e.AppendSignature(FunctionType{Params: []api.ValueType{api.ValueTypeI32}})
	e.AppendFunction(&Function{SigIndex: 1})
	e.AppendTable(&Table{Min: 5})
	e.AppendMemory(&Memory{Min: 5})
	e.AppendGlobal(&Global{Type: api.ValueTypeF32})
	e.Istream.EmitI32(2)

	require.EqualValues(t, 2, e.SigCount())
	require.EqualValues(t, 2, e.FuncCount())

	e.Reset(mark)

	require.EqualValues(t, 1, e.SigCount())
	require.EqualValues(t, 1, e.FuncCount())
	require.Len(t, e.Tables, 1)
	require.Len(t, e.Memories, 1)
	require.Len(t, e.Globals, 1)
	require.EqualValues(t, 4, e.Istream.Len())
}
