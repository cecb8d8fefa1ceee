package compiler

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainvm/wazc/api"
	wasmbin "github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

func readU32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func uint32Ptr(v uint32) *uint32 { return &v }

// TestCompileS1ConstReturn exercises scenario S1: `(func (result i32) i32.const 42)` compiles to
// InterpAlloca 0, I32Const 42, an empty drop-keep, Return.
func TestCompileS1ConstReturn(t *testing.T) {
	env := wasm.NewEnvironment()
	mod := wasm.NewModule("m")
	c := newCompiler(env, mod, Options{Features: api.FeaturesMVP})

	require.NoError(t, c.OnTypeCount(1))
	require.NoError(t, c.OnType(0, nil, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnFunctionCount(1))
	require.NoError(t, c.OnFunction(0, 0))

	require.NoError(t, c.BeginFunctionBody(0))
	require.NoError(t, c.OnOperator(wasmbin.Operator{Opcode: istream.OpI32Const, I32: 42}))
	require.NoError(t, c.EndFunctionBody())
	require.NoError(t, c.EndModule())

	b := env.Istream.Bytes()
	require.Equal(t, istream.OpInterpAlloca, istream.Opcode(readU32(b[0:4])))
	require.Equal(t, uint32(0), readU32(b[4:8]))
	require.Equal(t, istream.OpI32Const, istream.Opcode(readU32(b[8:12])))
	require.Equal(t, uint32(42), readU32(b[12:16]))
	// drop-keep(0,1) emits nothing: the single i32 on the stack is exactly the kept result.
	require.Equal(t, istream.OpReturn, istream.Opcode(readU32(b[16:20])))
	require.Equal(t, uint32(20), uint32(len(b)))
}

// TestCompileS2LocalGetAdd exercises scenario S2: `(func (param i32) (result i32) local.get 0
// local.get 0 i32.add)`. Slot addressing follows this compiler's stack-relative formula (§4.C
// Design Notes): slot = operand-stack size + local count - local index, taken before the
// operator's own stack effect.
func TestCompileS2LocalGetAdd(t *testing.T) {
	env := wasm.NewEnvironment()
	mod := wasm.NewModule("m")
	c := newCompiler(env, mod, Options{})

	require.NoError(t, c.OnTypeCount(1))
	require.NoError(t, c.OnType(0, []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}))
	require.NoError(t, c.OnFunctionCount(1))
	require.NoError(t, c.OnFunction(0, 0))

	require.NoError(t, c.BeginFunctionBody(0))
	require.NoError(t, c.OnOperator(wasmbin.Operator{Opcode: istream.OpLocalGet, LocalIndex: 0}))
	require.NoError(t, c.OnOperator(wasmbin.Operator{Opcode: istream.OpLocalGet, LocalIndex: 0}))
	require.NoError(t, c.OnOperator(wasmbin.Operator{Opcode: istream.OpI32Add}))
	require.NoError(t, c.EndFunctionBody())
	require.NoError(t, c.EndModule())

	b := env.Istream.Bytes()
	require.Equal(t, istream.OpInterpAlloca, istream.Opcode(readU32(b[0:4])))
	require.Equal(t, uint32(0), readU32(b[4:8]))

	require.Equal(t, istream.OpLocalGet, istream.Opcode(readU32(b[8:12])))
	require.Equal(t, uint32(1), readU32(b[12:16]))

	require.Equal(t, istream.OpLocalGet, istream.Opcode(readU32(b[16:20])))
	require.Equal(t, uint32(2), readU32(b[20:24]))

	require.Equal(t, istream.OpI32Add, istream.Opcode(readU32(b[24:28])))
	// the epilogue drop-keep also discards the one param slot beneath the kept result (§4.E).
	require.Equal(t, istream.OpInterpDropKeep, istream.Opcode(readU32(b[28:32])))
	require.Equal(t, uint32(1), readU32(b[32:36]))
	require.Equal(t, uint32(1), readU32(b[36:40]))
	require.Equal(t, istream.OpReturn, istream.Opcode(readU32(b[40:44])))
	require.Equal(t, uint32(44), uint32(len(b)))
}

// TestImportMemoryLimitsCompatible exercises scenario S3's success path: an import whose
// declared limits the actual memory satisfies is accepted (§4.E step 4).
func TestImportMemoryLimitsCompatible(t *testing.T) {
	env := wasm.NewEnvironment()
	target := wasm.NewModule("env")
	idx := env.AppendMemory(&wasm.Memory{Min: 2, Max: uint32Ptr(10), Bytes: make([]byte, 2*wasm.PageSize)})
	target.Exports["memory"] = wasm.Export{Kind: api.ExternTypeMemory, Index: idx}
	require.NoError(t, env.RegisterModule(target))

	mod := wasm.NewModule("importer")
	c := newCompiler(env, mod, Options{})
	require.NoError(t, c.OnImportMemory("env", "memory", 1, uint32Ptr(10)))
	require.NotNil(t, mod.MemoryIndex)
	require.Equal(t, idx, *mod.MemoryIndex)
}

// TestImportMemoryLimitsIncompatible exercises S3's failure path: the actual memory's minimum is
// smaller than what the importer declared.
func TestImportMemoryLimitsIncompatible(t *testing.T) {
	env := wasm.NewEnvironment()
	target := wasm.NewModule("env")
	idx := env.AppendMemory(&wasm.Memory{Min: 1, Max: nil, Bytes: make([]byte, wasm.PageSize)})
	target.Exports["memory"] = wasm.Export{Kind: api.ExternTypeMemory, Index: idx}
	require.NoError(t, env.RegisterModule(target))

	mod := wasm.NewModule("importer")
	c := newCompiler(env, mod, Options{})
	err := c.OnImportMemory("env", "memory", 5, nil)
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.ImportUnresolved))
	require.Nil(t, mod.MemoryIndex)
}

// TestGlobalSetImmutableRejectedRollsBackEnv exercises scenario S6: global.set on an immutable
// global fails with ImmutableAssignment, and resetting to the pre-call mark leaves the
// environment exactly as it was (§8 invariant 1).
func TestGlobalSetImmutableRejectedRollsBackEnv(t *testing.T) {
	env := wasm.NewEnvironment()
	mark := env.Mark()

	mod := wasm.NewModule("m")
	c := newCompiler(env, mod, Options{})

	require.NoError(t, c.OnGlobal(0, api.ValueTypeI32, false, wasmbin.InitExpr{
		Kind: wasmbin.InitExprConst, ValueType: api.ValueTypeI32, I32: 7,
	}))
	require.NoError(t, c.OnTypeCount(1))
	require.NoError(t, c.OnType(0, nil, nil))
	require.NoError(t, c.OnFunctionCount(1))
	require.NoError(t, c.OnFunction(0, 0))

	require.NoError(t, c.BeginFunctionBody(0))
	require.NoError(t, c.OnOperator(wasmbin.Operator{Opcode: istream.OpI32Const, I32: 1}))
	err := c.OnOperator(wasmbin.Operator{Opcode: istream.OpGlobalSet, GlobalIndex: 0})
	require.Error(t, err)
	require.True(t, wasmerr.Is(err, wasmerr.ImmutableAssignment))

	env.Reset(mark)
	require.Equal(t, mark, env.Mark())
}

// TestFuncCountReservesBeforeBody exercises the function-forward-reference rule (§4.E Index
// translation): a call to a function declared later in the same module resolves immediately
// because OnFunctionCount reserves every defined function's environment slot up front.
func TestFuncCountReservesBeforeBody(t *testing.T) {
	env := wasm.NewEnvironment()
	mod := wasm.NewModule("m")
	c := newCompiler(env, mod, Options{})

	require.NoError(t, c.OnTypeCount(1))
	require.NoError(t, c.OnType(0, nil, nil))
	require.NoError(t, c.OnFunctionCount(2))
	require.NoError(t, c.OnFunction(0, 0))
	require.NoError(t, c.OnFunction(1, 0))

	require.NoError(t, c.BeginFunctionBody(0))
	require.NoError(t, c.OnOperator(wasmbin.Operator{Opcode: istream.OpCall, FuncIndex: 1}))
	require.NoError(t, c.EndFunctionBody())

	require.Len(t, c.em.PendingFuncFixups(), 1)

	require.NoError(t, c.BeginFunctionBody(1))
	require.NoError(t, c.EndFunctionBody())

	require.Empty(t, c.em.PendingFuncFixups())
	require.NoError(t, c.EndModule())
}
