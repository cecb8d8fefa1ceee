package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// OnFunctionCount reserves n environment-wide function slots, mirroring OnTypeCount: a `call` to
// a function declared later in this same module must resolve through func_map immediately, even
// though its body has not been emitted yet (§4.E Index translation).
func (c *Compiler) OnFunctionCount(n uint32) error {
	for i := uint32(0); i < n; i++ {
		idx := c.env.AppendFunction(&wasm.Function{Offset: wasm.InvalidOffset})
		c.mod.FuncMap = append(c.mod.FuncMap, idx)
	}
	return nil
}

// OnFunction records the signature for module-local defined-function index.
func (c *Compiler) OnFunction(index uint32, sigIndex uint32) error {
	envFuncIdx, ok := c.mod.LocalFuncToEnv(c.mod.NumFuncImports + index)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "function %d: not reserved by function count", index)
	}
	envSig, ok := c.mod.LocalSigToEnv(sigIndex)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "function %d: type index %d out of range", index, sigIndex)
	}
	fn, _ := c.env.Func(envFuncIdx)
	fn.SigIndex = envSig
	return nil
}

// OnTable declares this module's own table, subject to the same singleton rule as an imported
// one (§4.E Module singletons).
func (c *Compiler) OnTable(min uint32, max *uint32) error {
	if c.hasTable() {
		return wasmerr.New(wasmerr.DuplicateResource, "module declares a second table")
	}
	elems := make([]wasm.Index, min)
	for i := range elems {
		elems[i] = wasm.Index(wasm.InvalidOffset)
	}
	idx := c.env.AppendTable(&wasm.Table{Min: min, Max: max, Elements: elems})
	c.mod.TableIndex = &idx
	return nil
}

// OnMemory declares this module's own memory.
func (c *Compiler) OnMemory(min uint32, max *uint32) error {
	if c.hasMemory() {
		return wasmerr.New(wasmerr.DuplicateResource, "module declares a second memory")
	}
	idx := c.env.AppendMemory(&wasm.Memory{Min: min, Max: max, Bytes: make([]byte, min*wasm.PageSize)})
	c.mod.MemoryIndex = &idx
	return nil
}

// OnGlobal declares and defines one of this module's own globals; its initializer must be a
// legal constant expression (§4.E Init expressions).
func (c *Compiler) OnGlobal(index uint32, vt api.ValueType, mutable bool, init binary.InitExpr) error {
	value, err := c.evalInitExpr(init, vt)
	if err != nil {
		return err
	}
	idx := c.env.AppendGlobal(&wasm.Global{Type: vt, Mutable: mutable, Value: value})
	c.mod.GlobalMap = append(c.mod.GlobalMap, idx)
	return nil
}

// evalInitExpr validates and evaluates a constant initializer against its expected type (§4.E
// Init expressions): either a matching const form, or a global.get of an imported immutable
// global of matching type.
func (c *Compiler) evalInitExpr(init binary.InitExpr, want api.ValueType) (uint64, error) {
	switch init.Kind {
	case binary.InitExprConst:
		if init.ValueType != want {
			return 0, wasmerr.New(wasmerr.InitExprIllegal, "initializer type %s does not match declared type %s",
				api.ValueTypeName(init.ValueType), api.ValueTypeName(want))
		}
		switch want {
		case api.ValueTypeI32:
			return api.EncodeI32(init.I32), nil
		case api.ValueTypeI64:
			return api.EncodeI64(init.I64), nil
		case api.ValueTypeF32:
			return api.EncodeF32(init.F32), nil
		case api.ValueTypeF64:
			return api.EncodeF64(init.F64), nil
		default:
			return 0, wasmerr.New(wasmerr.InitExprIllegal, "unsupported constant initializer type %s", api.ValueTypeName(want))
		}
	case binary.InitExprGlobalGet:
		if !c.mod.IsImportedGlobal(init.GlobalIndex) {
			return 0, wasmerr.New(wasmerr.InitExprIllegal, "global.get in an initializer must reference an imported global")
		}
		envIdx, ok := c.mod.LocalGlobalToEnv(init.GlobalIndex)
		if !ok {
			return 0, wasmerr.New(wasmerr.InvalidIndex, "global.get: index %d out of range", init.GlobalIndex)
		}
		g, _ := c.env.Global(envIdx)
		if g.Mutable {
			return 0, wasmerr.New(wasmerr.InitExprIllegal, "global.get in an initializer must reference an immutable global")
		}
		if g.Type != want {
			return 0, wasmerr.New(wasmerr.InitExprIllegal, "global.get initializer type %s does not match declared type %s",
				api.ValueTypeName(g.Type), api.ValueTypeName(want))
		}
		return g.Value, nil
	default:
		return 0, wasmerr.New(wasmerr.InitExprIllegal, "unrecognized initializer form")
	}
}
