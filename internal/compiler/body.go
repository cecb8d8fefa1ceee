package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/typecheck"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// BeginFunctionBody opens a defined function's body: its istream offset is fixed at the current
// write position (patching any `call` fixups that already reference it), and a fresh type
// checker is seeded with its signature (§4.E Function-body prologue).
func (c *Compiler) BeginFunctionBody(index uint32) error {
	envFuncIdx, ok := c.mod.LocalFuncToEnv(c.mod.NumFuncImports + index)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "function body %d: not reserved by function count", index)
	}
	fn, _ := c.env.Func(envFuncIdx)
	fn.Offset = c.em.Istream().Len()
	c.em.ResolveFunc(envFuncIdx, fn.Offset)

	sig := c.env.Signatures[fn.SigIndex]
	c.checker = typecheck.New(int(index), sig.Params, sig.Results)
	c.curFuncIndex = index
	c.curEnvFuncIdx = envFuncIdx
	c.localTypes = append([]api.ValueType{}, sig.Params...)
	c.numParams = uint32(len(sig.Params))
	c.allocaEmitted = false

	// The implicit function body is itself a label: the type checker pushes one (typecheck.New)
	// so that `return` is a Br to the outermost depth, and the emitter must mirror it so the two
	// label stacks stay depth-aligned for every `br`/`br_table` target, including one that
	// unwinds all the way out of the function. Its target is only known once EndFunctionBody
	// emits the epilogue, so it opens as a forward (InvalidOffset) label like a block.
	c.em.PushLabel(istream.InvalidOffset)
	return nil
}

// OnLocalDecl appends one local declaration's type; the binary reader has already expanded
// (count, type) groups into individual calls.
func (c *Compiler) OnLocalDecl(vt api.ValueType) error {
	c.localTypes = append(c.localTypes, vt)
	return nil
}

// finalizeLocals fixes the function's local layout and emits the single InterpAlloca that
// reserves its local-declaration slots, once no further OnLocalDecl calls can arrive (§4.E
// Function-body prologue: "after all local declarations are seen, a single InterpAlloca
// local_count is emitted").
func (c *Compiler) finalizeLocals() {
	fn, _ := c.env.Func(c.curEnvFuncIdx)
	fn.Locals = append([]api.ValueType{}, c.localTypes...)
	fn.NumParams = c.numParams

	c.em.Istream().EmitOpcode(istream.OpInterpAlloca)
	c.em.Istream().EmitI32(uint32(len(c.localTypes)) - c.numParams)
	c.allocaEmitted = true
}

// localSlot computes the stack-relative slot a local.* instruction addresses, taken BEFORE the
// type checker mutates the operand stack for this operator: the locals occupy a contiguous frame
// directly below the operand stack, so local i sits `len(locals) - i` below the current top.
func (c *Compiler) localSlot(localIndex uint32) uint32 {
	return uint32(c.checker.StackSize()) + uint32(len(c.localTypes)) - localIndex
}

// OnOperator validates and emits one function-body instruction (§4.B, §4.C, §6 Istream byte
// layout). The binary reader never forwards the function-terminating `end`; every End reaching
// here closes a nested block, loop or if.
func (c *Compiler) OnOperator(op binary.Operator) error {
	if !c.allocaEmitted {
		c.finalizeLocals()
	}

	out := c.em.Istream()

	switch op.Opcode {
	case istream.OpUnreachable:
		if err := c.checker.OnUnreachable(); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpUnreachable)
		return nil

	case istream.OpNop:
		out.EmitOpcode(istream.OpNop)
		return nil

	case istream.OpBlock:
		if err := c.checker.OnBlock(nil, op.Block.Results); err != nil {
			return err
		}
		c.em.EmitBlock()
		return nil

	case istream.OpLoop:
		if err := c.checker.OnLoop(nil, op.Block.Results); err != nil {
			return err
		}
		c.em.EmitLoop()
		return nil

	case istream.OpIf:
		if err := c.checker.OnIf(nil, op.Block.Results); err != nil {
			return err
		}
		c.em.EmitIf()
		return nil

	case istream.OpElse:
		if err := c.checker.OnElse(); err != nil {
			return err
		}
		c.em.EmitElse()
		return nil

	case istream.OpEnd:
		if err := c.checker.OnEnd(); err != nil {
			return err
		}
		c.em.EmitEnd()
		return nil

	case istream.OpBr:
		drop, keep, err := c.checker.DropKeepTo(op.Depth)
		if err != nil {
			return err
		}
		if err := c.checker.OnBr(op.Depth); err != nil {
			return err
		}
		c.em.EmitDropKeep(drop, keep)
		out.EmitOpcode(istream.OpBr)
		c.em.EmitBrOffset(op.Depth)
		return nil

	case istream.OpBrIf:
		// OnBrIf pops the i32 predicate first: InterpBrUnless consumes it before the branch, so
		// it is not among the values the drop-keep discards.
		if err := c.checker.OnBrIf(op.Depth); err != nil {
			return err
		}
		drop, keep, err := c.checker.DropKeepTo(op.Depth)
		if err != nil {
			return err
		}
		out.EmitOpcode(istream.OpInterpBrUnless)
		skip := out.Len()
		out.EmitI32(istream.InvalidOffset)
		c.em.EmitDropKeep(drop, keep)
		out.EmitOpcode(istream.OpBr)
		c.em.EmitBrOffset(op.Depth)
		c.em.PatchU32(skip, out.Len())
		return nil

	case istream.OpBrTable:
		return c.onBrTable(op)

	case istream.OpReturn:
		depth := c.checker.Depth() - 1
		drop, keep, err := c.checker.DropKeepTo(depth)
		if err != nil {
			return err
		}
		if err := c.checker.OnReturn(); err != nil {
			return err
		}
		// The type checker's drop-keep only reshapes the operand stack above the function
		// label's StackLimit; at runtime the params and locals sit below it on the same
		// physical stack (§4.E Function-body epilogue), so the epilogue drop must also
		// discard all of them.
		drop += uint32(len(c.localTypes))
		c.em.EmitDropKeep(drop, keep)
		out.EmitOpcode(istream.OpReturn)
		return nil

	case istream.OpCall:
		return c.onCall(op)

	case istream.OpCallIndirect:
		return c.onCallIndirect(op)

	case istream.OpDrop:
		if err := c.checker.OnDrop(); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpDrop)
		return nil

	case istream.OpSelect:
		if err := c.checker.OnSelect(); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpSelect)
		return nil

	case istream.OpLocalGet:
		if int(op.LocalIndex) >= len(c.localTypes) {
			return wasmerr.New(wasmerr.InvalidIndex, "local.get: index %d out of range", op.LocalIndex)
		}
		t := c.localTypes[op.LocalIndex]
		slot := c.localSlot(op.LocalIndex)
		if err := c.checker.OnLocalGet(t); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpLocalGet)
		out.EmitI32(slot)
		return nil

	case istream.OpLocalSet:
		if int(op.LocalIndex) >= len(c.localTypes) {
			return wasmerr.New(wasmerr.InvalidIndex, "local.set: index %d out of range", op.LocalIndex)
		}
		t := c.localTypes[op.LocalIndex]
		slot := c.localSlot(op.LocalIndex)
		if err := c.checker.OnLocalSet(t); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpLocalSet)
		out.EmitI32(slot)
		return nil

	case istream.OpLocalTee:
		if int(op.LocalIndex) >= len(c.localTypes) {
			return wasmerr.New(wasmerr.InvalidIndex, "local.tee: index %d out of range", op.LocalIndex)
		}
		t := c.localTypes[op.LocalIndex]
		slot := c.localSlot(op.LocalIndex)
		if err := c.checker.OnLocalTee(t); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpLocalTee)
		out.EmitI32(slot)
		return nil

	case istream.OpGlobalGet:
		envIdx, ok := c.mod.LocalGlobalToEnv(op.GlobalIndex)
		if !ok {
			return wasmerr.New(wasmerr.InvalidIndex, "global.get: index %d out of range", op.GlobalIndex)
		}
		g, _ := c.env.Global(envIdx)
		if err := c.checker.OnGlobalGet(g.Type); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpGlobalGet)
		out.EmitI32(envIdx)
		return nil

	case istream.OpGlobalSet:
		envIdx, ok := c.mod.LocalGlobalToEnv(op.GlobalIndex)
		if !ok {
			return wasmerr.New(wasmerr.InvalidIndex, "global.set: index %d out of range", op.GlobalIndex)
		}
		g, _ := c.env.Global(envIdx)
		if err := c.checker.OnGlobalSet(g.Type, g.Mutable); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpGlobalSet)
		out.EmitI32(envIdx)
		return nil

	case istream.OpMemorySize:
		if err := c.checker.OnMemorySize(c.hasMemory()); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpMemorySize)
		return nil

	case istream.OpMemoryGrow:
		if err := c.checker.OnMemoryGrow(c.hasMemory()); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpMemoryGrow)
		return nil

	case istream.OpI32Const:
		if err := c.checker.OnConst(api.ValueTypeI32); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpI32Const)
		out.EmitI32(uint32(op.I32))
		return nil

	case istream.OpI64Const:
		if err := c.checker.OnConst(api.ValueTypeI64); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpI64Const)
		out.EmitI64(uint64(op.I64))
		return nil

	case istream.OpF32Const:
		if err := c.checker.OnConst(api.ValueTypeF32); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpF32Const)
		out.EmitF32(op.F32)
		return nil

	case istream.OpF64Const:
		if err := c.checker.OnConst(api.ValueTypeF64); err != nil {
			return err
		}
		out.EmitOpcode(istream.OpF64Const)
		out.EmitF64(op.F64)
		return nil
	}

	if info, ok := simpleOps[op.Opcode]; ok {
		var err error
		if info.arity == 1 {
			err = c.checker.OnUnary(info.in, info.out)
		} else {
			err = c.checker.OnBinary(info.in, info.out)
		}
		if err != nil {
			return err
		}
		out.EmitOpcode(op.Opcode)
		return nil
	}

	if loadOps[op.Opcode] {
		t := binary.ValueTypeOf(op.Opcode)
		natAlign := binary.NaturalAlign(op.Opcode)
		if err := c.checker.OnLoad(t, c.hasMemory(), op.Align, natAlign, false); err != nil {
			return err
		}
		out.EmitOpcode(op.Opcode)
		out.EmitI32(*c.mod.MemoryIndex)
		out.EmitI32(op.Offset)
		return nil
	}

	if storeOps[op.Opcode] {
		t := binary.ValueTypeOf(op.Opcode)
		natAlign := binary.NaturalAlign(op.Opcode)
		if err := c.checker.OnStore(t, c.hasMemory(), op.Align, natAlign, false); err != nil {
			return err
		}
		out.EmitOpcode(op.Opcode)
		out.EmitI32(*c.mod.MemoryIndex)
		out.EmitI32(op.Offset)
		return nil
	}

	return wasmerr.New(wasmerr.Unimplemented, "opcode %s is not supported by this engine", op.Opcode)
}

func (c *Compiler) onBrTable(op binary.Operator) error {
	scope := &typecheck.BrTableScope{}
	for _, d := range op.Targets {
		if err := c.checker.OnBrTableTarget(scope, d); err != nil {
			return err
		}
	}
	if err := c.checker.OnBrTableTarget(scope, op.Default); err != nil {
		return err
	}

	// BrTable consumes its i32 index before branching, so the index (still on the type stack
	// here) is taken out of every drop count.
	entries := make([]istream.BrTableEntry, len(op.Targets))
	for i, d := range op.Targets {
		drop, keep, err := c.checker.DropKeepTo(d)
		if err != nil {
			return err
		}
		if drop > 0 {
			drop--
		}
		entries[i] = istream.BrTableEntry{Depth: d, Drop: drop, Keep: keep}
	}
	defDrop, defKeep, err := c.checker.DropKeepTo(op.Default)
	if err != nil {
		return err
	}
	if defDrop > 0 {
		defDrop--
	}
	def := istream.BrTableEntry{Depth: op.Default, Drop: defDrop, Keep: defKeep}

	if err := c.checker.OnBrTableEnd(scope); err != nil {
		return err
	}
	c.em.EmitBrTable(entries, def)
	return nil
}

// onCall resolves a direct call against func_map: a host function is emitted as InterpCallHost
// with its environment index, a defined function as Call with its (possibly still-unresolved)
// istream offset (§4.E Index translation; §6 Istream byte layout).
func (c *Compiler) onCall(op binary.Operator) error {
	envFuncIdx, ok := c.mod.LocalFuncToEnv(op.FuncIndex)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "call: function index %d out of range", op.FuncIndex)
	}
	fn, _ := c.env.Func(envFuncIdx)
	sig := c.env.Signatures[fn.SigIndex]
	if err := c.checker.OnCall(sig.Params, sig.Results); err != nil {
		return err
	}

	out := c.em.Istream()
	if fn.IsHost {
		out.EmitOpcode(istream.OpInterpCallHost)
		out.EmitI32(envFuncIdx)
		return nil
	}
	out.EmitOpcode(istream.OpCall)
	c.em.EmitFuncOffset(envFuncIdx, fn.Offset)
	return nil
}

// onCallIndirect resolves an indirect call: the callee is only known at runtime, so the istream
// carries the table and signature indices rather than an offset.
func (c *Compiler) onCallIndirect(op binary.Operator) error {
	if !c.hasTable() {
		return wasmerr.New(wasmerr.InvalidIndex, "call_indirect: module has no table")
	}
	if op.TableIndex != 0 {
		return wasmerr.New(wasmerr.InvalidIndex, "call_indirect: table index %d out of range", op.TableIndex)
	}
	envSig, ok := c.mod.LocalSigToEnv(op.SigIndex)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "call_indirect: type index %d out of range", op.SigIndex)
	}
	sig := c.env.Signatures[envSig]
	if err := c.checker.OnCallIndirect(sig.Params, sig.Results); err != nil {
		return err
	}

	out := c.em.Istream()
	out.EmitOpcode(istream.OpCallIndirect)
	out.EmitI32(*c.mod.TableIndex)
	out.EmitI32(envSig)
	return nil
}

// EndFunctionBody closes the function: a well-formed body leaves only the implicit function
// label open. Any `br`/`br_table` that unwound all the way out of the function was emitted as a
// jump to this label, so its fixups are patched to land exactly here, right before the epilogue.
// The final drop-keep plus bare Return matches what a `return` at this position would emit (§4.E
// Function-body epilogue; §8 scenario S1).
func (c *Compiler) EndFunctionBody() error {
	if !c.allocaEmitted {
		c.finalizeLocals()
	}
	if !c.checker.AtEnd() {
		return wasmerr.New(wasmerr.MalformedBinary, "function body: unbalanced structured control at end")
	}
	c.em.FixupTopLabel()
	drop, keep, err := c.checker.DropKeepTo(0)
	if err != nil {
		return err
	}
	drop += uint32(len(c.localTypes))
	c.em.EmitDropKeep(drop, keep)
	c.em.Istream().EmitOpcode(istream.OpReturn)
	c.checker = nil
	return nil
}
