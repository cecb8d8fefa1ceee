package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// OnExportCount is a no-op; duplicate-name rejection happens in OnExport.
func (c *Compiler) OnExportCount(n uint32) error {
	return nil
}

// OnExport rewrites item_index through the appropriate translation table for its kind and
// rejects a duplicate name (§4.E Exports).
func (c *Compiler) OnExport(name string, kind api.ExternType, index uint32) error {
	if _, dup := c.mod.Exports[name]; dup {
		return wasmerr.New(wasmerr.DuplicateExport, "export %q declared more than once", name)
	}

	var envIdx wasm.Index
	switch kind {
	case api.ExternTypeFunc:
		idx, ok := c.mod.LocalFuncToEnv(index)
		if !ok {
			return wasmerr.New(wasmerr.InvalidIndex, "export %q: function index %d out of range", name, index)
		}
		envIdx = idx
	case api.ExternTypeGlobal:
		idx, ok := c.mod.LocalGlobalToEnv(index)
		if !ok {
			return wasmerr.New(wasmerr.InvalidIndex, "export %q: global index %d out of range", name, index)
		}
		if !c.features.MutableGlobals {
			g, _ := c.env.Global(idx)
			if g.Mutable {
				return wasmerr.New(wasmerr.FeatureDisabled, "export %q: exporting a mutable global requires the MutableGlobals feature", name)
			}
		}
		envIdx = idx
	case api.ExternTypeTable:
		if !c.hasTable() {
			return wasmerr.New(wasmerr.InvalidIndex, "export %q: module has no table", name)
		}
		envIdx = *c.mod.TableIndex
	case api.ExternTypeMemory:
		if !c.hasMemory() {
			return wasmerr.New(wasmerr.InvalidIndex, "export %q: module has no memory", name)
		}
		envIdx = *c.mod.MemoryIndex
	default:
		return wasmerr.New(wasmerr.MalformedBinary, "export %q: unknown kind %#x", name, kind)
	}

	c.mod.Exports[name] = wasm.Export{Kind: kind, Index: envIdx}
	return nil
}

// OnStart validates the start function is nullary (§4.E Start function).
func (c *Compiler) OnStart(index uint32) error {
	envIdx, ok := c.mod.LocalFuncToEnv(index)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "start: function index %d out of range", index)
	}
	fn, _ := c.env.Func(envIdx)
	sig := c.env.Signatures[fn.SigIndex]
	if len(sig.Params) != 0 || len(sig.Results) != 0 {
		return wasmerr.New(wasmerr.MalformedBinary, "start function must be nullary")
	}
	local := index
	c.mod.Start = &local
	return nil
}
