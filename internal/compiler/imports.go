package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// resolveExport locates a registered module by name and an export within it by field name
// (§4.E Import resolution, steps 1-3).
func (c *Compiler) resolveExport(moduleName, field string, wantKind api.ExternType) (wasm.Export, error) {
	target, ok := c.env.LookupModule(moduleName)
	if !ok {
		return wasm.Export{}, wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: no such module registered", moduleName, field)
	}
	exp, ok := target.Exports[field]
	if !ok {
		return wasm.Export{}, wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: no such export", moduleName, field)
	}
	if exp.Kind != wantKind {
		return wasm.Export{}, wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: expected %s, got %s",
			moduleName, field, api.ExternTypeName(wantKind), api.ExternTypeName(exp.Kind))
	}
	return exp, nil
}

// OnImportFunc resolves a function import: the signature declared by the importer (translated
// via sig_map, already populated by the type section) must structurally equal the target's.
func (c *Compiler) OnImportFunc(moduleName, name string, sigIndex uint32) error {
	exp, err := c.resolveExport(moduleName, name, api.ExternTypeFunc)
	if err != nil {
		return err
	}
	envSig, ok := c.mod.LocalSigToEnv(sigIndex)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "import %q.%q: type index %d out of range", moduleName, name, sigIndex)
	}
	target, _ := c.env.Func(exp.Index)
	want := c.env.Signatures[envSig]
	have := c.env.Signatures[target.SigIndex]
	if !want.Equal(&have) {
		return wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: signature mismatch: want %s, have %s", moduleName, name, &want, &have)
	}
	c.mod.FuncMap = append(c.mod.FuncMap, exp.Index)
	c.mod.NumFuncImports++
	return nil
}

// OnImportTable resolves a table import and enforces the module-singleton rule (§4.E Module
// singletons): a module may import or declare at most one table.
func (c *Compiler) OnImportTable(moduleName, name string, min uint32, max *uint32) error {
	if c.hasTable() {
		return wasmerr.New(wasmerr.DuplicateResource, "module declares a second table via import %q.%q", moduleName, name)
	}
	exp, err := c.resolveExport(moduleName, name, api.ExternTypeTable)
	if err != nil {
		return err
	}
	target, _ := c.env.Table(exp.Index)
	if err := checkLimitsCompatible(target.Min, target.Max, min, max); err != nil {
		return wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: %v", moduleName, name, err)
	}
	idx := exp.Index
	c.mod.TableIndex = &idx
	return nil
}

// OnImportMemory resolves a memory import, likewise enforcing the module-singleton rule.
func (c *Compiler) OnImportMemory(moduleName, name string, min uint32, max *uint32) error {
	if c.hasMemory() {
		return wasmerr.New(wasmerr.DuplicateResource, "module declares a second memory via import %q.%q", moduleName, name)
	}
	exp, err := c.resolveExport(moduleName, name, api.ExternTypeMemory)
	if err != nil {
		return err
	}
	target, _ := c.env.Memory(exp.Index)
	if err := checkLimitsCompatible(target.Min, target.Max, min, max); err != nil {
		return wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: %v", moduleName, name, err)
	}
	idx := exp.Index
	c.mod.MemoryIndex = &idx
	return nil
}

// OnImportGlobal resolves a global import: type and mutability must match exactly.
func (c *Compiler) OnImportGlobal(moduleName, name string, vt api.ValueType, mutable bool) error {
	exp, err := c.resolveExport(moduleName, name, api.ExternTypeGlobal)
	if err != nil {
		return err
	}
	target, _ := c.env.Global(exp.Index)
	if target.Type != vt || target.Mutable != mutable {
		return wasmerr.New(wasmerr.ImportUnresolved, "import %q.%q: global type/mutability mismatch", moduleName, name)
	}
	c.mod.GlobalMap = append(c.mod.GlobalMap, exp.Index)
	c.mod.NumGlobalImports++
	return nil
}

// checkLimitsCompatible enforces §4.E step 4: the actual (already-existing) object's limits must
// be at least as generous as what the importer declared.
func checkLimitsCompatible(actualMin uint32, actualMax *uint32, declaredMin uint32, declaredMax *uint32) error {
	if actualMin < declaredMin {
		return wasmerr.New(wasmerr.ImportUnresolved, "actual minimum %d is smaller than declared minimum %d", actualMin, declaredMin)
	}
	if declaredMax != nil {
		if actualMax == nil {
			return wasmerr.New(wasmerr.ImportUnresolved, "declared a maximum but the actual object has none")
		}
		if *actualMax > *declaredMax {
			return wasmerr.New(wasmerr.ImportUnresolved, "actual maximum %d exceeds declared maximum %d", *actualMax, *declaredMax)
		}
	}
	return nil
}
