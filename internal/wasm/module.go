package wasm

import "github.com/chainvm/wazc/api"

// Export maps an exported name to its kind and environment-wide index, after translation
// (§4.E Exports).
type Export struct {
	Kind  api.ExternType
	Index Index
}

// ElemSegmentInfo is a staged element-segment write: FuncIndex (an environment-wide function
// index) belongs at Elements[TableOffset] of the table identified by TableIndex. Per the Design
// Notes, this is an (id, offset) index triple rather than a raw pointer into Table.Elements, so
// the table may be resolved lazily at commit time without any reallocation hazard.
type ElemSegmentInfo struct {
	TableIndex  Index
	TableOffset Index
	FuncIndex   Index
}

// DataSegmentInfo is a staged data-segment write: Data belongs at Bytes[MemoryOffset:] of the
// memory identified by MemoryIndex.
type DataSegmentInfo struct {
	MemoryIndex  Index
	MemoryOffset Index
	Data         []byte
}

// Module is the per-module state the compiler builds while parsing one binary (§3 Module).
type Module struct {
	Name string

	// SigMap translates a module-local type index to an environment-wide signature index.
	SigMap []Index
	// FuncMap translates a module-local function index to an environment-wide function index.
	// Imported functions occupy the first NumFuncImports entries.
	FuncMap []Index
	// GlobalMap translates a module-local global index to an environment-wide global index.
	// Imported globals occupy the first NumGlobalImports entries.
	GlobalMap []Index

	NumFuncImports   uint32
	NumGlobalImports uint32

	// TableIndex and MemoryIndex are the environment-wide indices of this module's single table
	// and memory (imported or defined); nil means the module declares none (§4.E Module
	// singletons).
	TableIndex  *Index
	MemoryIndex *Index

	// Start is the module-local function index of the start function, or nil if unset. It must
	// be nullary (§4.E Start function).
	Start *Index

	Exports map[string]Export

	// ElemSegments and DataSegments are staged writes, applied only once the whole module parses
	// without error (§4.E Segment staging).
	ElemSegments []ElemSegmentInfo
	DataSegments []DataSegmentInfo

	// IstreamStart and IstreamEnd bound the region of the shared istream this module's function
	// bodies occupy, recorded on successful compile (§4.G Public Entry).
IstreamStart, IstreamEnd Index
}

// NewModule returns an empty Module ready to receive callbacks for the given name.
func NewModule(name string) *Module {
	return &Module{Name: name, Exports: map[string]Export{}}
}

// LocalFuncToEnv translates a module-local function index to its environment-wide index, or
// (0, false) if out of range.
func (m *Module) LocalFuncToEnv(local Index) (Index, bool) {
	if int(local) >= len(m.FuncMap) {
		return 0, false
	}
	return m.FuncMap[local], true
}

// LocalGlobalToEnv translates a module-local global index to its environment-wide index, or
// (0, false) if out of range.
func (m *Module) LocalGlobalToEnv(local Index) (Index, bool) {
	if int(local) >= len(m.GlobalMap) {
		return 0, false
	}
	return m.GlobalMap[local], true
}

// LocalSigToEnv translates a module-local type index to its environment-wide index, or
// (0, false) if out of range.
func (m *Module) LocalSigToEnv(local Index) (Index, bool) {
	if int(local) >= len(m.SigMap) {
		return 0, false
	}
	return m.SigMap[local], true
}

// IsImportedFunc reports whether the module-local function index refers to an import.
func (m *Module) IsImportedFunc(local Index) bool {
	return local < m.NumFuncImports
}

// IsImportedGlobal reports whether the module-local global index refers to an import.
func (m *Module) IsImportedGlobal(local Index) bool {
	return local < m.NumGlobalImports
}
