package wasm

import (
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// Environment is the shared, long-lived store every compiled module is linked into (§4.A
// Environment / Component A). Signatures, functions, tables, memories and globals all live in
// flat, append-only slices indexed by environment-wide Index; a module's local index spaces are
// translated into these via its SigMap/FuncMap/GlobalMap.
type Environment struct {
	Signatures []FunctionType
	Functions  []*Function
	Tables     []*Table
	Memories   []*Memory
	Globals    []*Global

	Modules map[string]*Module

	Istream *istream.Istream
}

// NewEnvironment returns an empty Environment with its own istream.
func NewEnvironment() *Environment {
	return &Environment{
		Modules: map[string]*Module{},
		Istream: istream.New(),
	}
}

// AppendSignature appends ft and returns its new environment-wide index. Signatures are not
// deduplicated structurally: each OnTypeCount call allocates a contiguous run of fresh indices,
// so sig_map[i] = sigCount()+i always holds for a module currently being read (§4.E Exports note
// on index arithmetic).
func (e *Environment) AppendSignature(ft FunctionType) Index {
	e.Signatures = append(e.Signatures, ft)
	return Index(len(e.Signatures) - 1)
}

func (e *Environment) SigCount() Index { return Index(len(e.Signatures)) }

// AppendFunction appends fn and returns its new environment-wide index.
func (e *Environment) AppendFunction(fn *Function) Index {
	e.Functions = append(e.Functions, fn)
	return Index(len(e.Functions) - 1)
}

func (e *Environment) FuncCount() Index { return Index(len(e.Functions)) }

// Func fetches a function by environment-wide index, or (nil, false) if out of range.
func (e *Environment) Func(idx Index) (*Function, bool) {
	if int(idx) >= len(e.Functions) {
		return nil, false
	}
	return e.Functions[idx], true
}

// AppendTable appends t and returns its new environment-wide index.
func (e *Environment) AppendTable(t *Table) Index {
	e.Tables = append(e.Tables, t)
	return Index(len(e.Tables) - 1)
}

func (e *Environment) Table(idx Index) (*Table, bool) {
	if int(idx) >= len(e.Tables) {
		return nil, false
	}
	return e.Tables[idx], true
}

// AppendMemory appends m and returns its new environment-wide index.
func (e *Environment) AppendMemory(m *Memory) Index {
	e.Memories = append(e.Memories, m)
	return Index(len(e.Memories) - 1)
}

func (e *Environment) Memory(idx Index) (*Memory, bool) {
	if int(idx) >= len(e.Memories) {
		return nil, false
	}
	return e.Memories[idx], true
}

// AppendGlobal appends g and returns its new environment-wide index.
func (e *Environment) AppendGlobal(g *Global) Index {
	e.Globals = append(e.Globals, g)
	return Index(len(e.Globals) - 1)
}

func (e *Environment) Global(idx Index) (*Global, bool) {
	if int(idx) >= len(e.Globals) {
		return nil, false
	}
	return e.Globals[idx], true
}

// RegisterModule publishes a successfully compiled module under its name so later modules can
// import from it. Re-registering an existing name is rejected (§4.E DuplicateResource / §8
// invariant on module identity).
func (e *Environment) RegisterModule(m *Module) error {
	if _, exists := e.Modules[m.Name]; exists {
		return wasmerr.New(wasmerr.DuplicateResource, "module %q already registered", m.Name)
	}
	e.Modules[m.Name] = m
	return nil
}

func (e *Environment) LookupModule(name string) (*Module, bool) {
	m, ok := e.Modules[name]
	return m, ok
}

// Mark captures the current length of every owned slice plus the istream, as a rollback point
// for a compile that might fail partway through (§4.A Mark/reset, §8 invariant 1).
type Mark struct {
	sigs, funcs, tables, mems, globals int
	istreamLen                         uint32
}

// Mark returns a snapshot of e's current extents.
func (e *Environment) Mark() Mark {
	return Mark{
		sigs:       len(e.Signatures),
		funcs:      len(e.Functions),
		tables:     len(e.Tables),
		mems:       len(e.Memories),
		globals:    len(e.Globals),
		istreamLen: e.Istream.Len(),
	}
}

// Reset truncates every owned slice and the istream back to m, undoing everything appended since
// Mark was taken. It never fails: growth is the only mutation this package performs on the
// environment's flat stores, so truncation is always sufficient to restore the prior state.
func (e *Environment) Reset(m Mark) {
	e.Signatures = e.Signatures[:m.sigs]
	e.Functions = e.Functions[:m.funcs]
	e.Tables = e.Tables[:m.tables]
	e.Memories = e.Memories[:m.mems]
	e.Globals = e.Globals[:m.globals]
	e.Istream.Truncate(m.istreamLen)
}
