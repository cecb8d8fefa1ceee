// Package wasm holds the compiler's data model (§3): function signatures, functions, tables,
// memories, globals and modules, plus the Environment that owns their lifetime across compiles.
package wasm

import (
	"fmt"

	"github.com/chainvm/wazc/api"
)

// Index is a 0-based index into one of the Environment's tables (signatures, functions, tables,
// memories, globals) or, within a Module, into one of its local index spaces before translation.
type Index = uint32

// InvalidOffset marks a defined function's istream offset as not yet resolved.
const InvalidOffset uint32 = 0xFFFFFFFF

// PageSize is 64 KiB, the unit memory limits are expressed in.
const PageSize = 64 * 1024

// FunctionType is an ordered parameter list and an ordered result list. Identity is structural:
// two signatures are equal iff both lists are element-wise equal (§3 Function Signature).
type FunctionType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Equal reports whether ft and other describe the same signature.
func (ft *FunctionType) Equal(other *FunctionType) bool {
	return sameValueTypes(ft.Params, other.Params) && sameValueTypes(ft.Results, other.Results)
}

func sameValueTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (ft *FunctionType) String() string {
	return fmt.Sprintf("%s -> %s", valueTypesString(ft.Params), valueTypesString(ft.Results))
}

func valueTypesString(ts []api.ValueType) string {
	s := "("
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(t)
	}
	return s + ")"
}

// Function is either defined (has a body compiled into the istream) or host (backed by an
// externally supplied callable). §3 Function.
type Function struct {
	SigIndex Index
	IsHost   bool

	// Offset is the istream byte offset of this function's body. It starts InvalidOffset and is
	// patched once BeginFunctionBody is reached (§4.E Function-body prologue).
	Offset Index

	// Locals lists every local slot's type, parameters first: index 0..len(Params)-1 are
	// parameters, the rest are local declarations.
	Locals []api.ValueType
	// NumParams is the number of leading entries in Locals that are parameters rather than
	// local declarations.
	NumParams uint32

	// HostFunc is the externally supplied callable handle for a host function. Its concrete type
	// is owned by the FFI surface (sdk/vmffi), not this package.
	HostFunc interface{}

	// ModuleName and Name identify a host function for diagnostics and for resolving imports
	// against it.
	ModuleName, Name string
}

// NumLocalSlots is the total number of local variable slots (parameters + declared locals).
func (f *Function) NumLocalSlots() uint32 {
	return uint32(len(f.Locals))
}

// NumLocalDecls is the number of local slots that are declarations rather than parameters.
func (f *Function) NumLocalDecls() uint32 {
	return f.NumLocalSlots() - f.NumParams
}

// Table holds function references, mutable only via element segments at link/instantiation time
// (§3 Table).
type Table struct {
	Min Index
	Max *Index
	// Elements holds environment-wide function indices; InvalidOffset (as a sentinel Index)
	// marks a slot no element segment has initialized.
	Elements []Index
}

// Memory holds a byte buffer sized Min*PageSize, grown up to Max*PageSize (§3 Memory).
type Memory struct {
	Min   Index
	Max   *Index
	Bytes []byte
}

// Global is a typed value with a mutability flag (§3 Global). Value is the constant-evaluated
// initializer; mutation at runtime is outside this compiler's scope.
type Global struct {
	Type    api.ValueType
	Mutable bool
	Value   uint64
}
