// Package binary implements the streaming, callback-driven reader over a raw WebAssembly binary
// module (§4.D Binary Reader Driver). It never materializes a module-wide AST: every section,
// import, declaration and operator is handed to a Callbacks implementation as it is parsed, and
// a callback failure aborts the remainder of the parse.
package binary

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/istream"
)

// Magic and Version are the first eight bytes of every WebAssembly binary module.
const (
	Magic   uint32 = 0x6d736100
	Version uint32 = 0x01
)

// Section ids, in the order they are required to appear.
const (
	SectionCustom   = 0
	SectionType     = 1
	SectionImport   = 2
	SectionFunction = 3
	SectionTable    = 4
	SectionMemory   = 5
	SectionGlobal   = 6
	SectionExport   = 7
	SectionStart    = 8
	SectionElement  = 9
	SectionCode     = 10
	SectionData     = 11
)

// InitExprKind distinguishes the two legal forms of a constant initializer (§4.E Init
// expressions).
type InitExprKind int

const (
	InitExprConst InitExprKind = iota
	InitExprGlobalGet
)

// InitExpr is a decoded constant initializer for a global, element-segment offset or
// data-segment offset.
type InitExpr struct {
	Kind InitExprKind

	ValueType api.ValueType
	I32       int32
	I64       int64
	F32       float32
	F64       float64
	V128      [16]byte

	// GlobalIndex is set when Kind == InitExprGlobalGet: the module-local index of the imported
	// immutable global this initializer reads.
	GlobalIndex uint32
}

// BlockType is the signature of a structured control construct. This engine does not advertise
// the multi-value proposal, so a block has zero parameters and at most one result.
type BlockType struct {
	Results []api.ValueType
}

// Operator is one decoded instruction from a function body, carrying whichever immediates its
// opcode defines. Not every field is meaningful for every Opcode; see the Wasm binary format for
// which.
type Operator struct {
	Opcode istream.Opcode

	Block BlockType

	// Br / BrIf / BrTable
	Depth   uint32
	Targets []uint32
	Default uint32

	// Call / CallIndirect
	FuncIndex  uint32
	SigIndex   uint32
	TableIndex uint32

	LocalIndex  uint32
	GlobalIndex uint32

	// Load/Store memarg.
	Align  uint32
	Offset uint32

	I32  int32
	I64  int64
	F32  float32
	F64  float64
	V128 [16]byte
}

// Callbacks is implemented by the compiler (§4.E) to receive the driver's event stream. Every
// method returns an error to abort the parse; Reader does not retry or recover.
type Callbacks interface {
	OnTypeCount(n uint32) error
	OnType(index uint32, params, results []api.ValueType) error

	OnImportFunc(module, name string, sigIndex uint32) error
	OnImportTable(module, name string, min uint32, max *uint32) error
	OnImportMemory(module, name string, min uint32, max *uint32) error
	OnImportGlobal(module, name string, vt api.ValueType, mutable bool) error

	OnFunctionCount(n uint32) error
	OnFunction(index uint32, sigIndex uint32) error

	OnTable(min uint32, max *uint32) error
	OnMemory(min uint32, max *uint32) error
	OnGlobal(index uint32, vt api.ValueType, mutable bool, init InitExpr) error

	OnExportCount(n uint32) error
	OnExport(name string, kind api.ExternType, index uint32) error

	OnStart(index uint32) error

	OnElemSegmentCount(n uint32) error
	BeginElemSegment(tableIndex uint32, offset InitExpr) error
	OnElemSegmentFunc(funcIndex uint32) error
	EndElemSegment() error

	OnDataSegmentCount(n uint32) error
	BeginDataSegment(memIndex uint32, offset InitExpr) error
	OnDataSegmentBytes(data []byte) error
	EndDataSegment() error

	BeginFunctionBody(index uint32) error
	OnLocalDecl(vt api.ValueType) error
	OnOperator(op Operator) error
	EndFunctionBody() error

	EndModule() error
}
