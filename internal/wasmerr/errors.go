// Package wasmerr defines the compiler's error taxonomy (§7). Every stage — the binary reader,
// the type checker, the compiler proper and the gas instrumenter — raises errors through this
// one structured type so a caller never has to pattern-match on fmt.Errorf strings.
package wasmerr

import "fmt"

// Kind classifies why compilation failed. These are kinds, not Go type names: every Error shares
// one concrete type and carries its Kind as data.
type Kind int

const (
	// MalformedBinary means the reader rejected the byte stream itself (bad magic/version,
	// truncated section, invalid LEB128, unknown opcode).
	MalformedBinary Kind = iota
	// TypeMismatch means a value-type or signature mismatch, or the unreachable-safe `any` rule
	// was violated.
	TypeMismatch
	// InvalidIndex means a local/global/func/sig/table/memory index was out of range.
	InvalidIndex
	// ImportUnresolved means no such module or field was registered, or its kind, limits or
	// signature didn't match the importing declaration.
	ImportUnresolved
	// DuplicateExport means two exports in one module share a name.
	DuplicateExport
	// DuplicateResource means a module declared or imported a second table or memory.
	DuplicateResource
	// ImmutableAssignment means global.set targeted a global declared immutable.
	ImmutableAssignment
	// InitExprIllegal means a non-constant initializer, or a global.get referring to a global
	// that is not an imported immutable global of matching type.
	InitExprIllegal
	// OutOfBounds means a data or element segment exceeded its target memory or table at commit.
	OutOfBounds
	// FeatureDisabled means a construct requires a feature flag the caller did not enable.
	FeatureDisabled
	// Unimplemented means an opcode this engine deliberately refuses (atomics, bulk memory,
	// exceptions, the unimplemented SIMD subset, return-calls).
	Unimplemented
	// TrapAtRuntime is reserved for the interpreter; the compiler emits trapping instructions,
	// it never raises this itself.
	TrapAtRuntime
)

func (k Kind) String() string {
	switch k {
	case MalformedBinary:
		return "MalformedBinary"
	case TypeMismatch:
		return "TypeMismatch"
	case InvalidIndex:
		return "InvalidIndex"
	case ImportUnresolved:
		return "ImportUnresolved"
	case DuplicateExport:
		return "DuplicateExport"
	case DuplicateResource:
		return "DuplicateResource"
	case ImmutableAssignment:
		return "ImmutableAssignment"
	case InitExprIllegal:
		return "InitExprIllegal"
	case OutOfBounds:
		return "OutOfBounds"
	case FeatureDisabled:
		return "FeatureDisabled"
	case Unimplemented:
		return "Unimplemented"
	case TrapAtRuntime:
		return "TrapAtRuntime"
	default:
		return "Unknown"
	}
}

// Error is the one concrete error type every compiler stage raises.
type Error struct {
	Kind Kind
	// Func is the defined-function index the error occurred in, or -1 if module-scoped.
	Func int
	// Msg is a human-formatted description; it is never parsed, only displayed.
	Msg string
}

func (e *Error) Error() string {
	if e.Func >= 0 {
		return fmt.Sprintf("%s: func[%d]: %s", e.Kind, e.Func, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds a module-scoped Error (no function context).
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Func: -1, Msg: fmt.Sprintf(format, args...)}
}

// NewInFunc builds an Error scoped to a defined function index.
func NewInFunc(kind Kind, funcIndex int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Func: funcIndex, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given Kind, for use with errors.Is-style checks in
// tests.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
