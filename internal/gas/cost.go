package gas

import "github.com/chainvm/wazc/internal/istream"

// costInvalid is the pseudo-cost assigned to an opcode this table carries no entry for (§4.F:
// "unknown opcodes map to an Invalid pseudo-cost and are skipped" — priced at zero, left in the
// segment unchanged).
const costInvalid int64 = -1

// costTable is a dense array indexed by opcode, per the Design Notes' preference (spec.md §9) for
// a flat lookup over a string-keyed map: both determinism and speed favor it, and the opcode
// space here is small and contiguous enough (every non-synthetic opcode fits under 0x100) that a
// plain array wastes nothing worth avoiding.
var costTable [0x100]int64

func setCost(c int64, ops ...istream.Opcode) {
	for _, op := range ops {
		costTable[op] = c
	}
}

func init() {
	for i := range costTable {
		costTable[i] = costInvalid
	}

	setCost(0, istream.OpNop, istream.OpElse, istream.OpEnd)
	setCost(1, istream.OpUnreachable, istream.OpBlock, istream.OpLoop, istream.OpIf, istream.OpDrop,
		istream.OpLocalGet, istream.OpLocalSet, istream.OpLocalTee, istream.OpGlobalGet,
		istream.OpMemorySize)
	setCost(2, istream.OpBr, istream.OpBrIf, istream.OpBrTable, istream.OpReturn, istream.OpSelect,
		istream.OpGlobalSet)
	setCost(5, istream.OpCall)
	setCost(8, istream.OpCallIndirect)
	setCost(10, istream.OpMemoryGrow)

	setCost(3,
		istream.OpI32Load, istream.OpI64Load, istream.OpF32Load, istream.OpF64Load,
		istream.OpI32Load8S, istream.OpI32Load8U, istream.OpI32Load16S, istream.OpI32Load16U,
		istream.OpI64Load8S, istream.OpI64Load8U, istream.OpI64Load16S, istream.OpI64Load16U,
		istream.OpI64Load32S, istream.OpI64Load32U,
		istream.OpI32Store, istream.OpI64Store, istream.OpF32Store, istream.OpF64Store,
		istream.OpI32Store8, istream.OpI32Store16, istream.OpI64Store8, istream.OpI64Store16, istream.OpI64Store32)

	// const forms are normalized to i64.const's price at instrument time (§4.F step 1); this
	// entry is i64.const's own price and doubles as that normalized price.
	setCost(2, istream.OpI32Const, istream.OpI64Const, istream.OpF32Const, istream.OpF64Const)

	setCost(1,
		istream.OpI32Eqz, istream.OpI32Eq, istream.OpI32Ne, istream.OpI32LtS, istream.OpI32LtU,
		istream.OpI32GtS, istream.OpI32GtU, istream.OpI32LeS, istream.OpI32LeU, istream.OpI32GeS, istream.OpI32GeU,
		istream.OpI64Eqz, istream.OpI64Eq, istream.OpI64Ne, istream.OpI64LtS, istream.OpI64LtU,
		istream.OpI64GtS, istream.OpI64GtU, istream.OpI64LeS, istream.OpI64LeU, istream.OpI64GeS, istream.OpI64GeU,
		istream.OpF32Eq, istream.OpF32Ne, istream.OpF32Lt, istream.OpF32Gt, istream.OpF32Le, istream.OpF32Ge,
		istream.OpF64Eq, istream.OpF64Ne, istream.OpF64Lt, istream.OpF64Gt, istream.OpF64Le, istream.OpF64Ge)

	setCost(2, istream.OpI32Clz, istream.OpI32Ctz, istream.OpI32Popcnt,
		istream.OpI64Clz, istream.OpI64Ctz, istream.OpI64Popcnt)

	setCost(1,
		istream.OpI32Add, istream.OpI32Sub, istream.OpI32Mul, istream.OpI32And, istream.OpI32Or, istream.OpI32Xor,
		istream.OpI32Shl, istream.OpI32ShrS, istream.OpI32ShrU, istream.OpI32Rotl, istream.OpI32Rotr,
		istream.OpI64Add, istream.OpI64Sub, istream.OpI64Mul, istream.OpI64And, istream.OpI64Or, istream.OpI64Xor,
		istream.OpI64Shl, istream.OpI64ShrS, istream.OpI64ShrU, istream.OpI64Rotl, istream.OpI64Rotr)

	setCost(3,
		istream.OpI32DivS, istream.OpI32DivU, istream.OpI32RemS, istream.OpI32RemU,
		istream.OpI64DivS, istream.OpI64DivU, istream.OpI64RemS, istream.OpI64RemU)

	setCost(2,
		istream.OpF32Abs, istream.OpF32Neg, istream.OpF32Ceil, istream.OpF32Floor, istream.OpF32Trunc,
		istream.OpF32Nearest, istream.OpF32Sqrt, istream.OpF32Add, istream.OpF32Sub, istream.OpF32Mul,
		istream.OpF32Div, istream.OpF32Min, istream.OpF32Max, istream.OpF32Copysign,
		istream.OpF64Abs, istream.OpF64Neg, istream.OpF64Ceil, istream.OpF64Floor, istream.OpF64Trunc,
		istream.OpF64Nearest, istream.OpF64Sqrt, istream.OpF64Add, istream.OpF64Sub, istream.OpF64Mul,
		istream.OpF64Div, istream.OpF64Min, istream.OpF64Max, istream.OpF64Copysign)

	setCost(2,
		istream.OpI32WrapI64, istream.OpI32TruncF32S, istream.OpI32TruncF32U, istream.OpI32TruncF64S, istream.OpI32TruncF64U,
		istream.OpI64ExtendI32S, istream.OpI64ExtendI32U, istream.OpI64TruncF32S, istream.OpI64TruncF32U,
		istream.OpI64TruncF64S, istream.OpI64TruncF64U,
		istream.OpF32ConvertI32S, istream.OpF32ConvertI32U, istream.OpF32ConvertI64S, istream.OpF32ConvertI64U, istream.OpF32DemoteF64,
		istream.OpF64ConvertI32S, istream.OpF64ConvertI32U, istream.OpF64ConvertI64S, istream.OpF64ConvertI64U, istream.OpF64PromoteF32,
		istream.OpI32ReinterpretF32, istream.OpI64ReinterpretF64, istream.OpF32ReinterpretI32, istream.OpF64ReinterpretI64)

	setCost(1, istream.OpI32Extend8S, istream.OpI32Extend16S,
		istream.OpI64Extend8S, istream.OpI64Extend16S, istream.OpI64Extend32S)
}

// costOf reports op's table entry and whether one exists.
func costOf(op istream.Opcode) (int64, bool) {
	if int(op) < 0 || int(op) >= len(costTable) {
		return 0, false
	}
	c := costTable[op]
	if c == costInvalid {
		return 0, false
	}
	return c, true
}
