package gas

import (
	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/istream"
)

// CostFunctionBody decodes ops into its AST form and instruments it in one step; the usual entry
// point for a caller that already has a function body's recorded operator sequence.
func CostFunctionBody(ops []binary.Operator) ([]Expr, error) {
	exprs, err := Decode(ops)
	if err != nil {
		return nil, err
	}
	return Instrument(exprs), nil
}

// Instrument partitions exprs into straight-line segments and inserts a synthetic OpAddGas node
// before the head of every segment whose total cost is nonzero (§4.F). A segment ends at, and
// includes, any of br/br_if/br_table/return/block/loop/if — the latter three only after their own
// children have been recursively instrumented first, so a nested block's segments get their own
// AddGas prefixes independently of the segment containing the block header.
func Instrument(exprs []Expr) []Expr {
	return instrumentSeq(exprs)
}

func instrumentSeq(exprs []Expr) []Expr {
	var out, segment []Expr
	var cost int64

	flush := func() {
		if cost > 0 {
			out = append(out, Expr{Op: istream.OpAddGas, Cost: cost})
		}
		out = append(out, segment...)
		segment = nil
		cost = 0
	}

	for _, e := range exprs {
		switch e.Op {
		case istream.OpBlock, istream.OpLoop:
			e.Block = instrumentSeq(e.Block)
			segment = append(segment, e)
			cost += price(e.Op)
			flush()

		case istream.OpIf:
			e.Then = instrumentSeq(e.Then)
			e.Else = instrumentSeq(e.Else)
			segment = append(segment, e)
			cost += price(e.Op)
			flush()

		case istream.OpBr, istream.OpBrIf, istream.OpBrTable, istream.OpReturn:
			segment = append(segment, e)
			cost += price(e.Op)
			flush()

		default:
			segment = append(segment, e)
			cost += price(e.Op)
		}
	}
	flush()
	return out
}

// price returns an opcode's gas cost, normalizing every const form to i64.const's price (§4.F
// step 1). An opcode with no table entry prices at zero rather than failing the pass: outright
// refusal of opcodes this engine does not support at all happens earlier, when the operator
// sequence is first decoded from the binary (internal/binary), not here.
func price(op istream.Opcode) int64 {
	switch op {
	case istream.OpI32Const, istream.OpF32Const, istream.OpF64Const:
		op = istream.OpI64Const
	}
	c, ok := costOf(op)
	if !ok {
		return 0
	}
	return c
}
