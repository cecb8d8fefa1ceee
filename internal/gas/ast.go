// Package gas implements the gas-cost instrumenter (§4.F): a pass over a function body's AST
// form, separate from the streaming compiler, that prices every straight-line segment and
// inserts a synthetic AddGas instruction at the head of each priced one.
package gas

import (
	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// Expr is one node of a function body's AST form: either a plain instruction or a
// structured-control instruction holding its nested block(s) of children. Block/Loop populate
// Block; If populates Then and, when an else arm was present, Else. Cost is populated only on a
// synthetic OpAddGas node produced by Instrument.
type Expr struct {
	Op    istream.Opcode
	Block []Expr
	Then  []Expr
	Else  []Expr
	Cost  int64
}

// Decode builds the AST form of a function body from its flat operator sequence — the same
// sequence the binary reader driver forwards to Callbacks.OnOperator: nested `end`s included, the
// function-terminating `end` excluded (§4.D distinguishes the two by nesting depth). This keeps
// the gas pass decoupled from the streaming compiler's single pass: it can run before, after, or
// entirely independently of compilation, over a recording of the same operator events.
func Decode(ops []binary.Operator) ([]Expr, error) {
	exprs, rest, err := decodeSeq(ops)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, wasmerr.New(wasmerr.MalformedBinary, "gas: %d operator(s) left over after top-level sequence", len(rest))
	}
	return exprs, nil
}

func decodeSeq(ops []binary.Operator) (out []Expr, rest []binary.Operator, err error) {
	for len(ops) > 0 {
		op := ops[0]
		ops = ops[1:]

		switch op.Opcode {
		case istream.OpElse, istream.OpEnd:
			return out, append([]binary.Operator{op}, ops...), nil

		case istream.OpBlock, istream.OpLoop:
			children, rem, derr := decodeSeq(ops)
			if derr != nil {
				return nil, nil, derr
			}
			rem, derr = expectEnd(rem)
			if derr != nil {
				return nil, nil, derr
			}
			out = append(out, Expr{Op: op.Opcode, Block: children})
			ops = rem

		case istream.OpIf:
			thenChildren, rem, derr := decodeSeq(ops)
			if derr != nil {
				return nil, nil, derr
			}
			var elseChildren []Expr
			if len(rem) > 0 && rem[0].Opcode == istream.OpElse {
				elseChildren, rem, derr = decodeSeq(rem[1:])
				if derr != nil {
					return nil, nil, derr
				}
			}
			rem, derr = expectEnd(rem)
			if derr != nil {
				return nil, nil, derr
			}
			out = append(out, Expr{Op: op.Opcode, Then: thenChildren, Else: elseChildren})
			ops = rem

		default:
			out = append(out, Expr{Op: op.Opcode})
		}
	}
	return out, nil, nil
}

func expectEnd(ops []binary.Operator) ([]binary.Operator, error) {
	if len(ops) == 0 || ops[0].Opcode != istream.OpEnd {
		return nil, wasmerr.New(wasmerr.MalformedBinary, "gas: structured control construct missing its matching end")
	}
	return ops[1:], nil
}
