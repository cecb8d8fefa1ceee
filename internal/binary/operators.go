package binary

import (
	"bytes"

	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// readCodeSection decodes the code section: one function body per entry, matched in order
// against the function declarations already seen in the function section (§4.D code bodies).
func (s *sectionReader) readCodeSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		bodySize, err := s.u32()
		if err != nil {
			return err
		}
		bodyBytes, err := s.bytesN(bodySize)
		if err != nil {
			return err
		}
		body := &sectionReader{br: bytes.NewReader(bodyBytes), features: s.features, cb: s.cb}
		if err := body.readFunctionBody(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readFunctionBody(index uint32) error {
	if err := s.cb.BeginFunctionBody(index); err != nil {
		return err
	}

	localGroups, err := s.u32()
	if err != nil {
		return err
	}
	for g := uint32(0); g < localGroups; g++ {
		count, err := s.u32()
		if err != nil {
			return err
		}
		vt, err := s.valueType()
		if err != nil {
			return err
		}
		for j := uint32(0); j < count; j++ {
			if err := s.cb.OnLocalDecl(vt); err != nil {
				return err
			}
		}
	}

	depth := 0
	for {
		op, err := s.readOperator()
		if err != nil {
			return err
		}
		switch op.Opcode {
		case istream.OpBlock, istream.OpLoop, istream.OpIf:
			depth++
		case istream.OpEnd:
			if depth == 0 {
				return s.cb.EndFunctionBody()
			}
			depth--
		}
		if err := s.cb.OnOperator(op); err != nil {
			return err
		}
	}
}

// readOperator decodes exactly one instruction, including its immediates, using the operator's
// fixed-width opcode byte and the Wasm binary encoding of its operands.
func (s *sectionReader) readOperator() (Operator, error) {
	raw, err := s.byte()
	if err != nil {
		return Operator{}, err
	}
	op := istream.Opcode(raw)

	switch op {
	case istream.OpUnreachable, istream.OpNop, istream.OpElse, istream.OpEnd, istream.OpReturn,
		istream.OpDrop, istream.OpSelect,
		istream.OpI32Eqz, istream.OpI32Eq, istream.OpI32Ne, istream.OpI32LtS, istream.OpI32LtU,
		istream.OpI32GtS, istream.OpI32GtU, istream.OpI32LeS, istream.OpI32LeU, istream.OpI32GeS, istream.OpI32GeU,
		istream.OpI64Eqz, istream.OpI64Eq, istream.OpI64Ne, istream.OpI64LtS, istream.OpI64LtU,
		istream.OpI64GtS, istream.OpI64GtU, istream.OpI64LeS, istream.OpI64LeU, istream.OpI64GeS, istream.OpI64GeU,
		istream.OpF32Eq, istream.OpF32Ne, istream.OpF32Lt, istream.OpF32Gt, istream.OpF32Le, istream.OpF32Ge,
		istream.OpF64Eq, istream.OpF64Ne, istream.OpF64Lt, istream.OpF64Gt, istream.OpF64Le, istream.OpF64Ge,
		istream.OpI32Clz, istream.OpI32Ctz, istream.OpI32Popcnt, istream.OpI32Add, istream.OpI32Sub,
		istream.OpI32Mul, istream.OpI32DivS, istream.OpI32DivU, istream.OpI32RemS, istream.OpI32RemU,
		istream.OpI32And, istream.OpI32Or, istream.OpI32Xor, istream.OpI32Shl, istream.OpI32ShrS,
		istream.OpI32ShrU, istream.OpI32Rotl, istream.OpI32Rotr,
		istream.OpI64Clz, istream.OpI64Ctz, istream.OpI64Popcnt, istream.OpI64Add, istream.OpI64Sub,
		istream.OpI64Mul, istream.OpI64DivS, istream.OpI64DivU, istream.OpI64RemS, istream.OpI64RemU,
		istream.OpI64And, istream.OpI64Or, istream.OpI64Xor, istream.OpI64Shl, istream.OpI64ShrS,
		istream.OpI64ShrU, istream.OpI64Rotl, istream.OpI64Rotr,
		istream.OpF32Abs, istream.OpF32Neg, istream.OpF32Ceil, istream.OpF32Floor, istream.OpF32Trunc,
		istream.OpF32Nearest, istream.OpF32Sqrt, istream.OpF32Add, istream.OpF32Sub, istream.OpF32Mul,
		istream.OpF32Div, istream.OpF32Min, istream.OpF32Max, istream.OpF32Copysign,
		istream.OpF64Abs, istream.OpF64Neg, istream.OpF64Ceil, istream.OpF64Floor, istream.OpF64Trunc,
		istream.OpF64Nearest, istream.OpF64Sqrt, istream.OpF64Add, istream.OpF64Sub, istream.OpF64Mul,
		istream.OpF64Div, istream.OpF64Min, istream.OpF64Max, istream.OpF64Copysign,
		istream.OpI32WrapI64, istream.OpI32TruncF32S, istream.OpI32TruncF32U, istream.OpI32TruncF64S, istream.OpI32TruncF64U,
		istream.OpI64ExtendI32S, istream.OpI64ExtendI32U, istream.OpI64TruncF32S, istream.OpI64TruncF32U,
		istream.OpI64TruncF64S, istream.OpI64TruncF64U,
		istream.OpF32ConvertI32S, istream.OpF32ConvertI32U, istream.OpF32ConvertI64S, istream.OpF32ConvertI64U, istream.OpF32DemoteF64,
		istream.OpF64ConvertI32S, istream.OpF64ConvertI32U, istream.OpF64ConvertI64S, istream.OpF64ConvertI64U, istream.OpF64PromoteF32,
		istream.OpI32ReinterpretF32, istream.OpI64ReinterpretF64, istream.OpF32ReinterpretI32, istream.OpF64ReinterpretI64:
		return Operator{Opcode: op}, nil

	case istream.OpMemorySize, istream.OpMemoryGrow:
		if _, err := s.byte(); err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op}, nil

	case 0x12, 0x13:
		return Operator{}, wasmerr.New(wasmerr.Unimplemented, "return-calls are not supported by this engine")

	case istream.OpI32Extend8S, istream.OpI32Extend16S, istream.OpI64Extend8S, istream.OpI64Extend16S, istream.OpI64Extend32S:
		if !s.features.SignExtensionOps {
			return Operator{}, wasmerr.New(wasmerr.FeatureDisabled, "sign-extension opcode %#x requires the SignExtensionOps feature", raw)
		}
		return Operator{Opcode: op}, nil

	case istream.OpBlock, istream.OpLoop, istream.OpIf:
		bt, err := s.blockType()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, Block: bt}, nil

	case istream.OpBr, istream.OpBrIf:
		d, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, Depth: d}, nil

	case istream.OpBrTable:
		count, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		targets := make([]uint32, count)
		for i := range targets {
			if targets[i], err = s.u32(); err != nil {
				return Operator{}, err
			}
		}
		def, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, Targets: targets, Default: def}, nil

	case istream.OpCall:
		idx, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, FuncIndex: idx}, nil

	case istream.OpCallIndirect:
		sig, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		tbl, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, SigIndex: sig, TableIndex: tbl}, nil

	case istream.OpLocalGet, istream.OpLocalSet, istream.OpLocalTee:
		idx, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, LocalIndex: idx}, nil

	case istream.OpGlobalGet, istream.OpGlobalSet:
		idx, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, GlobalIndex: idx}, nil

	case istream.OpI32Load, istream.OpI64Load, istream.OpF32Load, istream.OpF64Load,
		istream.OpI32Load8S, istream.OpI32Load8U, istream.OpI32Load16S, istream.OpI32Load16U,
		istream.OpI64Load8S, istream.OpI64Load8U, istream.OpI64Load16S, istream.OpI64Load16U,
		istream.OpI64Load32S, istream.OpI64Load32U,
		istream.OpI32Store, istream.OpI64Store, istream.OpF32Store, istream.OpF64Store,
		istream.OpI32Store8, istream.OpI32Store16, istream.OpI64Store8, istream.OpI64Store16, istream.OpI64Store32:
		align, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		offset, err := s.u32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, Align: align, Offset: offset}, nil

	case istream.OpI32Const:
		v, err := s.i32()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, I32: v}, nil

	case istream.OpI64Const:
		v, err := s.i64()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, I64: v}, nil

	case istream.OpF32Const:
		v, err := s.f32Raw()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, F32: v}, nil

	case istream.OpF64Const:
		v, err := s.f64Raw()
		if err != nil {
			return Operator{}, err
		}
		return Operator{Opcode: op, F64: v}, nil

	case 0x06, 0x07, 0x08, 0x09, 0x18, 0x19, 0xfc, 0xfd, 0xfe:
		return Operator{}, wasmerr.New(wasmerr.Unimplemented, "exception-handling or prefixed (bulk memory, SIMD, atomics) opcode %#x is not supported by this engine", raw)

	default:
		return Operator{}, wasmerr.New(wasmerr.MalformedBinary, "unknown or unsupported opcode %#x", raw)
	}
}

// NaturalAlign returns log2 of the natural alignment, in bytes, for a memory instruction's value
// type and access width, used by the type checker's alignment rule.
func NaturalAlign(op istream.Opcode) uint32 {
	switch op {
	case istream.OpI32Load8S, istream.OpI32Load8U, istream.OpI64Load8S, istream.OpI64Load8U,
		istream.OpI32Store8, istream.OpI64Store8:
		return 0
	case istream.OpI32Load16S, istream.OpI32Load16U, istream.OpI64Load16S, istream.OpI64Load16U,
		istream.OpI32Store16, istream.OpI64Store16:
		return 1
	case istream.OpI32Load, istream.OpF32Load, istream.OpI64Load32S, istream.OpI64Load32U,
		istream.OpI32Store, istream.OpF32Store, istream.OpI64Store32:
		return 2
	case istream.OpI64Load, istream.OpF64Load, istream.OpI64Store, istream.OpF64Store:
		return 3
	default:
		return 0
	}
}

// ValueTypeOf returns the value type a load pushes or a store pops, used by the compiler to
// drive the type checker without re-deriving it from the opcode itself.
func ValueTypeOf(op istream.Opcode) api.ValueType {
	switch op {
	case istream.OpI32Load, istream.OpI32Load8S, istream.OpI32Load8U, istream.OpI32Load16S, istream.OpI32Load16U,
		istream.OpI32Store, istream.OpI32Store8, istream.OpI32Store16:
		return api.ValueTypeI32
	case istream.OpI64Load, istream.OpI64Load8S, istream.OpI64Load8U, istream.OpI64Load16S, istream.OpI64Load16U,
		istream.OpI64Load32S, istream.OpI64Load32U, istream.OpI64Store, istream.OpI64Store8, istream.OpI64Store16, istream.OpI64Store32:
		return api.ValueTypeI64
	case istream.OpF32Load, istream.OpF32Store:
		return api.ValueTypeF32
	case istream.OpF64Load, istream.OpF64Store:
		return api.ValueTypeF64
	default:
		return api.ValueTypeAny
	}
}
