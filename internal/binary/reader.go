package binary

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/leb128"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// Read drives cb over the full contents of data, a raw WebAssembly binary module. features gates
// which non-MVP constructs are accepted; anything gated off is rejected with FeatureDisabled
// before it ever reaches cb.
func Read(data []byte, features api.Features, cb Callbacks) error {
	r := &reader{br: bytes.NewReader(data), features: features, cb: cb}
	return r.run()
}

type reader struct {
	br       *bytes.Reader
	features api.Features
	cb       Callbacks

	// lastSection is the highest section id seen so far; sections (other than custom) must appear
	// in strictly increasing order.
	lastSection int
}

func (r *reader) run() error {
	if err := r.readHeader(); err != nil {
		return err
	}
	for r.br.Len() > 0 {
		if err := r.readSection(); err != nil {
			return err
		}
	}
	return r.cb.EndModule()
}

func (r *reader) readHeader() error {
	var magic, version uint32
	if err := binary.Read(r.br, binary.LittleEndian, &magic); err != nil {
		return wasmerr.New(wasmerr.MalformedBinary, "reading magic: %v", err)
	}
	if magic != Magic {
		return wasmerr.New(wasmerr.MalformedBinary, "invalid magic %#x", magic)
	}
	if err := binary.Read(r.br, binary.LittleEndian, &version); err != nil {
		return wasmerr.New(wasmerr.MalformedBinary, "reading version: %v", err)
	}
	if version != Version {
		return wasmerr.New(wasmerr.MalformedBinary, "unsupported version %d", version)
	}
	return nil
}

func (r *reader) readSection() error {
	idByte, err := r.br.ReadByte()
	if err != nil {
		return wasmerr.New(wasmerr.MalformedBinary, "reading section id: %v", err)
	}
	id := int(idByte)

	size, _, err := leb128.DecodeUint32(r.br)
	if err != nil {
		return wasmerr.New(wasmerr.MalformedBinary, "reading section %d size: %v", id, err)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r.br, body); err != nil {
		return wasmerr.New(wasmerr.MalformedBinary, "reading section %d body: %v", id, err)
	}

	if id == SectionCustom {
		return nil // not interpreted; the driver skips name/payload entirely
	}
	if id <= r.lastSection {
		return wasmerr.New(wasmerr.MalformedBinary, "section %d out of order", id)
	}
	r.lastSection = id

	sr := &sectionReader{br: bytes.NewReader(body), features: r.features, cb: r.cb}
	switch id {
	case SectionType:
		return sr.readTypeSection()
	case SectionImport:
		return sr.readImportSection()
	case SectionFunction:
		return sr.readFunctionSection()
	case SectionTable:
		return sr.readTableSection()
	case SectionMemory:
		return sr.readMemorySection()
	case SectionGlobal:
		return sr.readGlobalSection()
	case SectionExport:
		return sr.readExportSection()
	case SectionStart:
		return sr.readStartSection()
	case SectionElement:
		return sr.readElementSection()
	case SectionCode:
		return sr.readCodeSection()
	case SectionData:
		return sr.readDataSection()
	default:
		return wasmerr.New(wasmerr.MalformedBinary, "unknown section id %d", id)
	}
}

// sectionReader decodes the body of exactly one section.
type sectionReader struct {
	br       *bytes.Reader
	features api.Features
	cb       Callbacks
}

func (s *sectionReader) u32() (uint32, error) {
	v, _, err := leb128.DecodeUint32(s.br)
	if err != nil {
		return 0, wasmerr.New(wasmerr.MalformedBinary, "%v", err)
	}
	return v, nil
}

func (s *sectionReader) i32() (int32, error) {
	v, _, err := leb128.DecodeInt32(s.br)
	if err != nil {
		return 0, wasmerr.New(wasmerr.MalformedBinary, "%v", err)
	}
	return v, nil
}

func (s *sectionReader) i64() (int64, error) {
	v, _, err := leb128.DecodeInt64(s.br)
	if err != nil {
		return 0, wasmerr.New(wasmerr.MalformedBinary, "%v", err)
	}
	return v, nil
}

func (s *sectionReader) byte() (byte, error) {
	b, err := s.br.ReadByte()
	if err != nil {
		return 0, wasmerr.New(wasmerr.MalformedBinary, "unexpected EOF")
	}
	return b, nil
}

func (s *sectionReader) bytesN(n uint32) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.br, buf); err != nil {
		return nil, wasmerr.New(wasmerr.MalformedBinary, "unexpected EOF reading %d bytes", n)
	}
	return buf, nil
}

// f32Raw reads a fixed 4-byte little-endian IEEE-754 value (f32.const's encoding is NOT LEB128).
func (s *sectionReader) f32Raw() (float32, error) {
	b, err := s.bytesN(4)
	if err != nil {
		return 0, err
	}
	return api.DecodeF32(uint64(binary.LittleEndian.Uint32(b))), nil
}

// f64Raw reads a fixed 8-byte little-endian IEEE-754 value.
func (s *sectionReader) f64Raw() (float64, error) {
	b, err := s.bytesN(8)
	if err != nil {
		return 0, err
	}
	return api.DecodeF64(binary.LittleEndian.Uint64(b)), nil
}

func (s *sectionReader) name() (string, error) {
	n, err := s.u32()
	if err != nil {
		return "", err
	}
	b, err := s.bytesN(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *sectionReader) valueType() (api.ValueType, error) {
	b, err := s.byte()
	if err != nil {
		return 0, err
	}
	switch b {
	case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		return b, nil
	case api.ValueTypeV128:
		if !s.features.SIMD {
			return 0, wasmerr.New(wasmerr.FeatureDisabled, "v128 requires the SIMD feature")
		}
		return b, nil
	case api.ValueTypeFuncref, api.ValueTypeExternref:
		if !s.features.ReferenceTypes {
			return 0, wasmerr.New(wasmerr.FeatureDisabled, "reference types require the ReferenceTypes feature")
		}
		return b, nil
	default:
		return 0, wasmerr.New(wasmerr.MalformedBinary, "invalid value type %#x", b)
	}
}

// limits decodes a `limits` production: a flags byte (bit 0 set means a max is present) followed
// by the min, and the max if present.
func (s *sectionReader) limits() (min uint32, max *uint32, err error) {
	flags, err := s.byte()
	if err != nil {
		return 0, nil, err
	}
	min, err = s.u32()
	if err != nil {
		return 0, nil, err
	}
	if flags&0x01 != 0 {
		m, err := s.u32()
		if err != nil {
			return 0, nil, err
		}
		max = &m
	}
	return min, max, nil
}

func (s *sectionReader) blockType() (BlockType, error) {
	b, err := s.byte()
	if err != nil {
		return BlockType{}, err
	}
	if b == 0x40 {
		return BlockType{}, nil
	}
	// Put the byte back and read it as a value type; this engine does not support the
	// multi-value proposal's signed type-index encoding.
	if err := s.br.UnreadByte(); err != nil {
		return BlockType{}, wasmerr.New(wasmerr.MalformedBinary, "%v", err)
	}
	vt, err := s.valueType()
	if err != nil {
		return BlockType{}, wasmerr.New(wasmerr.Unimplemented, "multi-value block types are not supported: %v", err)
	}
	return BlockType{Results: []api.ValueType{vt}}, nil
}

// initExpr decodes a constant init expression, terminated by its own `end` opcode (§4.E Init
// expressions).
func (s *sectionReader) initExpr() (InitExpr, error) {
	op, err := s.byte()
	if err != nil {
		return InitExpr{}, err
	}
	var e InitExpr
	switch op {
	case 0x41: // i32.const
		v, err := s.i32()
		if err != nil {
			return InitExpr{}, err
		}
		e = InitExpr{Kind: InitExprConst, ValueType: api.ValueTypeI32, I32: v}
	case 0x42: // i64.const
		v, err := s.i64()
		if err != nil {
			return InitExpr{}, err
		}
		e = InitExpr{Kind: InitExprConst, ValueType: api.ValueTypeI64, I64: v}
	case 0x43: // f32.const
		v, err := s.f32Raw()
		if err != nil {
			return InitExpr{}, err
		}
		e = InitExpr{Kind: InitExprConst, ValueType: api.ValueTypeF32, F32: v}
	case 0x44: // f64.const
		v, err := s.f64Raw()
		if err != nil {
			return InitExpr{}, err
		}
		e = InitExpr{Kind: InitExprConst, ValueType: api.ValueTypeF64, F64: v}
	case 0x23: // global.get
		idx, err := s.u32()
		if err != nil {
			return InitExpr{}, err
		}
		e = InitExpr{Kind: InitExprGlobalGet, GlobalIndex: idx}
	default:
		return InitExpr{}, wasmerr.New(wasmerr.InitExprIllegal, "opcode %#x is not a legal constant initializer", op)
	}
	end, err := s.byte()
	if err != nil {
		return InitExpr{}, err
	}
	if end != 0x0b {
		return InitExpr{}, wasmerr.New(wasmerr.InitExprIllegal, "init expression has more than one instruction")
	}
	return e, nil
}

func (s *sectionReader) readTypeSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	if err := s.cb.OnTypeCount(n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		form, err := s.byte()
		if err != nil {
			return err
		}
		if form != 0x60 {
			return wasmerr.New(wasmerr.MalformedBinary, "type %d: expected form 0x60, got %#x", i, form)
		}
		numParams, err := s.u32()
		if err != nil {
			return err
		}
		params := make([]api.ValueType, numParams)
		for j := range params {
			if params[j], err = s.valueType(); err != nil {
				return err
			}
		}
		numResults, err := s.u32()
		if err != nil {
			return err
		}
		results := make([]api.ValueType, numResults)
		for j := range results {
			if results[j], err = s.valueType(); err != nil {
				return err
			}
		}
		if err := s.cb.OnType(i, params, results); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readImportSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		module, err := s.name()
		if err != nil {
			return err
		}
		field, err := s.name()
		if err != nil {
			return err
		}
		kind, err := s.byte()
		if err != nil {
			return err
		}
		switch kind {
		case api.ExternTypeFunc:
			sig, err := s.u32()
			if err != nil {
				return err
			}
			if err := s.cb.OnImportFunc(module, field, sig); err != nil {
				return err
			}
		case api.ExternTypeTable:
			elemType, err := s.byte()
			if err != nil {
				return err
			}
			if elemType != api.ValueTypeFuncref && !(elemType == api.ValueTypeExternref && s.features.ReferenceTypes) {
				return wasmerr.New(wasmerr.MalformedBinary, "import %d: unsupported table element type %#x", i, elemType)
			}
			min, max, err := s.limits()
			if err != nil {
				return err
			}
			if err := s.cb.OnImportTable(module, field, min, max); err != nil {
				return err
			}
		case api.ExternTypeMemory:
			min, max, err := s.limits()
			if err != nil {
				return err
			}
			if err := s.cb.OnImportMemory(module, field, min, max); err != nil {
				return err
			}
		case api.ExternTypeGlobal:
			vt, err := s.valueType()
			if err != nil {
				return err
			}
			mutByte, err := s.byte()
			if err != nil {
				return err
			}
			if err := s.cb.OnImportGlobal(module, field, vt, mutByte != 0); err != nil {
				return err
			}
		default:
			return wasmerr.New(wasmerr.MalformedBinary, "import %d: unknown kind %#x", i, kind)
		}
	}
	return nil
}

func (s *sectionReader) readFunctionSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	if err := s.cb.OnFunctionCount(n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		sig, err := s.u32()
		if err != nil {
			return err
		}
		if err := s.cb.OnFunction(i, sig); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readTableSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		elemType, err := s.byte()
		if err != nil {
			return err
		}
		if elemType != api.ValueTypeFuncref && !(elemType == api.ValueTypeExternref && s.features.ReferenceTypes) {
			return wasmerr.New(wasmerr.MalformedBinary, "table %d: unsupported element type %#x", i, elemType)
		}
		min, max, err := s.limits()
		if err != nil {
			return err
		}
		if err := s.cb.OnTable(min, max); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readMemorySection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		min, max, err := s.limits()
		if err != nil {
			return err
		}
		if err := s.cb.OnMemory(min, max); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readGlobalSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		vt, err := s.valueType()
		if err != nil {
			return err
		}
		mutByte, err := s.byte()
		if err != nil {
			return err
		}
		init, err := s.initExpr()
		if err != nil {
			return err
		}
		if err := s.cb.OnGlobal(i, vt, mutByte != 0, init); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readExportSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	if err := s.cb.OnExportCount(n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		nm, err := s.name()
		if err != nil {
			return err
		}
		kind, err := s.byte()
		if err != nil {
			return err
		}
		idx, err := s.u32()
		if err != nil {
			return err
		}
		if err := s.cb.OnExport(nm, kind, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readStartSection() error {
	idx, err := s.u32()
	if err != nil {
		return err
	}
	return s.cb.OnStart(idx)
}

func (s *sectionReader) readElementSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	if err := s.cb.OnElemSegmentCount(n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tableIdx, err := s.u32()
		if err != nil {
			return err
		}
		offset, err := s.initExpr()
		if err != nil {
			return err
		}
		if err := s.cb.BeginElemSegment(tableIdx, offset); err != nil {
			return err
		}
		count, err := s.u32()
		if err != nil {
			return err
		}
		for j := uint32(0); j < count; j++ {
			fnIdx, err := s.u32()
			if err != nil {
				return err
			}
			if err := s.cb.OnElemSegmentFunc(fnIdx); err != nil {
				return err
			}
		}
		if err := s.cb.EndElemSegment(); err != nil {
			return err
		}
	}
	return nil
}

func (s *sectionReader) readDataSection() error {
	n, err := s.u32()
	if err != nil {
		return err
	}
	if err := s.cb.OnDataSegmentCount(n); err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		memIdx, err := s.u32()
		if err != nil {
			return err
		}
		offset, err := s.initExpr()
		if err != nil {
			return err
		}
		if err := s.cb.BeginDataSegment(memIdx, offset); err != nil {
			return err
		}
		size, err := s.u32()
		if err != nil {
			return err
		}
		data, err := s.bytesN(size)
		if err != nil {
			return err
		}
		if err := s.cb.OnDataSegmentBytes(data); err != nil {
			return err
		}
		if err := s.cb.EndDataSegment(); err != nil {
			return err
		}
	}
	return nil
}
