package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// OnElemSegmentCount is a no-op; element segments carry all the information this compiler needs
// inline.
func (c *Compiler) OnElemSegmentCount(n uint32) error { return nil }

// BeginElemSegment validates the target table and offset, staging writes for commit at
// EndModule (§4.E Segment staging; §5 Memory safety).
func (c *Compiler) BeginElemSegment(tableIndex uint32, offset binary.InitExpr) error {
	if !c.hasTable() {
		return wasmerr.New(wasmerr.InvalidIndex, "element segment: module has no table")
	}
	if tableIndex != 0 {
		return wasmerr.New(wasmerr.InvalidIndex, "element segment: table index %d out of range", tableIndex)
	}
	off, err := c.evalInitExpr(offset, api.ValueTypeI32)
	if err != nil {
		return err
	}
	c.curElemTable = *c.mod.TableIndex
	c.curElemOffset = uint32(int32(off))
	c.curElemCount = 0
	return nil
}

// OnElemSegmentFunc stages one function-index entry of the currently open element segment.
func (c *Compiler) OnElemSegmentFunc(funcIndex uint32) error {
	envIdx, ok := c.mod.LocalFuncToEnv(funcIndex)
	if !ok {
		return wasmerr.New(wasmerr.InvalidIndex, "element segment: function index %d out of range", funcIndex)
	}
	c.mod.ElemSegments = append(c.mod.ElemSegments, wasm.ElemSegmentInfo{
		TableIndex:  c.curElemTable,
		TableOffset: c.curElemOffset + c.curElemCount,
		FuncIndex:   envIdx,
	})
	c.curElemCount++
	return nil
}

func (c *Compiler) EndElemSegment() error { return nil }

// OnDataSegmentCount is a no-op; data segments carry all the information this compiler needs
// inline.
func (c *Compiler) OnDataSegmentCount(n uint32) error { return nil }

// BeginDataSegment validates the target memory and offset, staging the write for commit at
// EndModule.
func (c *Compiler) BeginDataSegment(memIndex uint32, offset binary.InitExpr) error {
	if !c.hasMemory() {
		return wasmerr.New(wasmerr.InvalidIndex, "data segment: module has no memory")
	}
	if memIndex != 0 {
		return wasmerr.New(wasmerr.InvalidIndex, "data segment: memory index %d out of range", memIndex)
	}
	off, err := c.evalInitExpr(offset, api.ValueTypeI32)
	if err != nil {
		return err
	}
	c.curDataMem = *c.mod.MemoryIndex
	c.curDataOffset = uint32(int32(off))
	return nil
}

// OnDataSegmentBytes stages the payload of the currently open data segment.
func (c *Compiler) OnDataSegmentBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	c.mod.DataSegments = append(c.mod.DataSegments, wasm.DataSegmentInfo{
		MemoryIndex:  c.curDataMem,
		MemoryOffset: c.curDataOffset,
		Data:         data,
	})
	return nil
}

func (c *Compiler) EndDataSegment() error { return nil }

// EndModule commits every staged element and data segment write, failing with OutOfBounds if
// any exceeds its target (§4.E Segment staging; §8 boundary 9).
func (c *Compiler) EndModule() error {
	for _, e := range c.mod.ElemSegments {
		table, _ := c.env.Table(e.TableIndex)
		if int(e.TableOffset) >= len(table.Elements) {
			return wasmerr.New(wasmerr.OutOfBounds, "element segment offset %d exceeds table size %d", e.TableOffset, len(table.Elements))
		}
		table.Elements[e.TableOffset] = e.FuncIndex
	}
	for _, d := range c.mod.DataSegments {
		mem, _ := c.env.Memory(d.MemoryIndex)
		end := uint64(d.MemoryOffset) + uint64(len(d.Data))
		if end > uint64(len(mem.Bytes)) {
			return wasmerr.New(wasmerr.OutOfBounds, "data segment [%d:%d] exceeds memory size %d", d.MemoryOffset, end, len(mem.Bytes))
		}
		copy(mem.Bytes[d.MemoryOffset:], d.Data)
	}
	return nil
}
