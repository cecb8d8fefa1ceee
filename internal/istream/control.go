package istream

// EmitBlock opens a `block`: its branch target is only known once it closes, so the label starts
// with a forward (InvalidOffset) target.
func (e *Emitter) EmitBlock() {
	e.PushLabel(InvalidOffset)
}

// EmitLoop opens a `loop`: a branch to it re-enters at the header, so its target is the current
// istream position, known immediately.
func (e *Emitter) EmitLoop() {
	e.PushLabel(e.out.Len())
}

// EmitIf emits the `if` header: InterpBrUnless skipping to the else arm (or end, if there is
// none), then opens a label for the body.
//
//	if:   emit InterpBrUnless, record fixup, push label
func (e *Emitter) EmitIf() {
	e.out.EmitOpcode(OpInterpBrUnless)
	fixup := e.out.Len()
	e.out.EmitI32(InvalidOffset)
	e.PushLabel(InvalidOffset)
	e.labels[len(e.labels)-1].ifBrUnlessFixup = fixup
}

// EmitElse emits the `else` transition: the then-arm unconditionally jumps past the else arm,
// and the if header's InterpBrUnless is patched to land here, at the start of the else arm.
//
//	else: emit Br, stash new fixup, patch InterpBrUnless to current pos
func (e *Emitter) EmitElse() {
	top := &e.labels[len(e.labels)-1]
	e.out.EmitOpcode(OpBr)
	elseFixup := e.out.Len()
	e.out.EmitI32(InvalidOffset)
	e.out.patchU32(top.ifBrUnlessFixup, e.out.Len())
	top.ifBrUnlessFixup = InvalidOffset
	top.fixups = append(top.fixups, elseFixup)
}

// EmitEnd closes the top label: any still-outstanding if-without-else BrUnless fixup, plus every
// depth-keyed forward branch fixup recorded against it, are patched to the current position.
//
//	end:  patch stashed Br fixup to current pos, patch all depth_fixups, pop label
func (e *Emitter) EmitEnd() {
	top := &e.labels[len(e.labels)-1]
	if top.ifBrUnlessFixup != InvalidOffset {
		e.out.patchU32(top.ifBrUnlessFixup, e.out.Len())
	}
	e.FixupTopLabel()
}

// BrTableEntry is one (target offset, drop, keep) triple in a br_table's jump data (§6 Istream
// byte layout).
type BrTableEntry struct {
	Depth uint32
	Drop  uint32
	Keep  uint32
}

// EmitBrTable emits `br_table`: the opcode, the non-default target count, a placeholder for the
// data offset, then an InterpData block of (len(targets)+1) 12-byte (target, drop, keep) triples
// - one per explicit target followed by the default.
func (e *Emitter) EmitBrTable(targets []BrTableEntry, def BrTableEntry) {
	e.out.EmitOpcode(OpBrTable)
	e.out.EmitI32(uint32(len(targets)))
	dataOffsetFixup := e.out.Len()
	e.out.EmitI32(InvalidOffset)

	e.out.EmitOpcode(OpInterpData)
	e.out.EmitI32(uint32((len(targets) + 1) * 12))
	dataStart := e.out.Len()
	for _, t := range append(append([]BrTableEntry{}, targets...), def) {
		e.emitBrTableEntry(t)
	}
	e.out.patchU32(dataOffsetFixup, dataStart)
}

func (e *Emitter) emitBrTableEntry(t BrTableEntry) {
	label := e.LabelAt(t.Depth)
	if label.offset == InvalidOffset {
		pos := e.out.Len()
		label.fixups = append(label.fixups, pos)
		e.out.EmitI32(InvalidOffset)
	} else {
		e.out.EmitI32(label.offset)
	}
	e.out.EmitI32(t.Drop)
	e.out.EmitI32(t.Keep)
}
