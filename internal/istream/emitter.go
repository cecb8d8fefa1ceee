package istream

// Label is the emitter's bookmark for one open structured control construct (§3 Label
// (compiler)). It is deliberately separate from the type checker's label (internal/typecheck):
// merging the two would couple validation to code generation and break the "dead code still
// validates" rule.
type Label struct {
	// offset is the istream address a backward branch (loop) targets, or InvalidOffset for a
	// block/if/else whose target is only known once the block closes.
	offset uint32
	// fixups collects istream offsets of forward-branch target operands still waiting on this
	// label's closing position.
	fixups []uint32
	// ifBrUnlessFixup is the istream offset of an `if` header's InterpBrUnless target operand,
	// or InvalidOffset if this label isn't an `if` whose else arm has not begun. EmitElse patches it to the start
	// of the else arm; if there is no else, EmitEnd patches it to the end position instead.
	ifBrUnlessFixup uint32
}

// Emitter appends opcodes and operands to a shared Istream, tracking the label stack needed to
// patch forward branches and the per-function list needed to patch forward calls (§4.C).
type Emitter struct {
	out    *Istream
	labels []Label

	// funcFixups[i] holds istream offsets where a call to defined function i wrote InvalidOffset
	// because that function's body had not yet been emitted.
	funcFixups map[uint32][]uint32
}

// NewEmitter returns an Emitter appending to out.
func NewEmitter(out *Istream) *Emitter {
	return &Emitter{out: out, funcFixups: map[uint32][]uint32{}}
}

// Istream exposes the underlying output buffer, e.g. so the compiler can record a function's
// starting offset.
func (e *Emitter) Istream() *Istream { return e.out }

// PushLabel opens a new structured-control label. offset is InvalidOffset for a forward target
// (block, if) or the current istream position for a backward target (loop).
func (e *Emitter) PushLabel(offset uint32) {
	e.labels = append(e.labels, Label{offset: offset, ifBrUnlessFixup: InvalidOffset})
}

// TopLabel returns the currently open label, or nil if none is open.
func (e *Emitter) TopLabel() *Label {
	if len(e.labels) == 0 {
		return nil
	}
	return &e.labels[len(e.labels)-1]
}

// LabelAt returns the label `depth` entries from the top (0 = innermost).
func (e *Emitter) LabelAt(depth uint32) *Label {
	i := len(e.labels) - 1 - int(depth)
	return &e.labels[i]
}

// FixupTopLabel overwrites every forward-branch fixup recorded against the top label with the
// istream's current position, then pops the label. Called when a block/if/loop closes (`end`).
func (e *Emitter) FixupTopLabel() {
	top := e.labels[len(e.labels)-1]
	here := e.out.Len()
	for _, offset := range top.fixups {
		e.out.patchU32(offset, here)
	}
	e.labels = e.labels[:len(e.labels)-1]
}

// PopLabelNoFixup discards the top label without patching any of its recorded fixups.
func (e *Emitter) PopLabelNoFixup() {
	e.labels = e.labels[:len(e.labels)-1]
}

// EmitBrOffset writes a branch target. depth is the label-stack depth (0 = innermost) the branch
// unwinds to. If that label's address is not yet known, this records a fixup keyed by the
// label's position from the bottom of the stack and writes InvalidOffset as a placeholder;
// otherwise it writes the label's real offset directly (the loop-header case).
func (e *Emitter) EmitBrOffset(depth uint32) {
	label := e.LabelAt(depth)
	if label.offset == InvalidOffset {
		pos := e.out.Len()
		label.fixups = append(label.fixups, pos)
		e.out.EmitI32(InvalidOffset)
	} else {
		e.out.EmitI32(label.offset)
	}
}

// EmitDropKeep emits the operand-stack reshaping primitive that discards `drop` values from
// beneath the top `keep` values (§4.C, Glossary "Drop-keep"). A no-op is emitted as nothing; a
// bare single discard is emitted as `drop`; everything else is InterpDropKeep with two operands.
func (e *Emitter) EmitDropKeep(drop, keep uint32) {
	switch {
	case drop == 0:
		return
	case drop == 1 && keep == 0:
		e.out.EmitOpcode(OpDrop)
	default:
		e.out.EmitOpcode(OpInterpDropKeep)
		e.out.EmitI32(drop)
		e.out.EmitI32(keep)
	}
}

// EmitFuncOffset writes the istream offset of a defined function, recording a fixup if that
// function's body has not been emitted yet.
func (e *Emitter) EmitFuncOffset(funcIndex uint32, resolvedOffset uint32) {
	if resolvedOffset == InvalidOffset {
		pos := e.out.Len()
		e.funcFixups[funcIndex] = append(e.funcFixups[funcIndex], pos)
		e.out.EmitI32(InvalidOffset)
	} else {
		e.out.EmitI32(resolvedOffset)
	}
}

// ResolveFunc patches every outstanding fixup for funcIndex to offset, now that its body has been
// emitted. Safe to call with no outstanding fixups.
func (e *Emitter) ResolveFunc(funcIndex uint32, offset uint32) {
	for _, pos := range e.funcFixups[funcIndex] {
		e.out.patchU32(pos, offset)
	}
	delete(e.funcFixups, funcIndex)
}

// PendingFuncFixups reports function indices with outstanding (unresolved) call fixups; a
// non-empty result at end-of-module is a MalformedBinary (call to a function index never
// defined).
func (e *Emitter) PendingFuncFixups() []uint32 {
	pending := make([]uint32, 0, len(e.funcFixups))
	for idx := range e.funcFixups {
		pending = append(pending, idx)
	}
	return pending
}

// PatchU32 overwrites a single u32 operand at offset with v, bypassing the label/fixup
// mechanism. Used for a one-off forward reference that isn't part of the label stack, such as
// br_if's own skip-over target.
func (e *Emitter) PatchU32(offset uint32, v uint32) {
	e.out.patchU32(offset, v)
}

// Depth returns the number of currently open labels.
func (e *Emitter) Depth() uint32 {
	return uint32(len(e.labels))
}
