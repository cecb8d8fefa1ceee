// Package typecheck implements the expression-stream type checker (§4.B): Wasm validation rules
// enforced over a stack of value types and a stack of structured-control labels, tolerant of
// unreachable (dead) code via the `any` pseudo-type.
package typecheck

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// Checker validates one function body as a stream of operator events.
type Checker struct {
	stack  valueStack
	labels []Label
	// funcIndex is attached to every error this checker raises, for diagnostics.
	funcIndex int
}

// New returns a Checker for a function with the given parameter and result types. It pushes the
// implicit function label so that Return behaves as a Br to the outermost label.
func New(funcIndex int, params, results []api.ValueType) *Checker {
	c := &Checker{funcIndex: funcIndex}
	c.labels = append(c.labels, Label{
		Kind:       LabelKindFunc,
		Params:     params,
		Results:    results,
		StackLimit: 0,
	})
	return c
}

func (c *Checker) errf(kind wasmerr.Kind, format string, args ...interface{}) *wasmerr.Error {
	return wasmerr.NewInFunc(kind, c.funcIndex, format, args...)
}

// top returns the innermost open label.
func (c *Checker) top() *Label {
	return &c.labels[len(c.labels)-1]
}

// at returns the label `depth` entries from the top (0 = innermost). ok is false if depth is out
// of range (InvalidIndex).
func (c *Checker) at(depth uint32) (*Label, bool) {
	i := len(c.labels) - 1 - int(depth)
	if i < 0 {
		return nil, false
	}
	return &c.labels[i], true
}

// Depth returns the number of currently open labels, including the implicit function label.
func (c *Checker) Depth() uint32 {
	return uint32(len(c.labels))
}

// pop consumes one operand of type expected. In unreachable code once the stack has been drained
// to the enclosing label's StackLimit, every pop trivially succeeds (the `any` rule) rather than
// underflowing.
func (c *Checker) pop(expected api.ValueType) error {
	top := c.top()
	if c.stack.size() <= top.StackLimit {
		if top.Unreachable {
			return nil
		}
		return c.errf(wasmerr.TypeMismatch, "expected %s, but the stack is empty", api.ValueTypeName(expected))
	}
	actual := c.stack.popUnchecked()
	if actual != expected {
		return c.errf(wasmerr.TypeMismatch, "expected %s, but found %s", api.ValueTypeName(expected), api.ValueTypeName(actual))
	}
	return nil
}

// popAny pops one operand of any type (used by drop, and internally by popN when a caller already
// knows the expected types line up). Returns the type that was popped, or ValueTypeAny in
// unreachable code once drained.
func (c *Checker) popAny() (api.ValueType, error) {
	top := c.top()
	if c.stack.size() <= top.StackLimit {
		if top.Unreachable {
			return api.ValueTypeAny, nil
		}
		return 0, c.errf(wasmerr.TypeMismatch, "expected a value, but the stack is empty")
	}
	return c.stack.popUnchecked(), nil
}

// popN pops types in reverse order (the last element of want was pushed last).
func (c *Checker) popN(want []api.ValueType) error {
	for i := len(want) - 1; i >= 0; i-- {
		if err := c.pop(want[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) pushN(ts []api.ValueType) {
	c.stack.pushN(ts)
}

// setUnreachable marks the current label unreachable and discards everything pushed inside it:
// subsequent pops are satisfied by the `any` wildcard until the label closes (§4.B "Unreachable
// tracking").
func (c *Checker) setUnreachable() {
	top := c.top()
	top.Unreachable = true
	c.stack.truncate(top.StackLimit)
}

// --- simple fixed-arity operators -----------------------------------------------------------

// OnConst validates a const instruction, pushing t.
func (c *Checker) OnConst(t api.ValueType) error {
	c.stack.push(t)
	return nil
}

// OnUnary validates a unary operator: pop in, push out.
func (c *Checker) OnUnary(in, out api.ValueType) error {
	if err := c.pop(in); err != nil {
		return err
	}
	c.stack.push(out)
	return nil
}

// OnBinary validates a binary operator: pop two `in`, push one `out`.
func (c *Checker) OnBinary(in, out api.ValueType) error {
	if err := c.pop(in); err != nil {
		return err
	}
	if err := c.pop(in); err != nil {
		return err
	}
	c.stack.push(out)
	return nil
}

// OnCompare validates a comparison operator: pop two `in`, push i32.
func (c *Checker) OnCompare(in api.ValueType) error {
	return c.OnBinary(in, api.ValueTypeI32)
}

// OnConvert validates a numeric conversion: pop `in`, push `out`.
func (c *Checker) OnConvert(in, out api.ValueType) error {
	return c.OnUnary(in, out)
}

// OnDrop validates `drop`: pops one value of any type.
func (c *Checker) OnDrop() error {
	_, err := c.popAny()
	return err
}

// OnSelect validates `select`: pops i32, then two values of the same type, pushing that type
// back. The first of the two popped must match the second; if either is `any`, the other wins.
func (c *Checker) OnSelect() error {
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	t1, err := c.popAny()
	if err != nil {
		return err
	}
	t2, err := c.popAny()
	if err != nil {
		return err
	}
	result := t2
	switch {
	case t1 == api.ValueTypeAny:
		result = t2
	case t2 == api.ValueTypeAny:
		result = t1
	case t1 != t2:
		return c.errf(wasmerr.TypeMismatch, "select operands have different types %s and %s",
			api.ValueTypeName(t2), api.ValueTypeName(t1))
	}
	c.stack.push(result)
	return nil
}

// OnMemorySize validates `memory.size`: requires a memory, pushes i32.
func (c *Checker) OnMemorySize(hasMemory bool) error {
	if !hasMemory {
		return c.errf(wasmerr.InvalidIndex, "memory.size: module has no memory")
	}
	c.stack.push(api.ValueTypeI32)
	return nil
}

// OnMemoryGrow validates `memory.grow`: requires a memory, pops i32 (delta), pushes i32 (previous
// size or -1).
func (c *Checker) OnMemoryGrow(hasMemory bool) error {
	if !hasMemory {
		return c.errf(wasmerr.InvalidIndex, "memory.grow: module has no memory")
	}
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	c.stack.push(api.ValueTypeI32)
	return nil
}

// --- locals and globals ----------------------------------------------------------------------

// OnLocalGet pushes the local's declared type.
func (c *Checker) OnLocalGet(t api.ValueType) error {
	c.stack.push(t)
	return nil
}

// OnLocalSet pops a value matching the local's declared type.
func (c *Checker) OnLocalSet(t api.ValueType) error {
	return c.pop(t)
}

// OnLocalTee requires and preserves t on top of the stack.
func (c *Checker) OnLocalTee(t api.ValueType) error {
	if err := c.pop(t); err != nil {
		return err
	}
	c.stack.push(t)
	return nil
}

// OnGlobalGet pushes the global's declared type.
func (c *Checker) OnGlobalGet(t api.ValueType) error {
	c.stack.push(t)
	return nil
}

// OnGlobalSet pops a value matching the global's declared type; the global must be mutable.
func (c *Checker) OnGlobalSet(t api.ValueType, mutable bool) error {
	if !mutable {
		return c.errf(wasmerr.ImmutableAssignment, "global.set: global is immutable")
	}
	return c.pop(t)
}

// --- memory access ---------------------------------------------------------------------------

// OnLoad validates a load instruction: requires a memory, checks alignment, pops i32 (address),
// pushes t. align and naturalAlign are log2 values; plain loads require align<=naturalAlign,
// atomics require equality (enforced by the caller passing atomic=true).
func (c *Checker) OnLoad(t api.ValueType, hasMemory bool, align, naturalAlign uint32, atomic bool) error {
	if !hasMemory {
		return c.errf(wasmerr.InvalidIndex, "load: module has no memory")
	}
	if err := c.checkAlign(align, naturalAlign, atomic); err != nil {
		return err
	}
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	c.stack.push(t)
	return nil
}

// OnStore validates a store instruction: requires a memory, checks alignment, pops the value then
// the i32 address.
func (c *Checker) OnStore(t api.ValueType, hasMemory bool, align, naturalAlign uint32, atomic bool) error {
	if !hasMemory {
		return c.errf(wasmerr.InvalidIndex, "store: module has no memory")
	}
	if err := c.checkAlign(align, naturalAlign, atomic); err != nil {
		return err
	}
	if err := c.pop(t); err != nil {
		return err
	}
	return c.pop(api.ValueTypeI32)
}

func (c *Checker) checkAlign(align, naturalAlign uint32, atomic bool) error {
	if atomic {
		if align != naturalAlign {
			return c.errf(wasmerr.MalformedBinary, "atomic alignment must equal natural alignment: got 2**%d, want 2**%d", align, naturalAlign)
		}
		return nil
	}
	if align > naturalAlign {
		return c.errf(wasmerr.MalformedBinary, "alignment 2**%d exceeds natural alignment 2**%d", align, naturalAlign)
	}
	return nil
}
