package typecheck

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// OnBlock validates entry into a `block`: pops params, pushes a new label, then pushes params
// back so the body sees them as locals-like operands.
func (c *Checker) OnBlock(params, results []api.ValueType) error {
	return c.pushStructuredLabel(LabelKindBlock, params, results)
}

// OnLoop validates entry into a `loop`, identical to OnBlock except for the label's Kind (which
// changes what BranchTypes a `br` to it must supply).
func (c *Checker) OnLoop(params, results []api.ValueType) error {
	return c.pushStructuredLabel(LabelKindLoop, params, results)
}

// OnIf validates entry into an `if`: additionally pops an i32 predicate before popping params.
func (c *Checker) OnIf(params, results []api.ValueType) error {
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	return c.pushStructuredLabel(LabelKindIf, params, results)
}

func (c *Checker) pushStructuredLabel(kind LabelKind, params, results []api.ValueType) error {
	if err := c.popN(params); err != nil {
		return err
	}
	c.labels = append(c.labels, Label{
		Kind:       kind,
		Params:     params,
		Results:    results,
		StackLimit: c.stack.size(),
	})
	c.pushN(params)
	return nil
}

// OnElse validates the `if`-to-`else` transition: pops the if arm's result types, asserts the
// label is actually an open `if`, converts it to `else`, then restores params for the else arm.
func (c *Checker) OnElse() error {
	top := c.top()
	if top.Kind != LabelKindIf {
		return c.errf(wasmerr.MalformedBinary, "else without matching if")
	}
	if err := c.popN(top.Results); err != nil {
		return err
	}
	if c.stack.size() != top.StackLimit {
		return c.errf(wasmerr.TypeMismatch, "if arm leaves extra values on the stack")
	}
	top.Kind = LabelKindElse
	top.Unreachable = false
	c.pushN(top.Params)
	return nil
}

// OnEnd validates the end of the current block: pops its result types, pops the label, pushes the
// results back into the enclosing scope. An `if` without a matching `else` is only legal when
// Params and Results are identical (an implicit, transparent else).
func (c *Checker) OnEnd() error {
	top := c.top()
	if top.Kind == LabelKindIf && !sameTypes(top.Params, top.Results) {
		return c.errf(wasmerr.TypeMismatch, "if without else must have matching param/result types")
	}
	if err := c.popN(top.Results); err != nil {
		return err
	}
	if c.stack.size() != top.StackLimit {
		return c.errf(wasmerr.TypeMismatch, "block leaves extra values on the stack at end")
	}
	results := top.Results
	c.labels = c.labels[:len(c.labels)-1]
	c.pushN(results)
	return nil
}

// OnBr validates `br depth`: the label at depth must be satisfiable by the current stack, after
// which the current block becomes unreachable.
func (c *Checker) OnBr(depth uint32) error {
	label, ok := c.at(depth)
	if !ok {
		return c.errf(wasmerr.InvalidIndex, "br: depth %d exceeds label stack", depth)
	}
	if err := c.popN(label.BranchTypes()); err != nil {
		return err
	}
	c.pushN(label.BranchTypes())
	c.setUnreachable()
	return nil
}

// OnBrIf validates `br_if depth`: pops the i32 predicate, applies the same requirement as OnBr,
// but (since the branch is conditional) does not mark the block unreachable.
func (c *Checker) OnBrIf(depth uint32) error {
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	label, ok := c.at(depth)
	if !ok {
		return c.errf(wasmerr.InvalidIndex, "br_if: depth %d exceeds label stack", depth)
	}
	if err := c.popN(label.BranchTypes()); err != nil {
		return err
	}
	c.pushN(label.BranchTypes())
	return nil
}

// BrTableScope accumulates the expected branch signature across a br_table's targets: every
// target must agree with the first one seen.
type BrTableScope struct {
	expected []api.ValueType
	set      bool
}

// OnBrTableTarget validates one br_table target depth against the scope's expected signature,
// initializing it from the first target seen.
func (c *Checker) OnBrTableTarget(scope *BrTableScope, depth uint32) error {
	label, ok := c.at(depth)
	if !ok {
		return c.errf(wasmerr.InvalidIndex, "br_table: depth %d exceeds label stack", depth)
	}
	bt := label.BranchTypes()
	if !scope.set {
		scope.expected = bt
		scope.set = true
	} else if !sameTypes(scope.expected, bt) {
		return c.errf(wasmerr.TypeMismatch, "br_table: target signatures disagree")
	}
	return nil
}

// OnBrTableEnd validates a br_table once every target has been checked via OnBrTableTarget: pops
// the i32 predicate and the expected types, then marks the block unreachable.
func (c *Checker) OnBrTableEnd(scope *BrTableScope) error {
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	if scope.set {
		if err := c.popN(scope.expected); err != nil {
			return err
		}
		c.pushN(scope.expected)
	}
	c.setUnreachable()
	return nil
}

// OnCall validates a direct call: pops params in order, pushes results.
func (c *Checker) OnCall(params, results []api.ValueType) error {
	if err := c.popN(params); err != nil {
		return err
	}
	c.pushN(results)
	return nil
}

// OnCallIndirect validates an indirect call: additionally pops an i32 table index after the
// callee's params.
func (c *Checker) OnCallIndirect(params, results []api.ValueType) error {
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	return c.OnCall(params, results)
}

// OnReturnCall validates a tail call: the callee's results must equal the enclosing function's
// results, then it behaves like Return.
func (c *Checker) OnReturnCall(params, results []api.ValueType) error {
	if err := c.popN(params); err != nil {
		return err
	}
	return c.checkReturnResults(results)
}

// OnReturnCallIndirect is OnReturnCall plus the indirect i32 table index.
func (c *Checker) OnReturnCallIndirect(params, results []api.ValueType) error {
	if err := c.pop(api.ValueTypeI32); err != nil {
		return err
	}
	return c.OnReturnCall(params, results)
}

func (c *Checker) checkReturnResults(results []api.ValueType) error {
	funcLabel := &c.labels[0]
	if !sameTypes(results, funcLabel.Results) {
		return c.errf(wasmerr.TypeMismatch, "return-call results do not match enclosing function signature")
	}
	c.setUnreachable()
	return nil
}

// OnReturn validates `return`: like Br to the function label.
func (c *Checker) OnReturn() error {
	funcLabel := &c.labels[0]
	if err := c.popN(funcLabel.Results); err != nil {
		return err
	}
	c.pushN(funcLabel.Results)
	c.setUnreachable()
	return nil
}

// OnUnreachable validates `unreachable`: marks the block unreachable unconditionally.
func (c *Checker) OnUnreachable() error {
	c.setUnreachable()
	return nil
}

// FuncResults returns the enclosing function's declared result types.
func (c *Checker) FuncResults() []api.ValueType {
	return c.labels[0].Results
}

// AtEnd reports whether only the implicit function label remains open: EndFunctionBody requires
// this to be true.
func (c *Checker) AtEnd() bool {
	return len(c.labels) == 1
}

// StackSize exposes the current operand-stack depth, used by the compiler to compute drop-keep
// counts when closing a function body.
func (c *Checker) StackSize() int {
	return c.stack.size()
}

// DropKeepTo computes the drop-keep pair the compiler must emit to reshape the operand stack for
// a branch to the label at depth: keep is the arity of that label's branch types, drop is
// everything between the label's StackLimit and the current top other than those kept values.
func (c *Checker) DropKeepTo(depth uint32) (drop, keep uint32, err error) {
	label, ok := c.at(depth)
	if !ok {
		return 0, 0, c.errf(wasmerr.InvalidIndex, "branch: depth %d exceeds label stack", depth)
	}
	keep = uint32(len(label.BranchTypes()))
	cur := c.stack.size()
	if uint32(cur-label.StackLimit) < keep {
		// Unreachable code may have fewer values physically present than BranchTypes implies;
		// nothing needs reshaping since the values are phantom.
		return 0, keep, nil
	}
	drop = uint32(cur-label.StackLimit) - keep
	return drop, keep, nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
