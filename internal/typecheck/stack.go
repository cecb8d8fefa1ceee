package typecheck

import "github.com/chainvm/wazc/api"

// valueStack is the operand-type stack shared across the whole function body: `push`/`pop`
// within a block operate relative to that block's StackLimit, not the whole stack.
type valueStack struct {
	types []api.ValueType
}

func (s *valueStack) push(t api.ValueType) {
	s.types = append(s.types, t)
}

func (s *valueStack) pushN(ts []api.ValueType) {
	s.types = append(s.types, ts...)
}

func (s *valueStack) size() int {
	return len(s.types)
}

func (s *valueStack) truncate(n int) {
	s.types = s.types[:n]
}

// popUnchecked pops and returns the top value without any label-boundary or unreachable logic.
// Callers must check size() first.
func (s *valueStack) popUnchecked() api.ValueType {
	t := s.types[len(s.types)-1]
	s.types = s.types[:len(s.types)-1]
	return t
}

func (s *valueStack) peekUnchecked() api.ValueType {
	return s.types[len(s.types)-1]
}
