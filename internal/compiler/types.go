package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// OnTypeCount reserves n environment-wide signature slots ahead of seeing any individual type,
// so sig_map[i] = env.sig_count()+i for every local type index (§4.E Index translation).
func (c *Compiler) OnTypeCount(n uint32) error {
	base := c.env.SigCount()
	c.mod.SigMap = make([]wasm.Index, n)
	for i := uint32(0); i < n; i++ {
		c.mod.SigMap[i] = base + i
	}
	return nil
}

// OnType fills in the signature reserved for module-local type index, appending it to the
// environment at the index OnTypeCount already predicted.
func (c *Compiler) OnType(index uint32, params, results []api.ValueType) error {
	if int(index) >= len(c.mod.SigMap) {
		return wasmerr.New(wasmerr.InvalidIndex, "type %d: out of range of declared type count", index)
	}
	got := c.env.AppendSignature(wasm.FunctionType{Params: params, Results: results})
	if got != c.mod.SigMap[index] {
		return wasmerr.New(wasmerr.MalformedBinary, "type %d: index translation drifted from its reservation", index)
	}
	return nil
}
