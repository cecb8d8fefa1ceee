// Package compiler is the hinge (§4.E, §4.G): it implements the binary reader's Callbacks
// interface, maintaining module-local-to-environment index maps, driving the type checker and
// istream emitter in lockstep, and staging segment commits until the whole module parses cleanly.
package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/binary"
	"github.com/chainvm/wazc/internal/istream"
	"github.com/chainvm/wazc/internal/typecheck"
	"github.com/chainvm/wazc/internal/wasm"
	"github.com/chainvm/wazc/internal/wasmerr"
)

// Options configures one compile (§6 Input).
type Options struct {
	Features api.Features
}

// Compiler implements binary.Callbacks over one Environment and the Module it is building.
type Compiler struct {
	env      *wasm.Environment
	mod      *wasm.Module
	em       *istream.Emitter
	features api.Features

	// Per-function-body state, valid only between BeginFunctionBody and EndFunctionBody.
	checker       *typecheck.Checker
	curFuncIndex  uint32
	curEnvFuncIdx wasm.Index
	localTypes    []api.ValueType
	numParams     uint32
	allocaEmitted bool

	// Staging state for the currently open element or data segment.
	curElemTable  wasm.Index
	curElemOffset uint32
	curElemCount  uint32
	curDataMem    wasm.Index
	curDataOffset uint32
}

func newCompiler(env *wasm.Environment, mod *wasm.Module, opts Options) *Compiler {
	return &Compiler{
		env:      env,
		mod:      mod,
		em:       istream.NewEmitter(env.Istream),
		features: opts.Features,
	}
}

func (c *Compiler) errf(kind wasmerr.Kind, format string, args ...interface{}) *wasmerr.Error {
	return wasmerr.New(kind, format, args...)
}

func (c *Compiler) hasMemory() bool { return c.mod.MemoryIndex != nil }
func (c *Compiler) hasTable() bool  { return c.mod.TableIndex != nil }

// ReadBinaryInterp is the public entry point (§4.G): it compiles bytes into env under name,
// publishing the result so later modules may import from it. On any failure env is restored to
// its exact pre-call state and the failure is returned.
func ReadBinaryInterp(env *wasm.Environment, name string, bytes []byte, opts Options) (*wasm.Module, error) {
	mark := env.Mark()

	mod := wasm.NewModule(name)
	c := newCompiler(env, mod, opts)
	mod.IstreamStart = env.Istream.Len()

	if err := binary.Read(bytes, opts.Features, c); err != nil {
		env.Reset(mark)
		return nil, err
	}

	mod.IstreamEnd = env.Istream.Len()

	if pending := c.em.PendingFuncFixups(); len(pending) > 0 {
		env.Reset(mark)
		return nil, wasmerr.New(wasmerr.MalformedBinary, "call to function index %d, which is never defined", pending[0])
	}

	if err := env.RegisterModule(mod); err != nil {
		env.Reset(mark)
		return nil, err
	}

	return mod, nil
}
