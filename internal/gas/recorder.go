package gas

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/binary"
)

// recorder is a binary.Callbacks implementation that does nothing but record each function
// body's operator sequence, verbatim in source order. Running the gas pass over its own recorder
// rather than piggybacking on internal/compiler's Callbacks keeps the two passes decoupled, per
// spec.md §1/§4.F: the gas pass operates on an AST of a function body, independent of the
// streaming compiler's single pass.
type recorder struct {
	bodies [][]binary.Operator
	cur    []binary.Operator
}

// RecordFunctionBodies drives the binary reader over bytes and returns every function body's
// operator sequence, in declaration order, ready for Decode.
func RecordFunctionBodies(bytes []byte, features api.Features) ([][]binary.Operator, error) {
	r := &recorder{}
	if err := binary.Read(bytes, features, r); err != nil {
		return nil, err
	}
	return r.bodies, nil
}

func (r *recorder) OnTypeCount(uint32) error                                 { return nil }
func (r *recorder) OnType(uint32, []api.ValueType, []api.ValueType) error    { return nil }
func (r *recorder) OnImportFunc(string, string, uint32) error                { return nil }
func (r *recorder) OnImportTable(string, string, uint32, *uint32) error      { return nil }
func (r *recorder) OnImportMemory(string, string, uint32, *uint32) error     { return nil }
func (r *recorder) OnImportGlobal(string, string, api.ValueType, bool) error { return nil }
func (r *recorder) OnFunctionCount(uint32) error                             { return nil }
func (r *recorder) OnFunction(uint32, uint32) error                          { return nil }
func (r *recorder) OnTable(uint32, *uint32) error                            { return nil }
func (r *recorder) OnMemory(uint32, *uint32) error                           { return nil }
func (r *recorder) OnGlobal(uint32, api.ValueType, bool, binary.InitExpr) error {
	return nil
}
func (r *recorder) OnExportCount(uint32) error                          { return nil }
func (r *recorder) OnExport(string, api.ExternType, uint32) error       { return nil }
func (r *recorder) OnStart(uint32) error                                { return nil }
func (r *recorder) OnElemSegmentCount(uint32) error                     { return nil }
func (r *recorder) BeginElemSegment(uint32, binary.InitExpr) error      { return nil }
func (r *recorder) OnElemSegmentFunc(uint32) error                      { return nil }
func (r *recorder) EndElemSegment() error                               { return nil }
func (r *recorder) OnDataSegmentCount(uint32) error                     { return nil }
func (r *recorder) BeginDataSegment(uint32, binary.InitExpr) error      { return nil }
func (r *recorder) OnDataSegmentBytes([]byte) error                     { return nil }
func (r *recorder) EndDataSegment() error                               { return nil }

func (r *recorder) BeginFunctionBody(uint32) error {
	r.cur = nil
	return nil
}

func (r *recorder) OnLocalDecl(api.ValueType) error { return nil }

func (r *recorder) OnOperator(op binary.Operator) error {
	r.cur = append(r.cur, op)
	return nil
}

func (r *recorder) EndFunctionBody() error {
	r.bodies = append(r.bodies, r.cur)
	r.cur = nil
	return nil
}

func (r *recorder) EndModule() error { return nil }
