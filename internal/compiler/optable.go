package compiler

import (
	"github.com/chainvm/wazc/api"
	"github.com/chainvm/wazc/internal/istream"
)

// opInfo describes a "simple" operator whose type-checker effect is a fixed pop/push shape and
// whose istream emission is the bare opcode with no immediates: unary and binary numeric ops,
// comparisons and conversions all fit this shape (§4.B Operator handling).
type opInfo struct {
	arity int
	in    api.ValueType
	out   api.ValueType
}

var simpleOps = map[istream.Opcode]opInfo{
	istream.OpI32Eqz: {1, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Eq:  {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Ne:  {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32LtS: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32LtU: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32GtS: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32GtU: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32LeS: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32LeU: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32GeS: {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32GeU: {2, api.ValueTypeI32, api.ValueTypeI32},

	istream.OpI64Eqz: {1, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64Eq:  {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64Ne:  {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64LtS: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64LtU: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64GtS: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64GtU: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64LeS: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64LeU: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64GeS: {2, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI64GeU: {2, api.ValueTypeI64, api.ValueTypeI32},

	istream.OpF32Eq: {2, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpF32Ne: {2, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpF32Lt: {2, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpF32Gt: {2, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpF32Le: {2, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpF32Ge: {2, api.ValueTypeF32, api.ValueTypeI32},

	istream.OpF64Eq: {2, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpF64Ne: {2, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpF64Lt: {2, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpF64Gt: {2, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpF64Le: {2, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpF64Ge: {2, api.ValueTypeF64, api.ValueTypeI32},

	istream.OpI32Clz:    {1, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Ctz:    {1, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Popcnt: {1, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Add:    {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Sub:    {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Mul:    {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32DivS:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32DivU:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32RemS:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32RemU:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32And:    {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Or:     {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Xor:    {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Shl:    {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32ShrS:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32ShrU:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Rotl:   {2, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Rotr:   {2, api.ValueTypeI32, api.ValueTypeI32},

	istream.OpI64Clz:    {1, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Ctz:    {1, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Popcnt: {1, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Add:    {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Sub:    {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Mul:    {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64DivS:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64DivU:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64RemS:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64RemU:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64And:    {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Or:     {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Xor:    {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Shl:    {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64ShrS:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64ShrU:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Rotl:   {2, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Rotr:   {2, api.ValueTypeI64, api.ValueTypeI64},

	istream.OpF32Abs:      {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Neg:      {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Ceil:     {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Floor:    {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Trunc:    {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Nearest:  {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Sqrt:     {1, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Add:      {2, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Sub:      {2, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Mul:      {2, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Div:      {2, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Min:      {2, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Max:      {2, api.ValueTypeF32, api.ValueTypeF32},
	istream.OpF32Copysign: {2, api.ValueTypeF32, api.ValueTypeF32},

	istream.OpF64Abs:      {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Neg:      {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Ceil:     {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Floor:    {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Trunc:    {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Nearest:  {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Sqrt:     {1, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Add:      {2, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Sub:      {2, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Mul:      {2, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Div:      {2, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Min:      {2, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Max:      {2, api.ValueTypeF64, api.ValueTypeF64},
	istream.OpF64Copysign: {2, api.ValueTypeF64, api.ValueTypeF64},

	istream.OpI32WrapI64:     {1, api.ValueTypeI64, api.ValueTypeI32},
	istream.OpI32TruncF32S:   {1, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpI32TruncF32U:   {1, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpI32TruncF64S:   {1, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpI32TruncF64U:   {1, api.ValueTypeF64, api.ValueTypeI32},
	istream.OpI64ExtendI32S:  {1, api.ValueTypeI32, api.ValueTypeI64},
	istream.OpI64ExtendI32U:  {1, api.ValueTypeI32, api.ValueTypeI64},
	istream.OpI64TruncF32S:   {1, api.ValueTypeF32, api.ValueTypeI64},
	istream.OpI64TruncF32U:   {1, api.ValueTypeF32, api.ValueTypeI64},
	istream.OpI64TruncF64S:   {1, api.ValueTypeF64, api.ValueTypeI64},
	istream.OpI64TruncF64U:   {1, api.ValueTypeF64, api.ValueTypeI64},
	istream.OpF32ConvertI32S: {1, api.ValueTypeI32, api.ValueTypeF32},
	istream.OpF32ConvertI32U: {1, api.ValueTypeI32, api.ValueTypeF32},
	istream.OpF32ConvertI64S: {1, api.ValueTypeI64, api.ValueTypeF32},
	istream.OpF32ConvertI64U: {1, api.ValueTypeI64, api.ValueTypeF32},
	istream.OpF32DemoteF64:   {1, api.ValueTypeF64, api.ValueTypeF32},
	istream.OpF64ConvertI32S: {1, api.ValueTypeI32, api.ValueTypeF64},
	istream.OpF64ConvertI32U: {1, api.ValueTypeI32, api.ValueTypeF64},
	istream.OpF64ConvertI64S: {1, api.ValueTypeI64, api.ValueTypeF64},
	istream.OpF64ConvertI64U: {1, api.ValueTypeI64, api.ValueTypeF64},
	istream.OpF64PromoteF32:  {1, api.ValueTypeF32, api.ValueTypeF64},

	istream.OpI32ReinterpretF32: {1, api.ValueTypeF32, api.ValueTypeI32},
	istream.OpI64ReinterpretF64: {1, api.ValueTypeF64, api.ValueTypeI64},
	istream.OpF32ReinterpretI32: {1, api.ValueTypeI32, api.ValueTypeF32},
	istream.OpF64ReinterpretI64: {1, api.ValueTypeI64, api.ValueTypeF64},

	istream.OpI32Extend8S:  {1, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI32Extend16S: {1, api.ValueTypeI32, api.ValueTypeI32},
	istream.OpI64Extend8S:  {1, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Extend16S: {1, api.ValueTypeI64, api.ValueTypeI64},
	istream.OpI64Extend32S: {1, api.ValueTypeI64, api.ValueTypeI64},
}

// loadStoreOps lists every load/store opcode so OnOperator can dispatch them uniformly; the
// value type moved and the natural alignment are derived per-opcode by the binary package.
var loadOps = map[istream.Opcode]bool{
	istream.OpI32Load: true, istream.OpI64Load: true, istream.OpF32Load: true, istream.OpF64Load: true,
	istream.OpI32Load8S: true, istream.OpI32Load8U: true, istream.OpI32Load16S: true, istream.OpI32Load16U: true,
	istream.OpI64Load8S: true, istream.OpI64Load8U: true, istream.OpI64Load16S: true, istream.OpI64Load16U: true,
	istream.OpI64Load32S: true, istream.OpI64Load32U: true,
}

var storeOps = map[istream.Opcode]bool{
	istream.OpI32Store: true, istream.OpI64Store: true, istream.OpF32Store: true, istream.OpF64Store: true,
	istream.OpI32Store8: true, istream.OpI32Store16: true, istream.OpI64Store8: true, istream.OpI64Store16: true, istream.OpI64Store32: true,
}
