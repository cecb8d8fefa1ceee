// Package vmffi types the VM upcall surface spec.md §6 names: the seams the istream this
// compiler emits is consumed through. Interpretation of the istream is explicitly out of scope
// (spec.md §1 Non-goals), so these are interfaces with no concrete engine behind them here — a
// typed contract for cmd/wazcc and sdk callers to compile against, grounded on wazero's own
// api.Module/api.Function call shape (Call(ctx, params...) ([]uint64, error)), generalized to a
// gas-metered context object.
package vmffi

import "context"

// ModuleResolver looks up a previously registered module by name, the same role
// wasm.Environment.LookupModule plays inside the compiler (§4.E import resolution), exposed here
// as the seam a host embedding this engine supplies.
type ModuleResolver interface {
	ResolveModule(name string) (Code, bool)
}

// Code is a loaded, not-yet-instantiated compiled module: the result of NewCode/InitCode.
type Code interface {
	Name() string
}

// Context is one instantiation of a Code under a gas limit: the result of InitContext.
type Context interface {
	GasLimit() uint64
}

// Engine is the VM upcall surface (§6): new_code/init_code/release_code, init_context/
// release_context, call, gas_used/reset_gas_used.
type Engine interface {
	NewCode(ctx context.Context, path string, resolver ModuleResolver) (Code, error)
	InitCode(ctx context.Context, code Code) error
	ReleaseCode(ctx context.Context, code Code) error

	InitContext(ctx context.Context, code Code, gasLimit uint64) (Context, error)
	ReleaseContext(ctx context.Context, vmCtx Context) error

	// Call invokes the exported function name with params, returning its single return value (0
	// is used when the callee has no result) and the u32 status code spec.md §6 specifies.
	Call(ctx context.Context, vmCtx Context, name string, params []uint64) (result uint64, status uint32, err error)

	GasUsed(vmCtx Context) uint64
	ResetGasUsed(vmCtx Context)
}
