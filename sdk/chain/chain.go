// Package chain is the contract SDK's chain-context facade (§6 Host collaborators): the block and
// transaction accessors a compiled contract observes, populated from a serialized message at the
// host boundary (this package only defines the shapes; deserialization is the host's job).
package chain

import "github.com/holiman/uint256"

// Block mirrors spec.md §6's Chain context field list. Height uses uint256.Int rather than a
// machine integer or math/big, matching how go-ethereum's own VM surface (see
// _examples/fluentlabs-xyz-go-ethereum/core/vm) represents chain-native 256-bit quantities: a
// fixed-width, allocation-free numeric type rather than an arbitrary-precision one.
type Block struct {
	ID        string
	PrevHash  string
	Proposer  string
	Sign      []byte
	PubKey    []byte
	Height    *uint256.Int
	TxCount   uint32
	InTrunk   bool
	NextHash  string
	TxIDs     []string
}

// Transaction completes the "block/transaction accessors" pair spec.md §1 names but §6 leaves
// unspecified in detail; Amount follows Block.Height's choice of uint256.Int for the same reason.
type Transaction struct {
	ID       string
	Initiator string
	AuthRequire []string
	Amount   *uint256.Int
	Desc     []byte
}
