// Package evmtypes defines the value types shared across the fuzzer core: addresses, wrapping
// unsigned integers, and the bytecode representation produced by static analysis at deploy time.
package evmtypes

import (
	"github.com/crytic/medusa-geth/common"
)

// Address is a 20-byte EVM account identifier. It is a value type: copying it copies the
// underlying bytes, matching how the rest of the core treats contract/caller identifiers.
type Address = common.Address

// Hash is a 32-byte EVM word, used for storage keys/values and block hashes.
type Hash = common.Hash

// FixedAddress parses a hex string (with or without the "0x" prefix) into an Address. It is used
// to declare the small set of well-known synthetic addresses the fuzzer provisions at
// initialization time (default callers, contract callers, the cheatcode contract).
func FixedAddress(hexStr string) Address {
	return common.HexToAddress(hexStr)
}

// CheatcodeAddress is the well-known address at which the fuzzer installs a revert-stub so that
// any contract under test which calls into cheatcode-looking addresses does not crash the run.
var CheatcodeAddress = FixedAddress("0x7109709ECfa91a80626fF3989D68f67F5b1DD12D")

// DefaultCallerAddresses are the two synthetic EOAs credited with the initial balance and made
// available to the scheduler as transaction senders.
var DefaultCallerAddresses = []Address{
	FixedAddress("0x8EF508Aca04B32Ff3ba5003177cb18BfA6Cd79dd"),
	FixedAddress("0x35c9dfd76bf02107ff4f7128Bd69716612d31dDb"),
}

// ContractCallerAddresses are the two synthetic contract accounts (revert-stub bytecode installed)
// also made available to the scheduler as transaction senders, so that fuzzing explores calls
// originating from a contract rather than only from an EOA.
var ContractCallerAddresses = []Address{
	FixedAddress("0xe1A425f1AC34A8a441566f93c82dD730639c8510"),
	FixedAddress("0x68Dd4F5AC792eAaa5e36f4f4e0474E0625dc9024"),
}

// RevertStubBytecode is the tiny [REVERT, STOP] bytecode installed at each synthetic contract
// caller and at the cheatcode address so that calls against them terminate predictably.
var RevertStubBytecode = []byte{0xfd, 0x00}
