package evmtypes

import (
	"math/big"

	"github.com/holiman/uint256"
)

// U256 is an unsigned 256-bit integer with wrapping arithmetic semantics, matching the EVM's own
// word size. It backs storage values, balances, and transaction values throughout the core.
type U256 = uint256.Int

// NewU256 constructs a U256 from a uint64.
func NewU256(v uint64) *U256 {
	return uint256.NewInt(v)
}

// U256FromBig converts a *big.Int into a U256, wrapping (truncating) if the value does not fit,
// matching the EVM's own modular arithmetic.
func U256FromBig(v *big.Int) *U256 {
	u, _ := uint256.FromBig(v)
	return u
}

// U512 is used only for economic value accounting in the flash-loan tracker (see flashloan
// package), where `owed`/`earned` are scaled by 1e6 before accumulation and could otherwise
// overflow a 256-bit accumulator. The example corpus has no native 512-bit integer type
// (`holiman/uint256` stops at 256 bits); medusa itself reaches for `math/big.Int` whenever a
// value could exceed a machine word (see fuzzing/calls/call_message.go's `MsgValue *big.Int`),
// so `big.Int` is the grounded choice here rather than a hand-rolled 512-bit type.
type U512 = big.Int

// ValueScale is the factor by which every economic quantity is scaled before being folded into a
// U512 accumulator, so that fixed-point fractional rates (PairData.Rate, scaled by 1e6) can be
// multiplied against a raw token amount without losing precision.
var ValueScale = big.NewInt(1_000_000)

// ScaledU512 returns (amount * ValueScale) as a U512, the standard conversion used whenever a
// U256 transaction value or token amount enters the flash-loan ledger.
func ScaledU512(amount *U256) *U512 {
	return new(big.Int).Mul(amount.ToBig(), ValueScale)
}
