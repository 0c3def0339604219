// Package fuzzinput defines the fuzzer's unit of work — a transaction (EVMInput) staged against a
// parent VM state (StagedVMState) — and the access-pattern bookkeeping attached to each input.
package fuzzinput

import (
	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/evmtypes"
)

// EVMInputType tags the kind of transaction an EVMInput represents. Borrow is a sentinel type:
// its representation is kept uniform with ABI inputs (same envelope) and disambiguated purely by
// this tag, rather than requiring new scheduler machinery (spec.md §9).
type EVMInputType int

const (
	// InputTypeABI is a normal ABI-encoded call against a seeded function.
	InputTypeABI EVMInputType = iota
	// InputTypeBorrow is the synthetic flash-loan "credit the caller, debit the pool" input
	// enqueued whenever a new ERC-20 is classified (see NewBorrowInput, called by the corpus
	// initializer).
	InputTypeBorrow
)

// AccessPattern records which storage slots/addresses an input's execution touched, threaded
// through to the scheduler so it can weight inputs that reach new state. Its consumer (the
// concrete corpus-scheduling/coverage-feedback algorithm) is out of scope for this core
// (spec.md §1); this core only allocates and carries the structure.
type AccessPattern struct {
	ReadSlots  map[evmtypes.Address]map[evmtypes.Hash]bool
	WriteSlots map[evmtypes.Address]map[evmtypes.Hash]bool
}

// NewAccessPattern returns an empty AccessPattern.
func NewAccessPattern() *AccessPattern {
	return &AccessPattern{
		ReadSlots:  make(map[evmtypes.Address]map[evmtypes.Hash]bool),
		WriteSlots: make(map[evmtypes.Address]map[evmtypes.Hash]bool),
	}
}

// EVMInput is one fuzz test case: a transaction to send, a staged parent-state index to fork it
// from, and the bookkeeping the middleware/oracle pipeline needs while running it.
type EVMInput struct {
	// Caller is the sending address.
	Caller evmtypes.Address

	// Contract is the target address.
	Contract evmtypes.Address

	// Data is the boxed ABI call this input encodes. Nil only for the synthetic `!receive!`
	// function (a bare ETH transfer with no calldata).
	Data *abi.BoxedABI

	// StagedStateIndex is the index into the infant corpus this input's transaction is staged on
	// top of.
	StagedStateIndex int

	// TxnValue is the ETH value to send. Present iff the target function is payable, or always
	// present (and non-nil) for a Borrow input.
	TxnValue *evmtypes.U256

	// Step indicates this input continues an in-progress call sequence rather than starting a
	// fresh one against its staged state.
	Step bool

	// AccessPattern tracks storage touched during this input's last execution.
	AccessPattern *AccessPattern

	// LiquidationPercent is the 0-100 percentage of unliquidated token balance the flash-loan
	// model should attempt to liquidate for this input, when InputType is InputTypeBorrow.
	LiquidationPercent uint8

	// InputType tags this as an ordinary ABI call or a synthetic Borrow.
	InputType EVMInputType

	// DirectData carries raw calldata bytes for inputs that bypass ABI encoding entirely.
	DirectData []byte

	// Randomness is scheduler-owned entropy carried alongside the input; this core only
	// allocates and threads it through (see AccessPattern doc).
	Randomness []byte

	// Repeat is how many times this input should be replayed in sequence; always >= 1.
	Repeat int
}

// NewSeedABIInput constructs a seed EVMInput for a single callable ABI function, following the
// construction rules in spec.md §4.1 step 10: repeat=1, randomness=[0], an uninitialized staged
// state reference, and txn_value present iff payable.
func NewSeedABIInput(caller, contract evmtypes.Address, cfg abi.ABIConfig, boxed *abi.BoxedABI) *EVMInput {
	input := &EVMInput{
		Caller:             caller,
		Contract:           contract,
		StagedStateIndex:   0,
		AccessPattern:      NewAccessPattern(),
		LiquidationPercent: 0,
		InputType:          InputTypeABI,
		Randomness:         []byte{0},
		Repeat:             1,
	}
	if cfg.FunctionName != "!receive!" {
		input.Data = boxed
	}
	if cfg.IsPayable {
		input.TxnValue = evmtypes.NewU256(0)
	}
	return input
}

// BorrowValue is the fixed ETH value (10 "ether" in 18-decimal base units) assigned to every
// synthetic Borrow input, per spec.md §6's fixed constants.
var BorrowValue = mustU256FromDecimal("10000000000000000000")

func mustU256FromDecimal(s string) *evmtypes.U256 {
	u := new(evmtypes.U256)
	if err := u.SetFromDecimal(s); err != nil {
		panic(err)
	}
	return u
}

// NewBorrowInput constructs the synthetic transaction enqueued whenever a new ERC-20 is
// classified: a Borrow-typed input against the token with BorrowValue and a random caller,
// interpreted by the flash-loan middleware as "credit the caller before execution" (spec.md §4.3).
func NewBorrowInput(caller, token evmtypes.Address) *EVMInput {
	return &EVMInput{
		Caller:             caller,
		Contract:           token,
		StagedStateIndex:   0,
		TxnValue:           BorrowValue,
		AccessPattern:      NewAccessPattern(),
		LiquidationPercent: 0,
		InputType:          InputTypeBorrow,
		Randomness:         []byte{0},
		Repeat:             1,
	}
}

// Clone deep-copies an EVMInput so a scheduled/mutated copy never aliases the seed that produced
// it.
func (in *EVMInput) Clone() *EVMInput {
	clone := *in
	if in.Data != nil {
		clone.Data = in.Data.Clone()
	}
	if in.TxnValue != nil {
		clone.TxnValue = new(evmtypes.U256).Set(in.TxnValue)
	}
	clone.AccessPattern = NewAccessPattern()
	return &clone
}
