// Package vmexec owns the instrumented EVM executor: the global EVMState, the FuzzHost that runs
// the interpreter with a middleware chain hooked to every opcode, and the StagedVMState wrapper
// stored in the infant corpus. It is the Go analogue of medusa's chain.TestChain plus
// fuzzing/tracing.FuzzerTracer, rebuilt around a lightweight in-memory state model (balances +
// storage maps) rather than a full Merkle-trie StateDB, matching the "EVMState" described in
// spec.md §3.
package vmexec

import (
	"math/big"

	"github.com/crytic/hydrafuzz/evmtypes"
)

// FlashloanData is the economic value ledger threaded through a transaction sequence: flagged
// addresses needing re-valuation, and monotonically non-decreasing owed/earned accumulators
// (spec.md §3/§4.3). It lives inside EVMState and is forked/inherited along with it.
type FlashloanData struct {
	OracleRecheckReserve map[evmtypes.Address]bool
	OracleRecheckBalance map[evmtypes.Address]bool
	Owed                 *evmtypes.U512
	Earned               *evmtypes.U512
	PrevReserves         map[evmtypes.Address][2]*evmtypes.U256
	UnliquidatedTokens   map[evmtypes.Address]*evmtypes.U256
	ExtraInfo            string
}

// NewFlashloanData returns a zeroed FlashloanData.
func NewFlashloanData() *FlashloanData {
	return &FlashloanData{
		OracleRecheckReserve: make(map[evmtypes.Address]bool),
		OracleRecheckBalance: make(map[evmtypes.Address]bool),
		Owed:                 new(big.Int),
		Earned:               new(big.Int),
		PrevReserves:         make(map[evmtypes.Address][2]*evmtypes.U256),
		UnliquidatedTokens:   make(map[evmtypes.Address]*evmtypes.U256),
	}
}

// Clone returns an independent copy, used whenever an EVMState is forked for a new fuzz step.
func (f *FlashloanData) Clone() *FlashloanData {
	clone := NewFlashloanData()
	for k := range f.OracleRecheckReserve {
		clone.OracleRecheckReserve[k] = true
	}
	for k := range f.OracleRecheckBalance {
		clone.OracleRecheckBalance[k] = true
	}
	clone.Owed.Set(f.Owed)
	clone.Earned.Set(f.Earned)
	for k, v := range f.PrevReserves {
		clone.PrevReserves[k] = v
	}
	for k, v := range f.UnliquidatedTokens {
		clone.UnliquidatedTokens[k] = new(evmtypes.U256).Set(v)
	}
	clone.ExtraInfo = f.ExtraInfo
	return clone
}

// TypedBug is one recorded invariant violation: which named bug fired, at which address and
// program counter. Recorded through EVMState.PushTypedBug and consumed by the TypedBugOracle; the
// executor in this package has no opcode hook that calls PushTypedBug.
type TypedBug struct {
	BugID string
	Addr  evmtypes.Address
	PC    uint64
}

// EVMState is the global VM world the executor mutates: per-address storage, balances, the
// flash-loan ledger, the set of fired typed-bug markers, and the map of deployed code. It is
// exclusively owned by its StagedVMState wrapper; forking it produces an independent copy.
type EVMState struct {
	Balances   map[evmtypes.Address]*big.Int
	Storage    map[evmtypes.Address]map[evmtypes.U256]evmtypes.U256
	DeployedCode map[evmtypes.Address]*evmtypes.Bytecode
	Flashloan  *FlashloanData
	TypedBugs  []TypedBug
}

// NewEVMState returns an empty EVMState.
func NewEVMState() *EVMState {
	return &EVMState{
		Balances:     make(map[evmtypes.Address]*big.Int),
		Storage:      make(map[evmtypes.Address]map[evmtypes.U256]evmtypes.U256),
		DeployedCode: make(map[evmtypes.Address]*evmtypes.Bytecode),
		Flashloan:    NewFlashloanData(),
	}
}

// SetBalance sets an account's ETH balance, creating the entry if absent.
func (s *EVMState) SetBalance(addr evmtypes.Address, balance *big.Int) {
	s.Balances[addr] = new(big.Int).Set(balance)
}

// GetBalance returns an account's ETH balance, zero if unset.
func (s *EVMState) GetBalance(addr evmtypes.Address) *big.Int {
	if b, ok := s.Balances[addr]; ok {
		return b
	}
	return big.NewInt(0)
}

// GetStorage returns a single storage slot's value for addr, zero if unset.
func (s *EVMState) GetStorage(addr evmtypes.Address, key evmtypes.U256) evmtypes.U256 {
	if slots, ok := s.Storage[addr]; ok {
		if v, ok := slots[key]; ok {
			return v
		}
	}
	return evmtypes.U256{}
}

// SetStorage writes a single storage slot's value for addr.
func (s *EVMState) SetStorage(addr evmtypes.Address, key, value evmtypes.U256) {
	if s.Storage[addr] == nil {
		s.Storage[addr] = make(map[evmtypes.U256]evmtypes.U256)
	}
	s.Storage[addr][key] = value
}

// PushTypedBug records a fired invariant marker, read back by TypedBugOracle after each step.
func (s *EVMState) PushTypedBug(bugID string, addr evmtypes.Address, pc uint64) {
	s.TypedBugs = append(s.TypedBugs, TypedBug{BugID: bugID, Addr: addr, PC: pc})
}

// Fork produces a new, independently owned EVMState copying this one's balances, storage, and
// flash-loan ledger, as performed whenever a new fuzz step forks its parent staged state.
// TypedBugs is reset: bug markers are transaction-scoped, not inherited across forks.
func (s *EVMState) Fork() *EVMState {
	clone := NewEVMState()
	for addr, bal := range s.Balances {
		clone.Balances[addr] = new(big.Int).Set(bal)
	}
	for addr, slots := range s.Storage {
		cloneSlots := make(map[evmtypes.U256]evmtypes.U256, len(slots))
		for k, v := range slots {
			cloneSlots[k] = v
		}
		clone.Storage[addr] = cloneSlots
	}
	for addr, code := range s.DeployedCode {
		clone.DeployedCode[addr] = code
	}
	clone.Flashloan = s.Flashloan.Clone()
	return clone
}
