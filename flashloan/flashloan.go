package flashloan

import (
	"math/big"

	gethvm "github.com/crytic/medusa-geth/core/vm"

	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/vmexec"
)

// reserveSlot is the standard Uniswap V2 pair storage slot packing reserve0/reserve1/blockTimestampLast,
// hardcoded the same way ityfuzz's on_step hook compares the SSTORE key against EVMU256::from(8).
const reserveSlot = 8

// Middleware is the flash-loan economic-exploit oracle's vmexec.Middleware implementation: it
// classifies every newly inserted contract as ERC-20/pair/neither, tracks which addresses need a
// reserve or balance recheck, accumulates the owed/earned value ledger for every call that moves
// ETH, and flags a reserve recheck when a pair's reserve slot is written. Grounded on ityfuzz's
// Flashloan<VS,I,S> struct.
type Middleware struct {
	oracle PriceOracle

	knownAddresses map[evmtypes.Address]bool
	erc20Address   map[evmtypes.Address]bool
	pairAddress    map[evmtypes.Address]bool

	// callers is consulted by OnStep to decide whether a value transfer's destination is a
	// fuzzer-controlled account (and should therefore count as "earned"), mirroring ityfuzz's
	// `s.has_caller(&call_target)` check.
	callers map[evmtypes.Address]bool

	// OnPairDetected and OnERC20Detected, when set, are invoked synchronously from
	// ClassifyContract with the newly classified address. The corpus initializer does not set
	// them; it acts on ClassifyContract's (isERC20, isPair) return values instead.
	OnPairDetected  func(addr evmtypes.Address)
	OnERC20Detected func(addr evmtypes.Address)
}

// erc20RequiredNames and pairRequiredNames are the exact name-subset checks ityfuzz's
// on_contract_insertion performs: balanceOf/transfer/transferFrom/approve classifies ERC-20,
// skim/sync/swap classifies a pair. They hold the same names as the abi package's own sets behind
// abi.IsERC20ABI/IsPairABI, kept as a separate copy here so the flash-loan middleware's
// classification does not depend on the ABI layer's recognition helpers.
var erc20RequiredNames = []string{"balanceOf", "transfer", "transferFrom", "approve"}
var pairRequiredNames = []string{"skim", "sync", "swap"}

// NewMiddleware returns a flash-loan middleware using the given price oracle (DummyPriceOracle is
// the default when no real feed is configured).
func NewMiddleware(oracle PriceOracle, callers map[evmtypes.Address]bool) *Middleware {
	return &Middleware{
		oracle:         oracle,
		knownAddresses: make(map[evmtypes.Address]bool),
		erc20Address:   make(map[evmtypes.Address]bool),
		pairAddress:    make(map[evmtypes.Address]bool),
		callers:        callers,
	}
}

func hasAllNames(abis []abi.ABIConfig, required []string) bool {
	names := make(map[string]bool, len(abis))
	for _, a := range abis {
		names[a.FunctionName] = true
	}
	for _, r := range required {
		if !names[r] {
			return false
		}
	}
	return true
}

// ClassifyContract classifies a newly deployed/loaded contract as ERC-20, pair, both, or neither
// by ABI name-subset matching, exactly ityfuzz's on_contract_insertion. Returns (isERC20, isPair)
// so the corpus initializer can decide whether to enqueue a Borrow input. Called directly by the
// initializer once ABI recovery completes — ABI is not available at the vmexec.Middleware
// contract-insertion hook, which only sees raw bytecode (see OnContractInsertion below).
func (m *Middleware) ClassifyContract(addr evmtypes.Address, abis []abi.ABIConfig) (isERC20, isPair bool) {
	if m.knownAddresses[addr] {
		return false, false
	}
	m.knownAddresses[addr] = true

	if hasAllNames(abis, erc20RequiredNames) {
		m.erc20Address[addr] = true
		isERC20 = true
		if m.OnERC20Detected != nil {
			m.OnERC20Detected(addr)
		}
	}
	if hasAllNames(abis, pairRequiredNames) {
		m.pairAddress[addr] = true
		isPair = true
		if m.OnPairDetected != nil {
			m.OnPairDetected(addr)
		}
	}
	return isERC20, isPair
}

// OnContractInsertion satisfies vmexec.Middleware. It is intentionally a no-op: the middleware
// chain's insertion hook only sees raw bytecode, while classification needs a recovered ABI, so
// the real work happens in ClassifyContract, called by the corpus initializer once ABI recovery
// completes for this address (spec.md §4.1 step 8).
func (m *Middleware) OnContractInsertion(addr evmtypes.Address, code []byte, state *vmexec.EVMState) {
}

// AnalyzeCall folds a single EVMInput's outgoing value and target classification into the
// transaction sequence's FlashloanData ledger, mirroring analyze_call: any attached txn value is
// scaled by 1e6 and added to owed, and a recheck is flagged if the target is a known ERC-20/pair.
func (m *Middleware) AnalyzeCall(target evmtypes.Address, txnValue *evmtypes.U256, data *vmexec.FlashloanData) {
	if txnValue != nil && !txnValue.IsZero() {
		scaled := evmtypes.ScaledU512(txnValue)
		data.Owed.Add(data.Owed, scaled)
	}
	if m.erc20Address[target] {
		data.OracleRecheckBalance[target] = true
	}
	if m.pairAddress[target] {
		data.OracleRecheckReserve[target] = true
	}
}

// OnStep watches every opcode for two signals: an SSTORE into a known pair's reserve slot (flags
// a reserve recheck), and a value-carrying CALL/CALLCODE whose destination is a fuzzer-controlled
// caller (accumulates "earned"), or whose destination is a known ERC-20 (flags a balance
// recheck). This is the direct translation of ityfuzz's unsafe on_step match over 0x55/0xf1/0xfa.
func (m *Middleware) OnStep(pc uint64, op gethvm.OpCode, scope *gethvm.ScopeContext, state *vmexec.EVMState) {
	switch op {
	case gethvm.SSTORE:
		addr := scope.Contract.Address()
		if m.pairAddress[addr] && scope.Stack.Len() > 0 {
			key := scope.Stack.Back(0)
			if key.IsUint64() && key.Uint64() == reserveSlot {
				state.Flashloan.OracleRecheckReserve[addr] = true
			}
		}
	case gethvm.CALL, gethvm.CALLCODE:
		if scope.Stack.Len() < 3 {
			return
		}
		valueWord := scope.Stack.Back(2)
		targetWord := scope.Stack.Back(1)
		target := evmtypes.Address(targetWord.Bytes20())
		if !valueWord.IsZero() {
			if m.callers[target] {
				scaled := evmtypes.ScaledU512(new(evmtypes.U256).Set(valueWord))
				state.Flashloan.Earned.Add(state.Flashloan.Earned, scaled)
			}
		}
		if m.erc20Address[target] {
			state.Flashloan.OracleRecheckBalance[target] = true
		}
	case gethvm.STATICCALL:
		// static calls never mutate balance/reserves; nothing to record (mirrors the ityfuzz
		// early-return for 0xfa).
	}
}

// OnCallEnter and OnCallExit are unused by the flash-loan ledger today: all of its signal comes
// from the opcode-level OnStep hook, which already sees CALL/CALLCODE/SSTORE before the
// interpreter descends into the callee. They exist only to satisfy vmexec.Middleware.
func (m *Middleware) OnCallEnter(typ gethvm.OpCode, from, to evmtypes.Address, input []byte, value *big.Int, state *vmexec.EVMState) {
}

func (m *Middleware) OnCallExit(output []byte, err error, state *vmexec.EVMState) {}
