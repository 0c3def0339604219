package vmexec

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/vm"
	"github.com/crytic/medusa-geth/params"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/crytic/hydrafuzz/evmtypes"
)

// InitialBalance is the ETH balance every default/contract caller account is funded with when the
// corpus initializer sets it up (spec.md §4.1 step 2, §6).
var InitialBalance = new(big.Int).Mul(big.NewInt(100), big.NewInt(1_000_000_000_000_000_000))

// ExecResult carries everything downstream oracles and the scheduler need from one executed
// EVMInput: the return data, whether it reverted, gas used, and the fired typed-bug markers
// observed during this call.
type ExecResult struct {
	ReturnData []byte
	Reverted   bool
	Err        error
	GasUsed    uint64
	NewAddress evmtypes.Address
	TypedBugs  []TypedBug
}

// FuzzHost is the instrumented EVM executor: it wraps medusa-geth's vm.EVM around our lightweight
// stateDBAdapter and drives every call through the registered MiddlewareChain, the way medusa's
// chain.TestChain drives its tracerForwarder-equipped vm.EVM. Unlike TestChain, FuzzHost never
// commits to a trie-backed database or builds real blocks; it executes directly against
// in-memory EVMState, matching the "EVMState"/"FuzzHost" pairing in spec.md §3/§4.2.
type FuzzHost struct {
	chainConfig *params.ChainConfig
	middlewares *MiddlewareChain
	blockNumber uint64
	blockTime   uint64
	coinbase    common.Address
}

// NewFuzzHost returns a FuzzHost wired to the given middleware chain, using medusa-geth's default
// mainnet chain config the way medusa's own genesis does (test_chain.go), since consensus-rule
// selection beyond "run the latest hard fork's opcodes" is out of scope for this core.
func NewFuzzHost(chain *MiddlewareChain) *FuzzHost {
	return &FuzzHost{
		chainConfig: params.AllEthashProtocolChanges,
		middlewares: chain,
		blockNumber: 1,
		blockTime:   1,
		coinbase:    common.Address{},
	}
}

func (h *FuzzHost) blockContext(state *EVMState) vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: func(db vm.StateDB, addr common.Address, amount *uint256.Int) bool {
			return db.GetBalance(addr).Cmp(amount) >= 0
		},
		Transfer: func(db vm.StateDB, from, to common.Address, amount *uint256.Int) {
			db.SubBalance(from, amount, 0)
			db.AddBalance(to, amount, 0)
		},
		GetHash:     func(n uint64) common.Hash { return common.BigToHash(new(big.Int).SetUint64(n)) },
		Coinbase:    h.coinbase,
		GasLimit:    ^uint64(0),
		BlockNumber: new(big.Int).SetUint64(h.blockNumber),
		Time:        h.blockTime,
		Difficulty:  common.Big0,
		BaseFee:     big.NewInt(0),
	}
}

// newEVM builds a vm.EVM against the given EVMState, with the executor's middleware chain
// installed as the interpreter's logger via a tracerAdapter, and NoBaseFee set so calls never
// fail base-fee validation the way a real block producer's EVM would (mirrors test_chain.go's
// CallContract path, which sets vm.Config{NoBaseFee: true}).
func (h *FuzzHost) newEVM(state *EVMState, origin common.Address) (*vm.EVM, *stateDBAdapter) {
	adapter := newStateDBAdapter(state)
	txCtx := vm.TxContext{Origin: origin, GasPrice: big.NewInt(0)}
	cfg := vm.Config{
		Debug:     true,
		Tracer:    newTracerAdapter(h.middlewares, state),
		NoBaseFee: true,
	}
	evm := vm.NewEVM(h.blockContext(state), txCtx, adapter, h.chainConfig, cfg)
	return evm, adapter
}

// Deploy runs a CREATE against the given init bytecode, crediting the deployer's balance first if
// it has none (a fuzzer caller should never fail a deployment for lack of gas money). It returns
// the address the contract was actually deployed to.
func (h *FuzzHost) Deploy(state *EVMState, deployer evmtypes.Address, initCode []byte, value *big.Int) (evmtypes.Address, *ExecResult, error) {
	evm, adapter := h.newEVM(state, deployer)
	if adapter.GetBalance(deployer).IsZero() {
		state.SetBalance(deployer, InitialBalance)
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return evmtypes.Address{}, nil, errors.New("deploy value overflows uint256")
	}
	ret, addr, leftover, err := evm.Create(vm.AccountRef(deployer), initCode, ^uint64(0), v)
	if err == nil {
		h.middlewares.contractInsertion(addr, h.Code(state, addr), state)
	}
	result := &ExecResult{
		ReturnData: ret,
		Reverted:   err != nil,
		Err:        err,
		GasUsed:    ^uint64(0) - leftover,
		NewAddress: addr,
		TypedBugs:  state.TypedBugs,
	}
	state.TypedBugs = nil
	return addr, result, nil
}

// SetCode installs already-compiled runtime bytecode at an address directly, bypassing a
// constructor run. Used for off-chain/on-chain target contracts that are loaded already-deployed
// (spec.md §4.1: "deploy (or directly set code for already-deployed targets)").
func (h *FuzzHost) SetCode(state *EVMState, addr evmtypes.Address, code []byte) {
	state.DeployedCode[addr] = evmtypes.NewBytecode(code)
	h.middlewares.contractInsertion(addr, code, state)
}

// Code returns the runtime bytecode deployed at addr, nil if none.
func (h *FuzzHost) Code(state *EVMState, addr evmtypes.Address) []byte {
	if bc, ok := state.DeployedCode[addr]; ok {
		return bc.Code
	}
	return nil
}

// Call runs a CALL against an already-deployed contract: the executor's main transaction-sending
// entry point for an EVMInput (spec.md §4.2's "run the instrumented interpreter" operation).
func (h *FuzzHost) Call(state *EVMState, caller, target evmtypes.Address, calldata []byte, value *big.Int) (*ExecResult, error) {
	evm, adapter := h.newEVM(state, caller)
	if adapter.GetBalance(caller).IsZero() {
		state.SetBalance(caller, InitialBalance)
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return nil, errors.New("call value overflows uint256")
	}
	ret, leftover, err := evm.Call(vm.AccountRef(caller), target, calldata, ^uint64(0), v)
	result := &ExecResult{
		ReturnData: ret,
		Reverted:   err != nil,
		Err:        err,
		GasUsed:    ^uint64(0) - leftover,
		TypedBugs:  state.TypedBugs,
	}
	state.TypedBugs = nil
	return result, nil
}

// StaticCall runs a STATICCALL: the mechanism the off-chain pair cache uses to self-execute
// token0/token1/decimals/getReserves/balanceOf selectors against already-deployed bytecode without
// mutating state (spec.md §4.3's off-chain pair-cache derivation).
func (h *FuzzHost) StaticCall(state *EVMState, caller, target evmtypes.Address, calldata []byte) ([]byte, error) {
	evm, _ := h.newEVM(state, caller)
	ret, _, err := evm.StaticCall(vm.AccountRef(caller), target, calldata, ^uint64(0))
	return ret, err
}

// UniswapV2ReservesSlot is the storage slot a standard Uniswap V2 pair packs its reserves into.
const UniswapV2ReservesSlot = 8

// FindStaticCallReadSlot returns UniswapV2ReservesSlot for every target. It does not execute the
// target's code and does not observe which storage slots a call reads.
func (h *FuzzHost) FindStaticCallReadSlot(state *EVMState, target evmtypes.Address) uint64 {
	return UniswapV2ReservesSlot
}
