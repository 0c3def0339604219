package vmexec

import (
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/tracing"
	"github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/holiman/uint256"

	"github.com/crytic/hydrafuzz/evmtypes"
)

// stateDBAdapter implements medusa-geth's vm.StateDB on top of a plain EVMState, so the
// interpreter can be driven directly against the fuzzer's lightweight in-memory world instead of
// a full Merkle-trie-backed StateDB. This is the Go analogue of the "EVMState" host ityfuzz builds
// around its revm fork: balances/storage live in simple maps, not a trie.
type stateDBAdapter struct {
	state         *EVMState
	snapshots     []*EVMState
	refund        uint64
	accessedAddrs map[common.Address]bool
	accessedSlots map[common.Address]map[common.Hash]bool
	logs          []*types.Log
	selfDestructs map[common.Address]bool
}

func newStateDBAdapter(state *EVMState) *stateDBAdapter {
	return &stateDBAdapter{
		state:         state,
		accessedAddrs: make(map[common.Address]bool),
		accessedSlots: make(map[common.Address]map[common.Hash]bool),
		selfDestructs: make(map[common.Address]bool),
	}
}

func (s *stateDBAdapter) CreateAccount(addr common.Address) {
	if _, ok := s.state.Balances[addr]; !ok {
		s.state.Balances[addr] = big.NewInt(0)
	}
}

func (s *stateDBAdapter) CreateContract(addr common.Address) {
	s.CreateAccount(addr)
}

func (s *stateDBAdapter) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int {
	prev := s.state.GetBalance(addr)
	out := new(big.Int).Sub(prev, amount.ToBig())
	s.state.SetBalance(addr, out)
	u, _ := uint256.FromBig(prev)
	return *u
}

func (s *stateDBAdapter) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int {
	prev := s.state.GetBalance(addr)
	out := new(big.Int).Add(prev, amount.ToBig())
	s.state.SetBalance(addr, out)
	u, _ := uint256.FromBig(prev)
	return *u
}

func (s *stateDBAdapter) GetBalance(addr common.Address) *uint256.Int {
	u, _ := uint256.FromBig(s.state.GetBalance(addr))
	return u
}

func (s *stateDBAdapter) GetNonce(addr common.Address) uint64 {
	return 0
}

func (s *stateDBAdapter) SetNonce(addr common.Address, nonce uint64) {}

func (s *stateDBAdapter) GetCodeHash(addr common.Address) common.Hash {
	code, ok := s.state.DeployedCode[addr]
	if !ok {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(code.Code)
}

func (s *stateDBAdapter) GetCode(addr common.Address) []byte {
	if code, ok := s.state.DeployedCode[addr]; ok {
		return code.Code
	}
	return nil
}

func (s *stateDBAdapter) SetCode(addr common.Address, code []byte) {
	s.state.DeployedCode[addr] = evmtypes.NewBytecode(code)
}

func (s *stateDBAdapter) GetCodeSize(addr common.Address) int {
	return len(s.GetCode(addr))
}

func (s *stateDBAdapter) AddRefund(gas uint64)  { s.refund += gas }
func (s *stateDBAdapter) SubRefund(gas uint64)  { s.refund -= gas }
func (s *stateDBAdapter) GetRefund() uint64     { return s.refund }

func (s *stateDBAdapter) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	return s.hashState(addr, key)
}

func (s *stateDBAdapter) GetState(addr common.Address, key common.Hash) common.Hash {
	return s.hashState(addr, key)
}

func (s *stateDBAdapter) hashState(addr common.Address, key common.Hash) common.Hash {
	k := *uint256.NewInt(0).SetBytes(key.Bytes())
	v := s.state.GetStorage(addr, k)
	return common.BytesToHash(v.Bytes())
}

func (s *stateDBAdapter) SetState(addr common.Address, key, value common.Hash) {
	k := *uint256.NewInt(0).SetBytes(key.Bytes())
	v := *uint256.NewInt(0).SetBytes(value.Bytes())
	s.state.SetStorage(addr, k, v)
}

func (s *stateDBAdapter) GetStorageRoot(addr common.Address) common.Hash {
	return common.Hash{}
}

func (s *stateDBAdapter) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash{}
}
func (s *stateDBAdapter) SetTransientState(addr common.Address, key, value common.Hash) {}

func (s *stateDBAdapter) SelfDestruct(addr common.Address) uint256.Int {
	s.selfDestructs[addr] = true
	bal := s.GetBalance(addr)
	s.state.SetBalance(addr, big.NewInt(0))
	return *bal
}

func (s *stateDBAdapter) HasSelfDestructed(addr common.Address) bool {
	return s.selfDestructs[addr]
}

func (s *stateDBAdapter) Selfdestruct6780(addr common.Address) (uint256.Int, bool) {
	bal := s.SelfDestruct(addr)
	return bal, true
}

func (s *stateDBAdapter) Exist(addr common.Address) bool {
	_, ok := s.state.Balances[addr]
	if ok {
		return true
	}
	_, ok = s.state.DeployedCode[addr]
	return ok
}

func (s *stateDBAdapter) Empty(addr common.Address) bool {
	return !s.Exist(addr) || (s.GetBalance(addr).Sign() == 0 && s.GetCodeSize(addr) == 0 && s.GetNonce(addr) == 0)
}

func (s *stateDBAdapter) AddressInAccessList(addr common.Address) bool {
	return s.accessedAddrs[addr]
}

func (s *stateDBAdapter) SlotInAccessList(addr common.Address, slot common.Hash) (bool, bool) {
	addrOK := s.accessedAddrs[addr]
	slots, ok := s.accessedSlots[addr]
	return addrOK, ok && slots[slot]
}

func (s *stateDBAdapter) AddAddressToAccessList(addr common.Address) {
	s.accessedAddrs[addr] = true
}

func (s *stateDBAdapter) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.accessedAddrs[addr] = true
	if s.accessedSlots[addr] == nil {
		s.accessedSlots[addr] = make(map[common.Hash]bool)
	}
	s.accessedSlots[addr][slot] = true
}

func (s *stateDBAdapter) Snapshot() int {
	s.snapshots = append(s.snapshots, s.state.Fork())
	return len(s.snapshots) - 1
}

func (s *stateDBAdapter) RevertToSnapshot(id int) {
	if id < 0 || id >= len(s.snapshots) {
		return
	}
	s.state = s.snapshots[id]
	s.snapshots = s.snapshots[:id]
}

func (s *stateDBAdapter) AddLog(log *types.Log) {
	s.logs = append(s.logs, log)
}

func (s *stateDBAdapter) AddPreimage(hash common.Hash, preimage []byte) {}
