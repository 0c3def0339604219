package initializer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/contracts"
	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/flashloan"
	"github.com/crytic/hydrafuzz/fuzzconfig"
	"github.com/crytic/hydrafuzz/scheduler"
	"github.com/crytic/hydrafuzz/vmexec"
)

// plainRuntimeBytecode is a minimal valid runtime: STOP. Deployment/ABI recovery correctness is
// exercised independently of a real contract's logic here.
var plainRuntimeBytecode = []byte{0x00}

func newTestInitializer(t *testing.T) (*CorpusInitializer, *vmexec.EVMState) {
	t.Helper()
	chain := vmexec.NewMiddlewareChain()
	host := vmexec.NewFuzzHost(chain)
	state := vmexec.NewEVMState()
	abiMap := abi.NewABIMap()
	config := fuzzconfig.NewFuzzConfig("local")
	flashMid := flashloan.NewMiddleware(&flashloan.DummyPriceOracle{}, nil)
	chain.Register(flashMid)
	gen := abi.NewRandomValueGenerator(1)

	init := New(host, state, abiMap, config, flashMid, nil, gen,
		scheduler.NewRoundRobinInputScheduler(), scheduler.NewRoundRobinStagedStateScheduler(),
		zerolog.Nop())
	return init, state
}

func TestInitializeFundsDefaultAndContractCallers(t *testing.T) {
	init, state := newTestInitializer(t)
	loader := contracts.NewContractLoader(nil)

	_, err := init.Initialize(loader)
	require.NoError(t, err)

	for _, caller := range evmtypes.DefaultCallerAddresses {
		assert.Equal(t, 0, state.GetBalance(caller).Cmp(vmexec.InitialBalance))
	}
	for _, caller := range evmtypes.ContractCallerAddresses {
		assert.Equal(t, 0, state.GetBalance(caller).Cmp(vmexec.InitialBalance))
		assert.NotNil(t, state.DeployedCode[caller])
	}
}

func TestInitializeInstallsCheatcodeStub(t *testing.T) {
	init, state := newTestInitializer(t)
	_, err := init.Initialize(contracts.NewContractLoader(nil))
	require.NoError(t, err)

	bc, ok := state.DeployedCode[evmtypes.CheatcodeAddress]
	require.True(t, ok)
	assert.Equal(t, evmtypes.RevertStubBytecode, bc.Code)
}

func TestInitializeDeploysAlreadyDeployedContractViaSetCode(t *testing.T) {
	init, state := newTestInitializer(t)
	addr := evmtypes.FixedAddress("0x0000000000000000000000000000000000001234")
	contract := &contracts.Contract{
		Name:            "Token",
		Code:            plainRuntimeBytecode,
		DeployedAddress: addr,
		IsCodeDeployed:  true,
		ABI: []abi.ABIConfig{
			{Function: [4]byte{0x01, 0x02, 0x03, 0x04}, FunctionName: "totalSupply", TypeString: "()"},
		},
	}
	loader := contracts.NewContractLoader([]*contracts.Contract{contract})

	artifacts, err := init.Initialize(loader)
	require.NoError(t, err)

	bc, ok := state.DeployedCode[addr]
	require.True(t, ok)
	assert.Equal(t, plainRuntimeBytecode, bc.Code)
	assert.Equal(t, "Token(0x0000000000000000000000000000000000001234)", artifacts.AddressToName[addr])
}

func TestSeedCorpusSkipsConstructorsAndLifecycleHooks(t *testing.T) {
	init, _ := newTestInitializer(t)
	addr := evmtypes.FixedAddress("0x0000000000000000000000000000000000005678")
	contract := &contracts.Contract{
		Name:            "Test",
		Code:            plainRuntimeBytecode,
		DeployedAddress: addr,
		IsCodeDeployed:  true,
		ABI: []abi.ABIConfig{
			{IsConstructor: true, FunctionName: "constructor", TypeString: "()"},
			{FunctionName: "setUp", TypeString: "()"},
			{FunctionName: "invariant_balance", TypeString: "()"},
			{FunctionName: "echidna_alwaysTrue", TypeString: "()"},
			{Function: [4]byte{0xaa, 0xbb, 0xcc, 0xdd}, FunctionName: "doStuff", TypeString: "(uint256)"},
		},
	}
	loader := contracts.NewContractLoader([]*contracts.Contract{contract})

	artifacts, err := init.Initialize(loader)
	require.NoError(t, err)

	objs := artifacts.AddressToABIObjects[addr]
	require.Len(t, objs, 1)
	assert.Equal(t, "doStuff", objs[0].FunctionName)
}

func TestInitializeBlacklistedContractIsNotSeeded(t *testing.T) {
	init, _ := newTestInitializer(t)
	addr := evmtypes.FixedAddress("0x0000000000000000000000000000000000009999")
	init.config.BlacklistAddresses[addr] = true

	contract := &contracts.Contract{
		Name:            "Blocked",
		Code:            plainRuntimeBytecode,
		DeployedAddress: addr,
		IsCodeDeployed:  true,
		ABI: []abi.ABIConfig{
			{Function: [4]byte{0x01, 0x02, 0x03, 0x04}, FunctionName: "doStuff", TypeString: "()"},
		},
	}
	loader := contracts.NewContractLoader([]*contracts.Contract{contract})

	artifacts, err := init.Initialize(loader)
	require.NoError(t, err)
	assert.Empty(t, artifacts.AddressToABIObjects[addr])
}

func TestInitializeStagesInfantCorpusEntry(t *testing.T) {
	init, _ := newTestInitializer(t)
	_, err := init.Initialize(contracts.NewContractLoader(nil))
	require.NoError(t, err)

	require.Len(t, init.StagedStates, 1)
	assert.Equal(t, -1, init.StagedStates[0].FromInputIndex)
}

func TestHandleContractInsertionEnqueuesBorrowForERC20(t *testing.T) {
	init, _ := newTestInitializer(t)
	addr := evmtypes.FixedAddress("0x0000000000000000000000000000000000004242")
	contract := &contracts.Contract{
		Name:            "Coin",
		Code:            plainRuntimeBytecode,
		DeployedAddress: addr,
		IsCodeDeployed:  true,
		ABI: []abi.ABIConfig{
			{FunctionName: "balanceOf", TypeString: "(address)"},
			{FunctionName: "transfer", TypeString: "(address,uint256)"},
			{FunctionName: "transferFrom", TypeString: "(address,address,uint256)"},
			{FunctionName: "approve", TypeString: "(address,uint256)"},
		},
	}
	loader := contracts.NewContractLoader([]*contracts.Contract{contract})

	_, err := init.Initialize(loader)
	require.NoError(t, err)

	idx, ok := init.inputSched.Next()
	require.True(t, ok)
	assert.GreaterOrEqual(t, idx, 0)
}
