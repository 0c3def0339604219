package flashloan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/evmtypes"
	"github.com/crytic/hydrafuzz/vmexec"
)

func erc20ABI() []abi.ABIConfig {
	return []abi.ABIConfig{
		{FunctionName: "balanceOf"},
		{FunctionName: "transfer"},
		{FunctionName: "transferFrom"},
		{FunctionName: "approve"},
	}
}

func pairABI() []abi.ABIConfig {
	return []abi.ABIConfig{
		{FunctionName: "skim"},
		{FunctionName: "sync"},
		{FunctionName: "swap"},
	}
}

func TestClassifyContractDetectsERC20(t *testing.T) {
	var detected evmtypes.Address
	m := NewMiddleware(&DummyPriceOracle{}, nil)
	m.OnERC20Detected = func(addr evmtypes.Address) { detected = addr }

	addr := evmtypes.FixedAddress("0x000000000000000000000000000000000000000a")
	isERC20, isPair := m.ClassifyContract(addr, erc20ABI())

	assert.True(t, isERC20)
	assert.False(t, isPair)
	assert.Equal(t, addr, detected)
}

func TestClassifyContractDetectsPair(t *testing.T) {
	var detected evmtypes.Address
	m := NewMiddleware(&DummyPriceOracle{}, nil)
	m.OnPairDetected = func(addr evmtypes.Address) { detected = addr }

	addr := evmtypes.FixedAddress("0x000000000000000000000000000000000000000b")
	isERC20, isPair := m.ClassifyContract(addr, pairABI())

	assert.False(t, isERC20)
	assert.True(t, isPair)
	assert.Equal(t, addr, detected)
}

func TestClassifyContractIsIdempotentPerAddress(t *testing.T) {
	m := NewMiddleware(&DummyPriceOracle{}, nil)
	addr := evmtypes.FixedAddress("0x000000000000000000000000000000000000000c")

	isERC20, _ := m.ClassifyContract(addr, erc20ABI())
	require.True(t, isERC20)

	// Second classification of the same address reports neither, matching the
	// already-classified short circuit.
	isERC20Again, isPairAgain := m.ClassifyContract(addr, erc20ABI())
	assert.False(t, isERC20Again)
	assert.False(t, isPairAgain)
}

func TestAnalyzeCallScalesOwedAndFlagsRecheck(t *testing.T) {
	m := NewMiddleware(&DummyPriceOracle{}, nil)
	pair := evmtypes.FixedAddress("0x000000000000000000000000000000000000000d")
	m.ClassifyContract(pair, pairABI())

	data := vmexec.NewFlashloanData()
	value := evmtypes.NewU256(100)
	m.AnalyzeCall(pair, value, data)

	assert.Equal(t, evmtypes.ScaledU512(value), data.Owed)
	assert.True(t, data.OracleRecheckReserve[pair])
}

func TestAnalyzeCallIgnoresZeroValue(t *testing.T) {
	m := NewMiddleware(&DummyPriceOracle{}, nil)
	data := vmexec.NewFlashloanData()
	m.AnalyzeCall(evmtypes.Address{}, evmtypes.NewU256(0), data)
	assert.Equal(t, int64(0), data.Owed.Int64())
}
