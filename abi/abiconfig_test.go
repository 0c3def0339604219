package abi

import (
	"testing"

	gethabi "github.com/crytic/medusa-geth/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func erc20ABI() []ABIConfig {
	return []ABIConfig{
		{FunctionName: "balanceOf"},
		{FunctionName: "transfer"},
		{FunctionName: "transferFrom"},
		{FunctionName: "approve"},
		{FunctionName: "totalSupply"},
	}
}

func pairABI() []ABIConfig {
	return []ABIConfig{
		{FunctionName: "skim"},
		{FunctionName: "sync"},
		{FunctionName: "swap"},
		{FunctionName: "getReserves"},
	}
}

func TestIsERC20ABIRequiresFullSurface(t *testing.T) {
	assert.True(t, IsERC20ABI(NameSet(erc20ABI())))

	partial := NameSet([]ABIConfig{{FunctionName: "balanceOf"}, {FunctionName: "transfer"}})
	assert.False(t, IsERC20ABI(partial))
}

func TestIsPairABIRequiresFullSurface(t *testing.T) {
	assert.True(t, IsPairABI(NameSet(pairABI())))
	assert.False(t, IsPairABI(NameSet(erc20ABI())))
}

func TestABIMapLastWriteWins(t *testing.T) {
	m := NewABIMap()
	sel := [4]byte{0xaa, 0xbb, 0xcc, 0xdd}
	m.Insert(ABIConfig{Function: sel, FunctionName: "first"})
	m.Insert(ABIConfig{Function: sel, FunctionName: "second"})

	cfg, ok := m.Get(sel)
	require.True(t, ok)
	assert.Equal(t, "second", cfg.FunctionName)
	assert.Equal(t, 1, m.Len())
}

func TestABIMapGetMissingSelector(t *testing.T) {
	m := NewABIMap()
	_, ok := m.Get([4]byte{0x00, 0x00, 0x00, 0x01})
	assert.False(t, ok)
}

func TestParseArgTypesEmptyString(t *testing.T) {
	types, err := ParseArgTypes("()")
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestParseArgTypesNested(t *testing.T) {
	types, err := ParseArgTypes("(address,uint256[],bool)")
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "address", types[0].String())
	assert.Equal(t, gethabi.SliceTy, types[1].T)
	assert.Equal(t, gethabi.BoolTy, types[2].T)
}
