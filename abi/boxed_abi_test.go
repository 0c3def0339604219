package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoxedABIAllocatesZeroValues(t *testing.T) {
	gen := NewRandomValueGenerator(1)
	boxed, err := NewBoxedABI("(address,uint256,bool)", gen)
	require.NoError(t, err)
	require.Len(t, boxed.Values, 3)
	assert.Equal(t, false, boxed.Values[2])
}

func TestBoxedABISetFuncWithSignatureStampsSelector(t *testing.T) {
	gen := NewRandomValueGenerator(1)
	boxed, err := NewBoxedABI("(uint256)", gen)
	require.NoError(t, err)

	sel := [4]byte{0x01, 0x02, 0x03, 0x04}
	boxed.SetFuncWithSignature(sel, "transfer", "(uint256)")
	assert.Equal(t, sel, boxed.Selector)
	assert.Equal(t, "transfer", boxed.FunctionName)
}

func TestBoxedABICloneIsIndependent(t *testing.T) {
	gen := NewRandomValueGenerator(1)
	boxed, err := NewBoxedABI("(bytes)", gen)
	require.NoError(t, err)
	boxed.Values[0] = []byte{0x01, 0x02}

	clone := boxed.Clone()
	cloneBytes := clone.Values[0].([]byte)
	cloneBytes[0] = 0xff

	original := boxed.Values[0].([]byte)
	assert.Equal(t, byte(0x01), original[0])
	assert.Equal(t, byte(0xff), cloneBytes[0])
}

func TestBoxedABIPackEncodesSelectorAndArgs(t *testing.T) {
	gen := NewRandomValueGenerator(1)
	boxed, err := NewBoxedABI("(uint256)", gen)
	require.NoError(t, err)
	boxed.SetFuncWithSignature([4]byte{0xde, 0xad, 0xbe, 0xef}, "foo", "(uint256)")

	packed, err := boxed.Pack()
	require.NoError(t, err)
	require.True(t, len(packed) >= 4)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, packed[:4])
	assert.Len(t, packed, 4+32)
}
