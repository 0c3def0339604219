package evmtypes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaledU512ScalesByValueScale(t *testing.T) {
	amount := NewU256(5)
	scaled := ScaledU512(amount)
	assert.Equal(t, big.NewInt(5_000_000), scaled)
}

func TestScaledU512DoesNotOverflowBeyond256Bits(t *testing.T) {
	// max uint256 * 1e6 overflows a 256-bit accumulator but must not overflow U512 (big.Int).
	maxU256 := new(U256).Not(NewU256(0))
	scaled := ScaledU512(maxU256)

	expected := new(big.Int).Mul(maxU256.ToBig(), ValueScale)
	assert.Equal(t, expected, scaled)
	assert.Equal(t, 1, scaled.Cmp(maxU256.ToBig()))
}

func TestU256FromBigWrapsOnOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 257)
	u := U256FromBig(huge)
	assert.NotNil(t, u)
}
