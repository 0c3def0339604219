package evmtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSelectorsFindsDispatchedSelector(t *testing.T) {
	// PUSH4 0xa9059cbb (transfer(address,uint256)) EQ PUSH1 JUMPI
	code := []byte{
		opPUSH4, 0xa9, 0x05, 0x9c, 0xbb,
		opEQ,
		opPUSH1, 0x10,
		opJUMPI,
	}
	selectors := ExtractSelectors(code)
	assert.Len(t, selectors, 1)
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, selectors[0])
}

func TestExtractSelectorsIgnoresUnconfirmedPush4(t *testing.T) {
	// A PUSH4 never followed by EQ/JUMPI within the lookahead window is incidental immediate
	// data, not a selector comparison, and must not be reported.
	code := []byte{opPUSH4, 0x01, 0x02, 0x03, 0x04, opPUSH1, 0x00}
	selectors := ExtractSelectors(code)
	assert.Empty(t, selectors)
}

func TestExtractSelectorsSkipsPushImmediates(t *testing.T) {
	// A PUSH32 immediate that happens to contain bytes resembling PUSH4/EQ/JUMPI opcodes must
	// not be mistaken for real instructions.
	immediate := make([]byte, 32)
	immediate[0] = opPUSH4
	immediate[1] = opEQ
	immediate[2] = opJUMPI
	code := append([]byte{opPUSH32}, immediate...)
	code = append(code, opJUMPDEST)

	selectors := ExtractSelectors(code)
	assert.Empty(t, selectors)

	bc := NewBytecode(code)
	assert.True(t, bc.JumpDests[uint64(len(code)-1)])
}

func TestNewBytecodeAnalyzesJumpDests(t *testing.T) {
	code := []byte{opJUMPDEST, opPUSH1, 0x00, opJUMPDEST}
	bc := NewBytecode(code)
	assert.True(t, bc.JumpDests[0])
	assert.True(t, bc.JumpDests[3])
	assert.Len(t, bc.JumpDests, 2)
}
