package vmexec

import (
	"math/big"
	"time"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/vm"
)

// tracerAdapter implements medusa-geth's vm.EVMLogger by forwarding CaptureState/CaptureEnter/
// CaptureExit to a MiddlewareChain, exactly the role medusa's fuzzing/tracing.MultiTracer plays
// for its own registered tracers — except here the chain is our own Middleware interface, which
// can mutate EVMState, rather than a passive vm.EVMLogger.
type tracerAdapter struct {
	chain *MiddlewareChain
	state *EVMState
}

func newTracerAdapter(chain *MiddlewareChain, state *EVMState) *tracerAdapter {
	return &tracerAdapter{chain: chain, state: state}
}

func (t *tracerAdapter) CaptureStart(env *vm.EVM, from common.Address, to common.Address, create bool, input []byte, gas uint64, value *big.Int) {
}

func (t *tracerAdapter) CaptureState(pc uint64, op vm.OpCode, gas, cost uint64, scope *vm.ScopeContext, rData []byte, depth int, vmErr error) {
	t.chain.step(pc, op, scope, t.state)
}

func (t *tracerAdapter) CaptureFault(pc uint64, op vm.OpCode, gas, cost uint64, scope *vm.ScopeContext, depth int, err error) {
}

func (t *tracerAdapter) CaptureEnd(output []byte, gasUsed uint64, d time.Duration, err error) {
	t.chain.callExit(output, err, t.state)
}

func (t *tracerAdapter) CaptureEnter(typ vm.OpCode, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	t.chain.callEnter(typ, from, to, input, value, t.state)
}

func (t *tracerAdapter) CaptureExit(output []byte, gasUsed uint64, err error) {
	t.chain.callExit(output, err, t.state)
}

func (t *tracerAdapter) CaptureTxStart(gasLimit uint64) {}

func (t *tracerAdapter) CaptureTxEnd(restGas uint64) {}
