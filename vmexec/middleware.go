package vmexec

import (
	"math/big"

	gethvm "github.com/crytic/medusa-geth/core/vm"

	"github.com/crytic/hydrafuzz/evmtypes"
)

// Middleware is a host-side hook invoked around contract insertion, every opcode the interpreter
// executes, and every call frame transition — the Go analogue of medusa's
// fuzzing/tracing.MultiTracer forwarding vm.EVMLogger calls to a list of registered tracers.
// Unlike a passive tracer, a Middleware is allowed to mutate EVMState directly: the flash-loan
// ledger's OnStep hook is exactly this, so Middleware is its own interface over our state rather
// than an embedding of vm.EVMLogger.
type Middleware interface {
	// OnContractInsertion is called once, the first time a contract's bytecode is deployed or
	// loaded into the executor, before any transaction touches it.
	OnContractInsertion(addr evmtypes.Address, code []byte, state *EVMState)

	// OnStep is called for every opcode the interpreter steps through, mirroring
	// vm.EVMLogger.CaptureState's pc/op/scope signature closely enough to let a middleware
	// inspect the active call frame's stack, memory, and contract address.
	OnStep(pc uint64, op gethvm.OpCode, scope *gethvm.ScopeContext, state *EVMState)

	// OnCallEnter is called when the interpreter enters a new call frame (CALL, DELEGATECALL,
	// STATICCALL, CALLCODE, or a CREATE), mirroring vm.EVMLogger.CaptureEnter.
	OnCallEnter(typ gethvm.OpCode, from, to evmtypes.Address, input []byte, value *big.Int, state *EVMState)

	// OnCallExit is called when a call frame returns, mirroring vm.EVMLogger.CaptureExit.
	OnCallExit(output []byte, err error, state *EVMState)
}

// MiddlewareChain dispatches to a list of registered Middlewares in order, the way MultiTracer
// forwards to every registered vm.EVMLogger. It does not implement gethvm.EVMLogger itself;
// tracerAdapter (tracer_adapter.go) wraps it and is what gets installed as the interpreter's logger.
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewMiddlewareChain returns an empty chain.
func NewMiddlewareChain() *MiddlewareChain {
	return &MiddlewareChain{}
}

// Register appends a Middleware to the chain. Order is preserve-as-registered: the flash-loan
// middleware is typically registered before the typed-bug detector so its ledger reflects the
// pre-opcode state the bug oracle reads.
func (c *MiddlewareChain) Register(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

func (c *MiddlewareChain) contractInsertion(addr evmtypes.Address, code []byte, state *EVMState) {
	for _, m := range c.middlewares {
		m.OnContractInsertion(addr, code, state)
	}
}

func (c *MiddlewareChain) step(pc uint64, op gethvm.OpCode, scope *gethvm.ScopeContext, state *EVMState) {
	for _, m := range c.middlewares {
		m.OnStep(pc, op, scope, state)
	}
}

func (c *MiddlewareChain) callEnter(typ gethvm.OpCode, from, to evmtypes.Address, input []byte, value *big.Int, state *EVMState) {
	for _, m := range c.middlewares {
		m.OnCallEnter(typ, from, to, input, value, state)
	}
}

func (c *MiddlewareChain) callExit(output []byte, err error, state *EVMState) {
	for _, m := range c.middlewares {
		m.OnCallExit(output, err, state)
	}
}
