// Package oracle implements the pluggable bug-oracle framework: a transition/oracle callback pair
// run after every executed input, consuming a Ctx view over the pre/post execution state.
// Grounded on ityfuzz's src/oracle.rs Oracle trait and src/evm/oracles/typed_bug.rs.
package oracle

import (
	"github.com/crytic/hydrafuzz/contracts"
	"github.com/crytic/hydrafuzz/fuzzinput"
	"github.com/crytic/hydrafuzz/vmexec"
)

// Ctx is the view an Oracle's callbacks get of one executed input: the staged states immediately
// before and after the call, the input itself, and the resolved artifact set for address/name/
// source-map lookups. It mirrors ityfuzz's generic OracleCtx, monomorphized to this core's
// concrete EVM types rather than kept generic (spec.md §9's second Open Question: no
// downcast_ref, a single fixed concrete input type).
type Ctx struct {
	PreState  *vmexec.StagedVMState
	PostState *vmexec.StagedVMState
	Input     *fuzzinput.EVMInput
	Result    *vmexec.ExecResult
	Artifacts *contracts.Artifacts
}

// Oracle is one pluggable bug detector. Transition lets an oracle carry its own per-stage state
// machine across a sequence of inputs (returning the next stage value); Oracle inspects the
// post-execution context and returns zero or more bug indices it judges newly triggered this
// step. Both callbacks are invoked once per executed EVMInput.
type Oracle interface {
	// Transition advances this oracle's internal stage given the current context and previous
	// stage value, returning the next stage. Oracles with no staged state simply return stage
	// unchanged (or 0).
	Transition(ctx *Ctx, stage uint64) uint64

	// Oracle inspects ctx and returns the bug indices newly detected at this step, pushing a
	// BugReport to the sink for each.
	Oracle(ctx *Ctx, stage uint64) []uint64
}

// Runner sequentially drives a fixed set of registered Oracles over each executed input, the way
// ityfuzz's fuzz loop folds its oracle list over every OracleCtx. It is the thin glue the corpus
// initializer/driver wires once, not an oracle itself.
type Runner struct {
	oracles []Oracle
	stages  []uint64
}

// NewRunner returns a Runner with the given oracles registered in order, each starting at stage 0.
func NewRunner(oracles ...Oracle) *Runner {
	return &Runner{oracles: oracles, stages: make([]uint64, len(oracles))}
}

// Run advances every registered oracle's transition and collects every newly detected bug index,
// in registration order.
func (r *Runner) Run(ctx *Ctx) []uint64 {
	var bugs []uint64
	for i, o := range r.oracles {
		r.stages[i] = o.Transition(ctx, r.stages[i])
		bugs = append(bugs, o.Oracle(ctx, r.stages[i])...)
	}
	return bugs
}
